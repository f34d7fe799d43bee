package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxUploadBytes is the largest accepted image. Clients pre-checking file
// sizes use the same constant.
const MaxUploadBytes = 500 * 1024

// PublicPrefix is the URL path under which stored uploads are served.
const PublicPrefix = "/uploads/"

var (
	ErrNoFile   = errors.New("no file uploaded")
	ErrTooLarge = fmt.Errorf("file exceeds %d bytes", MaxUploadBytes)
	ErrNotImage = errors.New("file is not an image")
)

// Service validates, names and stores uploaded images.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Upload stores the image read from r under a generated name and returns
// its public path, /uploads/<name>. Only the first MaxUploadBytes+1 bytes
// are read; anything longer is rejected with ErrTooLarge.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrNoFile
	}
	if len(data) > MaxUploadBytes {
		return "", ErrTooLarge
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}

	name := s.newName(extensionFor(mt, filename))

	if err := s.store.Save(ctx, name, bytes.NewReader(data), int64(len(data)), mt.String()); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return PublicPrefix + name, nil
}

// extensionFor keeps the client's extension only when it names the
// detected image type, so the stored file is always served as that type.
func extensionFor(mt *mimetype.MIME, filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if ext == "" || ext == mt.Extension() {
		return mt.Extension()
	}
	declared, _, err := mime.ParseMediaType(mime.TypeByExtension(ext))
	if err == nil && mt.Is(declared) {
		return ext
	}
	return mt.Extension()
}

// newName returns "<unix-millis>-<random>" plus ext.
func (s *Service) newName(ext string) string {
	return fmt.Sprintf("%d-%d%s", s.now().UnixMilli(), uuid.New().ID()%1_000_000_000, ext)
}

// RemoveUpload deletes the stored file behind an /uploads/ path. A file
// that is already gone is not an error.
func (s *Service) RemoveUpload(ctx context.Context, publicPath string) error {
	if !strings.HasPrefix(publicPath, PublicPrefix) {
		return fmt.Errorf("not an upload path: %q", publicPath)
	}
	err := s.store.Remove(ctx, path.Base(publicPath))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Open returns the stored file for name.
func (s *Service) Open(ctx context.Context, name string) (io.ReadSeekCloser, time.Time, error) {
	return s.store.Open(ctx, name)
}
