package media

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Store is where uploaded image bytes live.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	// Open returns fs.ErrNotExist (possibly wrapped) for unknown names.
	Open(ctx context.Context, name string) (io.ReadSeekCloser, time.Time, error)
	// Remove returns fs.ErrNotExist (possibly wrapped) for unknown names.
	Remove(ctx context.Context, name string) error
}

// validName rejects anything that is not a single path element.
func validName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return fmt.Errorf("invalid file name %q: %w", name, fs.ErrNotExist)
	}
	return nil
}

// DiskStore keeps uploads as flat files in one directory.
type DiskStore struct{ dir string }

// NewDiskStore creates dir if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the upload directory.
func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) Save(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	if err := validName(name); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	return f.Close()
}

func (s *DiskStore) Open(_ context.Context, name string) (io.ReadSeekCloser, time.Time, error) {
	if err := validName(name); err != nil {
		return nil, time.Time{}, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, time.Time{}, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, time.Time{}, err
	}
	if info.IsDir() {
		f.Close()
		return nil, time.Time{}, fs.ErrNotExist
	}
	return f, info.ModTime(), nil
}

func (s *DiskStore) Remove(_ context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	return os.Remove(filepath.Join(s.dir, name))
}
