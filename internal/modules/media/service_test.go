package media

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// pngOfSize returns n bytes that sniff as image/png.
func pngOfSize(n int) []byte {
	b := make([]byte, n)
	copy(b, pngMagic)
	return b
}

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewDiskStore(dir)
	require.NoError(t, err)
	return NewService(store), dir
}

func TestUpload_ExactlyAtCeiling(t *testing.T) {
	svc, dir := newTestService(t)

	url, err := svc.Upload(context.Background(), "photo.PNG", bytes.NewReader(pngOfSize(MaxUploadBytes)))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^/uploads/\d+-\d+\.png$`), url)

	info, err := os.Stat(filepath.Join(dir, strings.TrimPrefix(url, PublicPrefix)))
	require.NoError(t, err)
	assert.Equal(t, int64(MaxUploadBytes), info.Size())
}

func TestUpload_OneByteOver(t *testing.T) {
	svc, dir := newTestService(t)

	_, err := svc.Upload(context.Background(), "photo.png", bytes.NewReader(pngOfSize(MaxUploadBytes+1)))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUpload_NonImageRejected(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Upload(context.Background(), "notes.png", strings.NewReader("just some text"))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestUpload_Empty(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Upload(context.Background(), "a.png", bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestUpload_ExtensionFromContentWhenMissing(t *testing.T) {
	svc, _ := newTestService(t)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	url, err := svc.Upload(context.Background(), "blob", bytes.NewReader(pngOfSize(64)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/1700000000000-"))
	assert.True(t, strings.HasSuffix(url, ".png"))
}

func TestUpload_NamesAreUnique(t *testing.T) {
	svc, _ := newTestService(t)
	svc.now = func() time.Time { return time.UnixMilli(1) }

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		url, err := svc.Upload(context.Background(), "a.png", bytes.NewReader(pngOfSize(16)))
		require.NoError(t, err)
		assert.False(t, seen[url], "duplicate name %s", url)
		seen[url] = true
	}
}

func TestRemoveUpload(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()

	url, err := svc.Upload(ctx, "a.png", bytes.NewReader(pngOfSize(16)))
	require.NoError(t, err)

	require.NoError(t, svc.RemoveUpload(ctx, url))
	_, err = os.Stat(filepath.Join(dir, strings.TrimPrefix(url, PublicPrefix)))
	assert.True(t, os.IsNotExist(err))

	// already gone
	assert.NoError(t, svc.RemoveUpload(ctx, url))

	assert.Error(t, svc.RemoveUpload(ctx, "https://example.com/a.png"))
}

func TestDiskStore_RejectsPathTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Open(context.Background(), "../secret")
	assert.Error(t, err)
	assert.Error(t, store.Remove(context.Background(), ".."))
}

func TestUpload_ExtensionMustMatchContent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	jpeg := append([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), make([]byte, 64)...)

	cases := []struct {
		filename string
		data     []byte
		ext      string
	}{
		{"evil.html", append(pngOfSize(64), "<script>alert(1)</script>"...), ".png"},
		{"photo.gif", pngOfSize(64), ".png"},
		{"photo.svg", pngOfSize(64), ".png"},
		{"Photo.JPEG", jpeg, ".jpeg"},
		{"photo.jpg", jpeg, ".jpg"},
	}
	for _, tc := range cases {
		url, err := svc.Upload(ctx, tc.filename, bytes.NewReader(tc.data))
		require.NoError(t, err, tc.filename)
		assert.Equal(t, tc.ext, filepath.Ext(url), tc.filename)
	}
}
