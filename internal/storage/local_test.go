package storage

import (
	"bytes"
	"context"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	gifHeader = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
)

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("images", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["images"][0]
}

func newStorage(t *testing.T, maxBytes int64) (*LocalStorage, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewLocalStorage(Config{BasePath: dir, BaseURL: "/uploads/", MaxBytes: maxBytes})
	require.NoError(t, err)
	return s, dir
}

func TestLocalStorage_SaveAndDelete(t *testing.T) {
	s, dir := newStorage(t, 1024)
	ctx := context.Background()

	url, err := s.Save(ctx, fileHeader(t, "photo.png", pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	stored := filepath.Join(dir, strings.TrimPrefix(url, "/uploads/"))
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	require.NoError(t, s.Delete(ctx, url))
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, s.Delete(ctx, url))
}

func TestLocalStorage_ExtensionFollowsContent(t *testing.T) {
	s, _ := newStorage(t, 1024)

	url, err := s.Save(context.Background(), fileHeader(t, "photo.png", gifHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".gif"))
}

func TestLocalStorage_Rejects(t *testing.T) {
	s, dir := newStorage(t, 64)
	ctx := context.Background()

	_, err := s.Save(ctx, fileHeader(t, "notes.png", []byte("just some text, not an image")))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 100)...)
	_, err = s.Save(ctx, fileHeader(t, "big.png", big))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStorage_DeleteIgnoresForeignURLs(t *testing.T) {
	s, dir := newStorage(t, 1024)
	outside := filepath.Join(filepath.Dir(dir), "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0644))
	t.Cleanup(func() { _ = os.Remove(outside) })

	ctx := context.Background()
	assert.NoError(t, s.Delete(ctx, "https://cdn.example.com/a.png"))
	assert.NoError(t, s.Delete(ctx, "/uploads/../keep.txt"))

	_, err := os.Stat(outside)
	assert.NoError(t, err)
}

func TestNewLocalStorage_Defaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	s, err := NewLocalStorage(Config{BasePath: dir})
	require.NoError(t, err)

	assert.Equal(t, "/uploads", s.baseURL)
	assert.Equal(t, int64(defaultMaxBytes), s.maxBytes)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
