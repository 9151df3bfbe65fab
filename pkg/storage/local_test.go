package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestLocalUploadAndDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocal(root, "courses", zerolog.Nop())
	require.NoError(t, err)

	location, err := store.Upload(context.Background(), "../Week 1 notes.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(location, "courses/"))
	require.True(t, strings.HasSuffix(location, "-Week-1-notes.pdf"))

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(location)))
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4", string(content))

	require.NoError(t, store.Delete(context.Background(), location))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(location)))
	require.True(t, os.IsNotExist(err))

	require.Error(t, store.Delete(context.Background(), "../etc/passwd"))
}

func TestLocalUploadCleansUpPartialWrites(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocal(root, "courses", zerolog.Nop())
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), "broken.bin", failingReader{})
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(root, "courses"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestPublicURL(t *testing.T) {
	require.Equal(t, "https://cdn.example.com/a.pdf", PublicURL("http://localhost:8080", "https://cdn.example.com/a.pdf"))
	require.Equal(t, "http://localhost:8080/storage/courses/a.pdf", PublicURL("http://localhost:8080/", "courses/a.pdf"))
}
