package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsdesk/helpdesk/internal/config"
)

func TestLocalStorePut(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(config.StorageConfig{UploadDir: dir, BaseURL: "/files"}, zap.NewNop())
	require.NoError(t, err)

	stored, err := store.Put(context.Background(), strings.NewReader("screenshot bytes"), "crash.png")
	require.NoError(t, err)
	require.Equal(t, "crash.png", stored.OriginalFilename)
	require.True(t, strings.HasPrefix(stored.URL, "/files/"))
	require.True(t, strings.HasSuffix(stored.URL, ".png"))

	key := strings.TrimPrefix(stored.URL, "/files/")
	raw, err := os.ReadFile(filepath.Join(dir, key))
	require.NoError(t, err)
	require.Equal(t, "screenshot bytes", string(raw))
}

func TestLocalStorePutKeysAreUnique(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(config.StorageConfig{UploadDir: dir, BaseURL: "/files"}, zap.NewNop())
	require.NoError(t, err)

	a, err := store.Put(context.Background(), strings.NewReader("one"), "report.pdf")
	require.NoError(t, err)
	b, err := store.Put(context.Background(), strings.NewReader("two"), "report.pdf")
	require.NoError(t, err)
	require.NotEqual(t, a.URL, b.URL)
}

func TestNewLocalStoreCreatesTheDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	_, err := NewLocalStore(config.StorageConfig{UploadDir: dir, BaseURL: "/files"}, zap.NewNop())
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
