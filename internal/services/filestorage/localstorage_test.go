package filestorage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/creaza/ai-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Host:       "localhost",
		Port:       8002,
		Filesystem: config.FilesystemLocal,
		AssetsDir:  filepath.Join(dir, "assets"),
		TempDir:    filepath.Join(dir, "temp"),
	}
}

func TestNewFileStorageSelectsBackend(t *testing.T) {
	storage, err := NewFileStorage(localConfig(t))
	require.NoError(t, err)
	assert.IsType(t, &LocalFileStorage{}, storage)

	_, err = NewFileStorage(&config.Config{Filesystem: "ftp"})
	require.Error(t, err)
}

func TestLocalUploadAndGet(t *testing.T) {
	cfg := localConfig(t)
	storage, err := NewLocalFileStorage(cfg)
	require.NoError(t, err)

	url, err := storage.Upload(NewFileInfo("abc123", ".png", []byte("png-data"), false))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8002/file/abc123.png", url)

	got, err := storage.GetFile("abc123.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-data"), got.Content)
	assert.Equal(t, ".png", got.Extension)
}

func TestLocalUploadTempGoesToTempDir(t *testing.T) {
	cfg := localConfig(t)
	storage, err := NewLocalFileStorage(cfg)
	require.NoError(t, err)

	_, err = storage.Upload(NewFileInfo("scratch", ".png", []byte("x"), true))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(cfg.TempDir, "scratch.png"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.AssetsDir, "scratch.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalResolveFile(t *testing.T) {
	cfg := localConfig(t)
	storage, err := NewLocalFileStorage(cfg)
	require.NoError(t, err)

	_, err = storage.Upload(NewFileInfo("present", ".png", []byte("x"), false))
	require.NoError(t, err)

	resolved, err := storage.ResolveFile("present.png", "", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.AssetsDir, "present.png"), resolved)

	_, err = storage.ResolveFile("missing.png", "", false)
	require.Error(t, err)
}
