package artifacts

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cozy-creator/hf-hub/hub"
	"github.com/creaza/ai-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDownloadDirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("model-bytes"))
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	d := NewDownloader(&config.Config{ModelsDir: dir}, zap.NewNop())

	require.NoError(t, d.Download("test.onnx", server.URL+"/test.onnx"))

	content, err := os.ReadFile(filepath.Join(dir, "test.onnx"))
	require.NoError(t, err)
	assert.Equal(t, []byte("model-bytes"), content)
}

func TestDownloadSkipsExistingFile(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "present.onnx")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	t.Cleanup(server.Close)

	d := NewDownloader(&config.Config{ModelsDir: dir}, zap.NewNop())
	require.NoError(t, d.Download("present.onnx", server.URL))

	assert.Equal(t, 0, requests)
	content, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), content)
}

func TestDownloadRejectsBadSource(t *testing.T) {
	d := NewDownloader(&config.Config{ModelsDir: t.TempDir()}, zap.NewNop())
	require.Error(t, d.Download("x.onnx", "ftp://nope"))
}

func TestRepoParams(t *testing.T) {
	params := repoParams("someorg/somerepo")
	require.NotNil(t, params.Repo)
	assert.Equal(t, "someorg/somerepo", params.Repo.Id)
	assert.Equal(t, hub.ModelRepoType, params.Repo.Type)
}
