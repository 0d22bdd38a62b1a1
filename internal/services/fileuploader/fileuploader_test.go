package fileuploader

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/creaza/ai-service/internal/services/filestorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStorage struct {
	uploads []filestorage.FileInfo
	fail    bool
}

func (f *fakeStorage) Upload(file filestorage.FileInfo) (string, error) {
	if f.fail {
		return "", errors.New("bucket unavailable")
	}
	f.uploads = append(f.uploads, file)
	return "http://files/" + file.Name + file.Extension, nil
}

func (f *fakeStorage) UploadMultiple(files []filestorage.FileInfo) ([]string, error) {
	return nil, nil
}

func (f *fakeStorage) GetFile(filename string) (*filestorage.FileInfo, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStorage) ResolveFile(filename, subfolder string, isTemp bool) (string, error) {
	return "", errors.New("not implemented")
}

func TestUploadBytesNamesByHash(t *testing.T) {
	storage := &fakeStorage{}
	uploader := NewFileUploader(storage, 1, zap.NewNop())
	defer uploader.Stop()

	response := make(chan string, 1)
	uploader.UploadBytes([]byte("same-bytes"), ".png", response)

	select {
	case url := <-response:
		assert.True(t, strings.HasPrefix(url, "http://files/"))
		assert.True(t, strings.HasSuffix(url, ".png"))
	case <-time.After(2 * time.Second):
		t.Fatal("upload never completed")
	}

	require.Len(t, storage.uploads, 1)
	first := storage.uploads[0].Name

	response2 := make(chan string, 1)
	uploader.UploadBytes([]byte("same-bytes"), ".png", response2)
	<-response2

	require.Len(t, storage.uploads, 2)
	assert.Equal(t, first, storage.uploads[1].Name)
}

func TestUploadFailureClosesChannel(t *testing.T) {
	uploader := NewFileUploader(&fakeStorage{fail: true}, 1, zap.NewNop())
	defer uploader.Stop()

	response := make(chan string, 1)
	uploader.UploadBytes([]byte("data"), ".png", response)

	select {
	case url, ok := <-response:
		assert.False(t, ok, "expected closed channel, got %q", url)
	case <-time.After(2 * time.Second):
		t.Fatal("channel never closed")
	}
}

func TestNilStorageClosesChannel(t *testing.T) {
	uploader := NewFileUploader(nil, 1, zap.NewNop())
	defer uploader.Stop()

	response := make(chan string, 1)
	uploader.UploadBytes([]byte("data"), ".png", response)

	_, ok := <-response
	assert.False(t, ok)
}
