// Package filestorage persists pipeline outputs either on the local disk or
// in an S3-compatible bucket, selected by configuration.
package filestorage

import (
	"fmt"
	"strings"

	"github.com/creaza/ai-service/internal/config"
)

type FileInfo struct {
	Name      string
	Extension string
	Content   []byte
	IsTemp    bool
}

type FileStorage interface {
	Upload(file FileInfo) (string, error)
	UploadMultiple(files []FileInfo) ([]string, error)
	GetFile(filename string) (*FileInfo, error)
	ResolveFile(filename string, subfolder string, isTemp bool) (string, error)
}

func NewFileInfo(name string, extension string, content []byte, isTemp bool) FileInfo {
	return FileInfo{
		Name:      name,
		Extension: extension,
		Content:   content,
		IsTemp:    isTemp,
	}
}

func NewFileStorage(cfg *config.Config) (FileStorage, error) {
	switch strings.ToLower(cfg.Filesystem) {
	case config.FilesystemLocal:
		return NewLocalFileStorage(cfg)
	case config.FilesystemS3:
		return NewS3FileStorage(cfg)
	}

	return nil, fmt.Errorf("invalid filesystem type %q", cfg.Filesystem)
}
