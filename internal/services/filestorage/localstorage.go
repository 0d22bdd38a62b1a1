package filestorage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/creaza/ai-service/internal/config"
)

type LocalFileStorage struct {
	assetsDir string
	tempDir   string
	host      string
	port      int
}

func NewLocalFileStorage(cfg *config.Config) (*LocalFileStorage, error) {
	if cfg.AssetsDir == "" || cfg.TempDir == "" {
		return nil, fmt.Errorf("assets and temp directories must be configured for local storage")
	}

	return &LocalFileStorage{
		assetsDir: cfg.AssetsDir,
		tempDir:   cfg.TempDir,
		host:      cfg.Host,
		port:      cfg.Port,
	}, nil
}

func (u *LocalFileStorage) Upload(file FileInfo) (string, error) {
	dir := u.assetsDir
	if file.IsTemp {
		dir = u.tempDir
	}
	filedest := filepath.Join(dir, file.Name+file.Extension)

	if err := os.MkdirAll(filepath.Dir(filedest), os.ModePerm); err != nil {
		return "", err
	}
	if err := os.WriteFile(filedest, file.Content, 0o644); err != nil {
		return "", err
	}

	return fmt.Sprintf("http://%s:%d/file/%s%s", u.host, u.port, file.Name, file.Extension), nil
}

func (u *LocalFileStorage) UploadMultiple(files []FileInfo) ([]string, error) {
	var uploadedFiles []string
	for _, file := range files {
		destination, err := u.Upload(file)
		if err != nil {
			return nil, err
		}

		uploadedFiles = append(uploadedFiles, destination)
	}

	return uploadedFiles, nil
}

func (u *LocalFileStorage) GetFile(filename string) (*FileInfo, error) {
	content, err := os.ReadFile(filepath.Join(u.assetsDir, filepath.Base(filename)))
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		Name:      filename,
		Extension: filepath.Ext(filename),
		Content:   content,
		IsTemp:    false,
	}, nil
}

func (u *LocalFileStorage) ResolveFile(filename string, subfolder string, isTemp bool) (string, error) {
	dir := u.assetsDir
	if isTemp {
		dir = u.tempDir
	}
	resolved := filepath.Join(dir, subfolder, filename)

	if _, err := os.Stat(resolved); err != nil {
		return "", err
	}

	return resolved, nil
}
