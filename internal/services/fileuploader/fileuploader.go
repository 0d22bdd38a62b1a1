// Package fileuploader pushes pipeline outputs to file storage on a worker
// pool so request handlers never block on the upload.
package fileuploader

import (
	"github.com/creaza/ai-service/internal/services/filestorage"
	"github.com/creaza/ai-service/internal/utils/hashutil"

	"github.com/gammazero/workerpool"
	"go.uber.org/zap"
)

type Uploader struct {
	wp          *workerpool.WorkerPool
	filestorage filestorage.FileStorage
	logger      *zap.Logger
}

func NewFileUploader(storage filestorage.FileStorage, maxWorkers int, logger *zap.Logger) *Uploader {
	return &Uploader{
		wp:          workerpool.New(maxWorkers),
		filestorage: storage,
		logger:      logger.Named("fileuploader"),
	}
}

// Stop drains queued uploads and shuts the pool down.
func (w *Uploader) Stop() {
	w.wp.StopWait()
}

func (w *Uploader) Upload(file filestorage.FileInfo, response chan string) {
	w.wp.Submit(func() {
		w.upload(file, response)
	})
}

// UploadBytes stores raw content under its blake3 hash, so identical outputs
// dedupe to the same object.
func (w *Uploader) UploadBytes(content []byte, extension string, response chan string) {
	fileInfo := filestorage.NewFileInfo(hashutil.Blake3Hash(content), extension, content, false)
	w.Upload(fileInfo, response)
}

func (w *Uploader) upload(file filestorage.FileInfo, response chan string) {
	if w.filestorage == nil {
		close(response)
		return
	}

	url, err := w.filestorage.Upload(file)
	if err != nil {
		w.logger.Warn("upload failed",
			zap.String("file", file.Name+file.Extension),
			zap.Error(err))
		close(response)
		return
	}

	response <- url
}
