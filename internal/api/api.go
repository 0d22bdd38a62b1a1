// Package api contains the gin handlers for every pipeline endpoint.
package api

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/creaza/ai-service/internal/app"
	"github.com/creaza/ai-service/internal/types"
	"github.com/creaza/ai-service/internal/utils/imageutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func getApp(c *gin.Context) *app.App {
	return c.MustGet("app").(*app.App)
}

// respondError maps a pipeline error onto its HTTP status and a uniform
// error body.
func respondError(c *gin.Context, err error) {
	a := getApp(c)
	a.Logger.Warn("request failed",
		zap.String("path", c.FullPath()),
		zap.String("request_id", c.GetString("request_id")),
		zap.Error(err))

	c.JSON(types.HTTPStatusOf(err), gin.H{
		"success": false,
		"kind":    string(types.KindOf(err)),
		"message": err.Error(),
	})
}

// readUpload pulls one multipart file field into memory.
func readUpload(c *gin.Context, field string) ([]byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, types.Errorf(types.ErrInvalidInput, "missing file field %q", field)
	}
	return readFileHeader(header)
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, types.NewError(types.ErrInvalidInput, "failed to open uploaded file").WithCause(err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidInput, "failed to read uploaded file").WithCause(err)
	}
	return content, nil
}

// respondImage returns the processed PNG as a data URL and, when persistence
// is enabled, queues a background upload of the same bytes.
func respondImage(c *gin.Context, message string, png []byte) {
	a := getApp(c)
	if a.Config().PersistResults && a.Uploader() != nil {
		response := make(chan string, 1)
		a.Uploader().UploadBytes(png, ".png", response)
		go func() {
			if url, ok := <-response; ok {
				a.Logger.Info("result persisted", zap.String("url", url))
			}
		}()
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"image":   imageutil.ToDataURL(png),
		"message": message,
	})
}
