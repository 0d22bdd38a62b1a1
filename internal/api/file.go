package api

import (
	"net/http"

	"github.com/creaza/ai-service/internal/config"
	"github.com/creaza/ai-service/internal/services/filestorage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

func GetFile(c *gin.Context) {
	filename := c.Param("filename")
	a := getApp(c)

	storage, err := filestorage.NewFileStorage(a.Config())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	if a.Config().Filesystem == config.FilesystemLocal {
		file, err := storage.ResolveFile(filename, "", false)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "file not found"})
			return
		}

		c.File(file)
		return
	}

	file, err := storage.GetFile(filename)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "file not found"})
		return
	}

	c.Data(http.StatusOK, mimetype.Detect(file.Content).String(), file.Content)
}
