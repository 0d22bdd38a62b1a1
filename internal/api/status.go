package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Image processing service is running",
	})
}

// ModelStatus reports which local models loaded and which pipelines they
// enable, so operators can see at a glance why an endpoint is degraded.
func ModelStatus(c *gin.Context) {
	models := getApp(c).Models()
	if models == nil {
		c.JSON(http.StatusOK, gin.H{
			"success":    false,
			"runtime_ok": false,
			"message":    "model manager not initialized",
		})
		return
	}

	artifacts := gin.H{}
	for artifact, status := range models.Status() {
		entry := gin.H{
			"loaded": status.Loaded,
			"exists": status.Exists,
			"path":   status.Path,
		}
		if status.Error != "" {
			entry["error"] = status.Error
		}
		artifacts[string(artifact)] = entry
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"runtime_ok": models.RuntimeOK(),
		"backend":    models.Backend(),
		"pipelines": gin.H{
			"background": models.HasSegmenter(),
			"caption":    models.HasCaptioner(),
			"enhance":    models.HasUpscaler(),
		},
		"artifacts": artifacts,
	})
}
