package server

import (
	"net/http"

	"github.com/creaza/ai-service/internal/api"
	"github.com/creaza/ai-service/internal/app"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) SetupRoutes(a *app.App) {
	// Health check endpoint
	s.ginEngine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.ginEngine.GET("/", handlerWrapper(a, api.Index))
	s.ginEngine.GET("/model-status", handlerWrapper(a, api.ModelStatus))

	// Not an API, just a simple file server endpoint
	s.ginEngine.GET("/file/:filename", handlerWrapper(a, api.GetFile))

	s.ginEngine.POST("/remove-background", handlerWrapper(a, api.RemoveBackground))
	s.ginEngine.POST("/blur-background", handlerWrapper(a, api.BlurBackground))
	s.ginEngine.POST("/custom-background-color", handlerWrapper(a, api.CustomBackgroundColor))
	s.ginEngine.POST("/custom-background-image", handlerWrapper(a, api.CustomBackgroundImage))
	s.ginEngine.POST("/generate-caption", handlerWrapper(a, api.GenerateCaption))
	s.ginEngine.POST("/enhance-image", handlerWrapper(a, api.EnhanceImage))
	s.ginEngine.POST("/text-to-image", handlerWrapper(a, api.TextToImage))
	s.ginEngine.POST("/chat", handlerWrapper(a, api.Chat))
}

func handlerWrapper(a *app.App, f func(c *gin.Context)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set("app", a)
		ctx.Set("request_id", uuid.NewString())
		f(ctx)
	}
}
