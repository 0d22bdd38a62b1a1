package api

import (
	"net/http"

	"github.com/creaza/ai-service/internal/types"

	"github.com/gin-gonic/gin"
)

func GenerateCaption(c *gin.Context) {
	data, err := readUpload(c, "file")
	if err != nil {
		respondError(c, err)
		return
	}

	caption, err := getApp(c).Caption.Generate(data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"caption": caption,
	})
}

func EnhanceImage(c *gin.Context) {
	data, err := readUpload(c, "file")
	if err != nil {
		respondError(c, err)
		return
	}

	out, err := getApp(c).Enhance.Enhance(data)
	if err != nil {
		respondError(c, err)
		return
	}

	respondImage(c, "Image enhanced successfully", out)
}

func TextToImage(c *gin.Context) {
	var req types.TextToImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.NewError(types.ErrInvalidInput, "invalid request body").WithCause(err))
		return
	}

	out, err := getApp(c).TextToImage.Generate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondImage(c, "Image generated successfully", out)
}

func Chat(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.NewError(types.ErrInvalidInput, "invalid request body").WithCause(err))
		return
	}

	reply, model, err := getApp(c).Chat.Reply(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    reply,
		"model_used": model,
	})
}
