package api

import (
	"github.com/gin-gonic/gin"
)

func RemoveBackground(c *gin.Context) {
	data, err := readUpload(c, "file")
	if err != nil {
		respondError(c, err)
		return
	}

	out, err := getApp(c).Background.Remove(data)
	if err != nil {
		respondError(c, err)
		return
	}

	respondImage(c, "Background removed successfully", out)
}

func BlurBackground(c *gin.Context) {
	data, err := readUpload(c, "file")
	if err != nil {
		respondError(c, err)
		return
	}

	out, err := getApp(c).Background.Blur(data)
	if err != nil {
		respondError(c, err)
		return
	}

	respondImage(c, "Background blurred successfully", out)
}

func CustomBackgroundColor(c *gin.Context) {
	data, err := readUpload(c, "file")
	if err != nil {
		respondError(c, err)
		return
	}
	hexColor := c.PostForm("color")

	out, err := getApp(c).Background.Recolor(data, hexColor)
	if err != nil {
		respondError(c, err)
		return
	}

	respondImage(c, "Background color applied successfully", out)
}

func CustomBackgroundImage(c *gin.Context) {
	data, err := readUpload(c, "file")
	if err != nil {
		respondError(c, err)
		return
	}
	backgroundData, err := readUpload(c, "background_file")
	if err != nil {
		respondError(c, err)
		return
	}

	out, err := getApp(c).Background.Replace(data, backgroundData)
	if err != nil {
		respondError(c, err)
		return
	}

	respondImage(c, "Background replaced successfully", out)
}
