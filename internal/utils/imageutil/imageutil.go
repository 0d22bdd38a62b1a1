package imageutil

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/creaza/ai-service/internal/types"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Decode parses uploaded image bytes. PNG, JPEG, GIF, BMP and WebP are
// accepted.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, types.NewError(types.ErrInvalidInput, "invalid image format").WithCause(err)
	}

	return img, nil
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, types.NewError(types.ErrInternal, "failed to encode image").WithCause(err)
	}

	return buf.Bytes(), nil
}

// ToDataURL wraps PNG bytes in the data-URL form the frontend consumes.
func ToDataURL(pngBytes []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

// ParseHexColor accepts exactly six hex digits with an optional leading '#'.
func ParseHexColor(s string) (color.NRGBA, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(cleaned) != 6 {
		return color.NRGBA{}, types.NewError(types.ErrInvalidInput,
			"invalid color format, use hex format like #FF0000")
	}

	rgb, err := hex.DecodeString(cleaned)
	if err != nil {
		return color.NRGBA{}, types.NewError(types.ErrInvalidInput, "invalid hex color").WithCause(err)
	}

	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, nil
}
