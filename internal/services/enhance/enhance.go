// Package enhance runs 4x super-resolution over an uploaded image.
package enhance

import (
	"image"
	"image/color"

	"github.com/creaza/ai-service/internal/types"
	"github.com/creaza/ai-service/internal/utils/imageutil"

	"github.com/anthonynsimon/bild/transform"
	"go.uber.org/zap"
)

const (
	// MaxUploadBytes caps the request body. Upscaling memory grows with the
	// square of the input size, so oversized uploads are refused outright.
	MaxUploadBytes = 5 << 20

	// maxDimension is the longest side fed to the model. Larger inputs are
	// downscaled first so a single request cannot exhaust the host.
	maxDimension = 400
)

// ModelSource is the slice of the model manager this pipeline needs.
type ModelSource interface {
	HasUpscaler() bool
	RunUpscaler(input []float32, height, width int) ([]float32, int, int, error)
}

type Service struct {
	models ModelSource
	logger *zap.Logger
}

func NewService(models ModelSource, logger *zap.Logger) *Service {
	return &Service{models: models, logger: logger.Named("enhance")}
}

// Enhance upscales the image by 4x, downscaling the input first when either
// side exceeds the working limit.
func (s *Service) Enhance(data []byte) ([]byte, error) {
	if len(data) > MaxUploadBytes {
		return nil, types.NewError(types.ErrInvalidInput, "image exceeds the 5 MiB upload limit").WithStatus(413)
	}
	if !s.models.HasUpscaler() {
		return nil, types.NewError(types.ErrUnavailable, "enhancement model not available")
	}

	img, err := imageutil.Decode(data)
	if err != nil {
		return nil, err
	}

	src := clampSize(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()

	out, outH, outW, err := s.models.RunUpscaler(upscalerInput(src), h, w)
	if err != nil {
		return nil, err
	}
	if len(out) < 3*outH*outW {
		return nil, types.NewError(types.ErrInternal, "upscaler returned truncated output")
	}

	return imageutil.EncodePNG(fromPlanar(out, outW, outH))
}

// clampSize shrinks the image so its longer side fits maxDimension, keeping
// the aspect ratio. Images already inside the limit pass through untouched.
func clampSize(img image.Image) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w <= maxDimension && h <= maxDimension {
		return toNRGBA(img)
	}

	if w >= h {
		h = h * maxDimension / w
		w = maxDimension
	} else {
		w = w * maxDimension / h
		h = maxDimension
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return toNRGBA(transform.Resize(img, w, h, transform.Linear))
}

// upscalerInput lays the pixels out as NCHW in the 0..1 range.
func upscalerInput(img *image.NRGBA) []float32 {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	out := make([]float32, 3*h*w)
	rBase, gBase, bBase := 0, h*w, 2*h*w

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.NRGBAAt(x, y)
			out[rBase] = float32(c.R) / 255.0
			out[gBase] = float32(c.G) / 255.0
			out[bBase] = float32(c.B) / 255.0
			rBase++
			gBase++
			bBase++
		}
	}
	return out
}

// fromPlanar converts NCHW model output back to an image, clamping to 8 bits.
func fromPlanar(data []float32, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	rBase, gBase, bBase := 0, h*w, 2*h*w

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: clamp255(data[rBase]),
				G: clamp255(data[gBase]),
				B: clamp255(data[bBase]),
				A: 255,
			})
			rBase++
			gBase++
			bBase++
		}
	}
	return img
}

func clamp255(v float32) uint8 {
	scaled := v * 255.0
	if scaled <= 0 {
		return 0
	}
	if scaled >= 255 {
		return 255
	}
	return uint8(scaled + 0.5)
}

func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}
