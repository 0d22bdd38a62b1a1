// Package background implements the four background-editing operations:
// remove, blur, recolor and replace. All of them run the segmentation model
// once to obtain a soft foreground mask and differ only in how the mask is
// applied.
package background

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/creaza/ai-service/internal/model"
	"github.com/creaza/ai-service/internal/types"
	"github.com/creaza/ai-service/internal/utils/imageutil"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// blurRadius matches the heavy 51x51 Gaussian kernel used for the blurred
// background copy.
const blurRadius = 25.0

var (
	segmentMean = [3]float32{0.485, 0.456, 0.406}
	segmentStd  = [3]float32{0.229, 0.224, 0.225}
)

// ModelSource is the slice of the model manager this pipeline needs.
type ModelSource interface {
	HasSegmenter() bool
	RunSegmenter(input []float32) ([]float32, error)
}

type Service struct {
	models ModelSource
	logger *zap.Logger
}

func NewService(models ModelSource, logger *zap.Logger) *Service {
	return &Service{models: models, logger: logger.Named("background")}
}

// Remove cuts the foreground out onto transparency.
func (s *Service) Remove(data []byte) ([]byte, error) {
	img, err := imageutil.Decode(data)
	if err != nil {
		return nil, err
	}

	mask, err := s.foregroundMask(img)
	if err != nil {
		return nil, err
	}

	return imageutil.EncodePNG(cutOut(imaging.Clone(img), mask))
}

// Blur keeps the foreground sharp and blends the rest into a heavily blurred
// copy, lerping per pixel on the soft mask so edges stay smooth.
func (s *Service) Blur(data []byte) ([]byte, error) {
	img, err := imageutil.Decode(data)
	if err != nil {
		return nil, err
	}

	mask, err := s.foregroundMask(img)
	if err != nil {
		return nil, err
	}

	original := imaging.Clone(img)
	blurred := imaging.Clone(blur.Gaussian(original, blurRadius))

	return imageutil.EncodePNG(BlendWithMask(original, blurred, mask))
}

// Recolor composites the foreground over an opaque solid-color canvas. The
// color string must be six hex digits with an optional leading '#'.
func (s *Service) Recolor(data []byte, hexColor string) ([]byte, error) {
	fill, err := imageutil.ParseHexColor(hexColor)
	if err != nil {
		return nil, err
	}

	img, err := imageutil.Decode(data)
	if err != nil {
		return nil, err
	}

	mask, err := s.foregroundMask(img)
	if err != nil {
		return nil, err
	}

	foreground := cutOut(imaging.Clone(img), mask)
	canvas := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), fill)
	draw.Draw(canvas, canvas.Bounds(), foreground, image.Point{}, draw.Over)

	return imageutil.EncodePNG(canvas)
}

// Replace composites the foreground over a caller-supplied background, which
// is stretched to the exact foreground dimensions.
func (s *Service) Replace(data, backgroundData []byte) ([]byte, error) {
	img, err := imageutil.Decode(data)
	if err != nil {
		return nil, err
	}
	bg, err := imageutil.Decode(backgroundData)
	if err != nil {
		return nil, err
	}

	mask, err := s.foregroundMask(img)
	if err != nil {
		return nil, err
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	foreground := cutOut(imaging.Clone(img), mask)
	canvas := imaging.Resize(bg, w, h, imaging.Lanczos)
	draw.Draw(canvas, canvas.Bounds(), foreground, image.Point{}, draw.Over)

	return imageutil.EncodePNG(canvas)
}

// foregroundMask runs the segmenter and returns a per-pixel foreground
// probability mask at the image's own resolution.
func (s *Service) foregroundMask(img image.Image) (*image.Gray, error) {
	if !s.models.HasSegmenter() {
		return nil, types.NewError(types.ErrUnavailable, "background removal model not available")
	}

	resized := imaging.Resize(img, model.SegmenterSize, model.SegmenterSize, imaging.Lanczos)
	out, err := s.models.RunSegmenter(segmenterInput(resized))
	if err != nil {
		return nil, err
	}

	small := maskFromOutput(out)
	if small == nil {
		return nil, types.NewError(types.ErrInternal, "segmenter returned unexpected output size")
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	return grayFromNRGBA(imaging.Resize(small, w, h, imaging.Lanczos)), nil
}

func segmenterInput(img *image.NRGBA) []float32 {
	size := model.SegmenterSize
	out := make([]float32, 3*size*size)
	rBase, gBase, bBase := 0, size*size, 2*size*size

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := img.NRGBAAt(x, y)
			out[rBase] = (float32(c.R)/255.0 - segmentMean[0]) / segmentStd[0]
			out[gBase] = (float32(c.G)/255.0 - segmentMean[1]) / segmentStd[1]
			out[bBase] = (float32(c.B)/255.0 - segmentMean[2]) / segmentStd[2]
			rBase++
			gBase++
			bBase++
		}
	}
	return out
}

// maskFromOutput min-max normalizes the raw segmenter output into an 8-bit
// mask.
func maskFromOutput(out []float32) *image.Gray {
	size := model.SegmenterSize
	if len(out) < size*size {
		return nil
	}
	out = out[:size*size]

	lo, hi := out[0], out[0]
	for _, v := range out {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	mask := image.NewGray(image.Rect(0, 0, size, size))
	for i, v := range out {
		mask.Pix[i] = uint8((v - lo) / span * 255)
	}
	return mask
}

// cutOut applies the mask as the alpha channel of img, in place.
func cutOut(img *image.NRGBA, mask *image.Gray) *image.NRGBA {
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := img.PixOffset(x, y)
			m := mask.GrayAt(x, y).Y
			img.Pix[i+3] = uint8(uint16(img.Pix[i+3]) * uint16(m) / 255)
		}
	}
	return img
}

// BlendWithMask lerps original and blurred per pixel: mask 255 keeps the
// original, mask 0 takes the blurred copy.
func BlendWithMask(original, blurred *image.NRGBA, mask *image.Gray) *image.NRGBA {
	b := original.Bounds()
	out := image.NewNRGBA(b)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			m := float64(mask.GrayAt(x, y).Y) / 255.0
			o := original.NRGBAAt(x, y)
			bl := blurred.NRGBAAt(x, y)
			out.SetNRGBA(x, y, color.NRGBA{
				R: lerp(o.R, bl.R, m),
				G: lerp(o.G, bl.G, m),
				B: lerp(o.B, bl.B, m),
				A: 255,
			})
		}
	}
	return out
}

func lerp(orig, blurred uint8, m float64) uint8 {
	return uint8(float64(orig)*m + float64(blurred)*(1-m) + 0.5)
}

// grayFromNRGBA collapses a resized mask back to one channel.
func grayFromNRGBA(img *image.NRGBA) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.SetGray(x, y, color.Gray{Y: img.NRGBAAt(x, y).R})
		}
	}
	return out
}
