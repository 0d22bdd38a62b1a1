package enhance

import (
	"image"
	"image/color"
	"testing"

	"github.com/creaza/ai-service/internal/types"
	"github.com/creaza/ai-service/internal/utils/imageutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeUpscaler repeats every input pixel into a 4x4 block.
type fakeUpscaler struct {
	available bool
	gotH      int
	gotW      int
}

func (f *fakeUpscaler) HasUpscaler() bool { return f.available }

func (f *fakeUpscaler) RunUpscaler(input []float32, height, width int) ([]float32, int, int, error) {
	f.gotH, f.gotW = height, width
	outH, outW := height*4, width*4
	out := make([]float32, 3*outH*outW)
	for c := 0; c < 3; c++ {
		for y := 0; y < outH; y++ {
			for x := 0; x < outW; x++ {
				out[c*outH*outW+y*outW+x] = input[c*height*width+(y/4)*width+(x/4)]
			}
		}
	}
	return out, outH, outW, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x % 256), uint8(y % 256), 40, 255})
		}
	}
	data, err := imageutil.EncodePNG(img)
	require.NoError(t, err)
	return data
}

func TestEnhanceQuadruplesDimensions(t *testing.T) {
	models := &fakeUpscaler{available: true}
	svc := NewService(models, zap.NewNop())

	out, err := svc.Enhance(pngBytes(t, 32, 20))
	require.NoError(t, err)

	img, err := imageutil.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
}

func TestEnhanceRejectsOversizedUpload(t *testing.T) {
	svc := NewService(&fakeUpscaler{available: true}, zap.NewNop())

	_, err := svc.Enhance(make([]byte, MaxUploadBytes+1))
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidInput, types.KindOf(err))
	assert.Equal(t, 413, types.HTTPStatusOf(err))
}

func TestEnhanceDownscalesLargeInputs(t *testing.T) {
	models := &fakeUpscaler{available: true}
	svc := NewService(models, zap.NewNop())

	out, err := svc.Enhance(pngBytes(t, 600, 450))
	require.NoError(t, err)

	// 600x450 clamps to 400x300 before the model runs.
	assert.Equal(t, 300, models.gotH)
	assert.Equal(t, 400, models.gotW)

	img, err := imageutil.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, 1600, img.Bounds().Dx())
	assert.Equal(t, 1200, img.Bounds().Dy())
}

func TestEnhanceUnavailableWithoutModel(t *testing.T) {
	svc := NewService(&fakeUpscaler{available: false}, zap.NewNop())

	_, err := svc.Enhance(pngBytes(t, 8, 8))
	require.Error(t, err)
	assert.Equal(t, types.ErrUnavailable, types.KindOf(err))
}

func TestEnhanceRejectsCorruptImage(t *testing.T) {
	svc := NewService(&fakeUpscaler{available: true}, zap.NewNop())

	_, err := svc.Enhance([]byte("garbage"))
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidInput, types.KindOf(err))
}

func TestClampSizePreservesAspectRatio(t *testing.T) {
	tall := image.NewNRGBA(image.Rect(0, 0, 200, 1000))
	clamped := clampSize(tall)
	assert.Equal(t, 80, clamped.Bounds().Dx())
	assert.Equal(t, 400, clamped.Bounds().Dy())

	small := image.NewNRGBA(image.Rect(0, 0, 100, 50))
	assert.Equal(t, 100, clampSize(small).Bounds().Dx())
	assert.Equal(t, 50, clampSize(small).Bounds().Dy())
}
