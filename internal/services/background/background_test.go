package background

import (
	"image"
	"image/color"
	"testing"

	"github.com/creaza/ai-service/internal/model"
	"github.com/creaza/ai-service/internal/types"
	"github.com/creaza/ai-service/internal/utils/imageutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSegmenter returns a constant-value mask.
type fakeSegmenter struct {
	available bool
	value     float32
}

func (f *fakeSegmenter) HasSegmenter() bool { return f.available }

func (f *fakeSegmenter) RunSegmenter(input []float32) ([]float32, error) {
	out := make([]float32, model.SegmenterSize*model.SegmenterSize)
	for i := range out {
		out[i] = f.value
	}
	// A single differing value keeps min-max normalization meaningful.
	out[0] = f.value - 1
	return out, nil
}

func testImageBytes(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	data, err := imageutil.EncodePNG(img)
	require.NoError(t, err)
	return data
}

func TestRecolorRejectsMalformedColors(t *testing.T) {
	svc := NewService(&fakeSegmenter{available: false}, zap.NewNop())
	data := testImageBytes(t, 4, 4, color.NRGBA{255, 0, 0, 255})

	for _, bad := range []string{"", "#FFF", "red", "#GGHHII", "1234567"} {
		_, err := svc.Recolor(data, bad)
		require.Error(t, err, bad)
		// Malformed input is a client error even when the model is missing.
		assert.Equal(t, types.ErrInvalidInput, types.KindOf(err), bad)
	}
}

func TestRecolorAcceptsValidColors(t *testing.T) {
	svc := NewService(&fakeSegmenter{available: true, value: 1}, zap.NewNop())
	data := testImageBytes(t, 8, 8, color.NRGBA{10, 20, 30, 255})

	for _, good := range []string{"#FF0000", "00ff00", "ABCDEF"} {
		out, err := svc.Recolor(data, good)
		require.NoError(t, err, good)
		assert.NotEmpty(t, out, good)
	}
}

func TestPipelinesUnavailableWithoutSegmenter(t *testing.T) {
	svc := NewService(&fakeSegmenter{available: false}, zap.NewNop())
	data := testImageBytes(t, 4, 4, color.NRGBA{255, 0, 0, 255})

	_, err := svc.Remove(data)
	assert.Equal(t, types.ErrUnavailable, types.KindOf(err))
	_, err = svc.Blur(data)
	assert.Equal(t, types.ErrUnavailable, types.KindOf(err))
	_, err = svc.Replace(data, data)
	assert.Equal(t, types.ErrUnavailable, types.KindOf(err))
}

func TestPipelinesRejectCorruptImages(t *testing.T) {
	svc := NewService(&fakeSegmenter{available: true, value: 1}, zap.NewNop())

	_, err := svc.Remove([]byte("garbage"))
	assert.Equal(t, types.ErrInvalidInput, types.KindOf(err))
}

func TestReplaceStretchesBackgroundToForegroundSize(t *testing.T) {
	svc := NewService(&fakeSegmenter{available: true, value: 1}, zap.NewNop())
	fg := testImageBytes(t, 16, 12, color.NRGBA{1, 2, 3, 255})
	bg := testImageBytes(t, 100, 7, color.NRGBA{200, 200, 200, 255})

	out, err := svc.Replace(fg, bg)
	require.NoError(t, err)

	img, err := imageutil.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 12, img.Bounds().Dy())
}

func TestBlendWithMaskExtremes(t *testing.T) {
	b := image.Rect(0, 0, 3, 3)
	original := image.NewNRGBA(b)
	blurred := image.NewNRGBA(b)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			original.SetNRGBA(x, y, color.NRGBA{200, 100, 50, 255})
			blurred.SetNRGBA(x, y, color.NRGBA{10, 20, 30, 255})
		}
	}

	full := image.NewGray(b)
	zero := image.NewGray(b)
	for i := range full.Pix {
		full.Pix[i] = 255
	}

	keep := BlendWithMask(original, blurred, full)
	assert.Equal(t, color.NRGBA{200, 100, 50, 255}, keep.NRGBAAt(1, 1))

	replaced := BlendWithMask(original, blurred, zero)
	assert.Equal(t, color.NRGBA{10, 20, 30, 255}, replaced.NRGBAAt(1, 1))
}

func TestBlendWithMaskMidpoint(t *testing.T) {
	b := image.Rect(0, 0, 1, 1)
	original := image.NewNRGBA(b)
	blurred := image.NewNRGBA(b)
	original.SetNRGBA(0, 0, color.NRGBA{200, 0, 0, 255})
	blurred.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 255})

	half := image.NewGray(b)
	half.Pix[0] = 128

	out := BlendWithMask(original, blurred, half)
	got := out.NRGBAAt(0, 0).R
	assert.InDelta(t, 100, int(got), 2)
}
