package caption

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/creaza/ai-service/internal/types"
	"github.com/creaza/ai-service/internal/utils/imageutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeModels scripts the decoder: step N returns logits that put the argmax
// on script[N].
type fakeModels struct {
	available   bool
	vocab       []string
	script      []int
	step        int
	backboneErr error
	decoderErr  error
}

func (f *fakeModels) HasCaptioner() bool   { return f.available }
func (f *fakeModels) Vocabulary() []string { return f.vocab }

func (f *fakeModels) RunBackbone(input []float32) ([]float32, error) {
	if f.backboneErr != nil {
		return nil, f.backboneErr
	}
	return make([]float32, 4096), nil
}

func (f *fakeModels) RunDecoder(features []float32, sequence []int64) ([]float32, error) {
	if f.decoderErr != nil {
		return nil, f.decoderErr
	}
	logits := make([]float32, len(f.vocab))
	if f.step < len(f.script) {
		logits[f.script[f.step]] = 1
	}
	f.step++
	return logits, nil
}

func testImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	data, err := imageutil.EncodePNG(img)
	require.NoError(t, err)
	return data
}

var testVocab = []string{"<pad>", "startseq", "endseq", "dog", "runs", "fast"}

func TestGenerateGreedyDecode(t *testing.T) {
	models := &fakeModels{
		available: true,
		vocab:     testVocab,
		script:    []int{3, 4, 5, 2}, // dog runs fast endseq
	}
	svc := NewService(models, zap.NewNop())

	got, err := svc.Generate(testImage(t))
	require.NoError(t, err)
	assert.Equal(t, "Dog runs fast.", got)
}

func TestGenerateStopsAtWordLimit(t *testing.T) {
	script := make([]int, maxWords+5)
	for i := range script {
		script[i] = 3 // never emits endseq
	}
	models := &fakeModels{available: true, vocab: testVocab, script: script}
	svc := NewService(models, zap.NewNop())

	got, err := svc.Generate(testImage(t))
	require.NoError(t, err)
	// maxWords decoder steps, "dog" each time.
	assert.Equal(t, maxWords, models.step)
	assert.NotContains(t, got, startToken)
	assert.NotContains(t, got, endToken)
}

func TestGenerateUnavailableWithoutModels(t *testing.T) {
	svc := NewService(&fakeModels{available: false}, zap.NewNop())

	_, err := svc.Generate(testImage(t))
	require.Error(t, err)
	assert.Equal(t, types.ErrUnavailable, types.KindOf(err))
}

func TestGenerateRejectsCorruptImage(t *testing.T) {
	svc := NewService(&fakeModels{available: true, vocab: testVocab}, zap.NewNop())

	_, err := svc.Generate([]byte("not an image"))
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidInput, types.KindOf(err))
}

func TestGenerateFallsBackOnInferenceFailure(t *testing.T) {
	backboneBroken := &fakeModels{
		available:   true,
		vocab:       testVocab,
		backboneErr: errors.New("session died"),
	}
	got, err := NewService(backboneBroken, zap.NewNop()).Generate(testImage(t))
	require.NoError(t, err)
	assert.Equal(t, Placeholder, got)

	decoderBroken := &fakeModels{
		available:  true,
		vocab:      testVocab,
		decoderErr: errors.New("session died"),
	}
	got, err = NewService(decoderBroken, zap.NewNop()).Generate(testImage(t))
	require.NoError(t, err)
	assert.Equal(t, Placeholder, got)
}

func TestGenerateFallsBackOnEmptyCaption(t *testing.T) {
	// Decoder immediately predicts endseq.
	models := &fakeModels{available: true, vocab: testVocab, script: []int{2}}
	got, err := NewService(models, zap.NewNop()).Generate(testImage(t))
	require.NoError(t, err)
	assert.Equal(t, Placeholder, got)
}

func TestUnknownTokenSubstitution(t *testing.T) {
	assert.Equal(t, unknownToken, wordAt(testVocab, -1))
	assert.Equal(t, unknownToken, wordAt(testVocab, len(testVocab)))
	assert.Equal(t, "dog", wordAt(testVocab, 3))
}

func TestTokenIDFallsBackToOne(t *testing.T) {
	assert.Equal(t, int64(1), tokenID(testVocab, startToken))
	assert.Equal(t, int64(1), tokenID([]string{"a", "b"}, startToken))
}
