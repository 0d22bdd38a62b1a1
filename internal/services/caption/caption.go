// Package caption produces a short natural-language description of an image
// by feeding backbone features into an autoregressive decoder and greedily
// picking the most likely word at each step.
package caption

import (
	"image"
	"strings"

	"github.com/creaza/ai-service/internal/model"
	"github.com/creaza/ai-service/internal/types"
	"github.com/creaza/ai-service/internal/utils/imageutil"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const (
	// maxWords bounds the greedy decode loop.
	maxWords = 20

	startToken   = "startseq"
	endToken     = "endseq"
	unknownToken = "<unk>"

	// Placeholder returned instead of an error when decoding goes sideways
	// after the models themselves loaded fine.
	Placeholder = "Unable to generate caption"
)

// backboneMean is the per-channel BGR mean the feature extractor was trained
// with.
var backboneMean = [3]float32{103.939, 116.779, 123.68}

// ModelSource is the slice of the model manager this pipeline needs.
type ModelSource interface {
	HasCaptioner() bool
	RunBackbone(input []float32) ([]float32, error)
	RunDecoder(features []float32, sequence []int64) ([]float32, error)
	Vocabulary() []string
}

type Service struct {
	models ModelSource
	logger *zap.Logger
}

func NewService(models ModelSource, logger *zap.Logger) *Service {
	return &Service{models: models, logger: logger.Named("caption")}
}

// Generate captions the given image bytes. Missing models surface as an
// unavailable error and malformed images as invalid input. Anything that goes
// wrong during inference itself degrades to the placeholder caption.
func (s *Service) Generate(data []byte) (string, error) {
	if !s.models.HasCaptioner() {
		return "", types.NewError(types.ErrUnavailable, "caption model not available")
	}

	img, err := imageutil.Decode(data)
	if err != nil {
		return "", err
	}

	features, err := s.models.RunBackbone(backboneInput(img))
	if err != nil {
		s.logger.Warn("feature extraction failed", zap.Error(err))
		return Placeholder, nil
	}

	words, err := s.decode(features)
	if err != nil || len(words) == 0 {
		if err != nil {
			s.logger.Warn("caption decode failed", zap.Error(err))
		}
		return Placeholder, nil
	}

	return polish(words), nil
}

// decode runs the greedy loop: seed with the start token, repeatedly take the
// argmax of the decoder output, and stop on the end token or the word limit.
func (s *Service) decode(features []float32) ([]string, error) {
	vocab := s.models.Vocabulary()
	sequence := []int64{tokenID(vocab, startToken)}

	var words []string
	for i := 0; i < maxWords; i++ {
		logits, err := s.models.RunDecoder(features, sequence)
		if err != nil {
			return nil, err
		}

		id := argmax(logits)
		if id < 0 {
			break
		}
		word := wordAt(vocab, id)
		if word == endToken {
			break
		}

		sequence = append(sequence, int64(id))
		if word == startToken {
			continue
		}
		words = append(words, word)
	}

	return words, nil
}

// polish turns the raw word list into sentence case with a trailing period.
func polish(words []string) string {
	sentence := strings.Join(words, " ")
	sentence = strings.ToLower(sentence)
	return strings.ToUpper(sentence[:1]) + sentence[1:] + "."
}

// tokenID finds a token in the vocabulary, falling back to the conventional
// start id when the vocabulary does not list it.
func tokenID(vocab []string, token string) int64 {
	for i, w := range vocab {
		if w == token {
			return int64(i)
		}
	}
	return 1
}

func wordAt(vocab []string, id int) string {
	if id < 0 || id >= len(vocab) {
		return unknownToken
	}
	if w := vocab[id]; w != "" {
		return w
	}
	return unknownToken
}

func argmax(logits []float32) int {
	if len(logits) == 0 {
		return -1
	}
	best := 0
	for i, v := range logits {
		if v > logits[best] {
			best = i
		}
	}
	return best
}

// backboneInput resizes to the backbone's square input, swaps to BGR and
// subtracts the channel means. Layout is NCHW.
func backboneInput(img image.Image) []float32 {
	size := model.BackboneSize
	resized := imaging.Resize(img, size, size, imaging.Lanczos)

	out := make([]float32, 3*size*size)
	bBase, gBase, rBase := 0, size*size, 2*size*size
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := resized.NRGBAAt(x, y)
			out[bBase] = float32(c.B) - backboneMean[0]
			out[gBase] = float32(c.G) - backboneMean[1]
			out[rBase] = float32(c.R) - backboneMean[2]
			bBase++
			gBase++
			rBase++
		}
	}
	return out
}
