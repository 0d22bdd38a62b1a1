package config

import "errors"

const (
	DefaultPort     = 8002
	DefaultHost     = "0.0.0.0"
	DefaultHomeName = ".creaza"

	DefaultTextToImageModel = "black-forest-labs/FLUX.1-schnell"
	DefaultInferenceBaseUrl = "https://api-inference.huggingface.co/models"
	DefaultOpenRouterUrl    = "https://openrouter.ai/api/v1"
)

// Standard artifact file names under the models directory.
const (
	SegmenterFile  = "u2net.onnx"
	BackboneFile   = "vgg16_fc2.onnx"
	DecoderFile    = "caption_decoder.onnx"
	VocabularyFile = "vocabulary.txt"
	UpscalerFile   = "LapSRN_x4.onnx"
)

var (
	ErrCreazaHomeNotSet = errors.New("creaza home directory is not set")
)
