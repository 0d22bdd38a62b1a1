package artifacts

import (
	"fmt"
	"strings"

	"github.com/creaza/ai-service/internal/config"
)

const (
	SourceTypeHuggingFace = "huggingface"
	SourceTypeDirect      = "direct"
)

type Source struct {
	Type     string
	Location string
}

// DefaultSources maps each local model file to where it can be fetched from.
var DefaultSources = map[string]string{
	config.SegmenterFile:  "https://huggingface.co/tomjackson2023/rembg/resolve/main/u2net.onnx",
	config.BackboneFile:   "https://huggingface.co/creaza/image-captioning/resolve/main/vgg16_fc2.onnx",
	config.DecoderFile:    "https://huggingface.co/creaza/image-captioning/resolve/main/caption_decoder.onnx",
	config.VocabularyFile: "https://huggingface.co/creaza/image-captioning/resolve/main/vocabulary.txt",
	config.UpscalerFile:   "https://huggingface.co/wuminghao/LapSRN/resolve/main/LapSRN_x4.onnx",
}

// ParseSource classifies a source string. "hf:<repo>" pulls a whole
// repository through the hub client, anything starting with http downloads
// directly.
func ParseSource(source string) (*Source, error) {
	if strings.HasPrefix(source, "hf:") {
		return &Source{Type: SourceTypeHuggingFace, Location: strings.TrimPrefix(source, "hf:")}, nil
	}
	if strings.HasPrefix(source, "http") {
		return &Source{Type: SourceTypeDirect, Location: source}, nil
	}
	return nil, fmt.Errorf("unsupported artifact source: %s", source)
}
