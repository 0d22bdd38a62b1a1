package artifacts

import (
	"testing"

	"github.com/creaza/ai-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSource(t *testing.T) {
	src, err := ParseSource("hf:someorg/somerepo")
	require.NoError(t, err)
	assert.Equal(t, SourceTypeHuggingFace, src.Type)
	assert.Equal(t, "someorg/somerepo", src.Location)

	src, err = ParseSource("https://example.com/model.onnx")
	require.NoError(t, err)
	assert.Equal(t, SourceTypeDirect, src.Type)

	_, err = ParseSource("ftp://example.com/model.onnx")
	require.Error(t, err)
}

func TestDefaultSourcesCoverAllArtifacts(t *testing.T) {
	for _, file := range []string{
		config.SegmenterFile,
		config.BackboneFile,
		config.DecoderFile,
		config.VocabularyFile,
		config.UpscalerFile,
	} {
		source, ok := DefaultSources[file]
		assert.True(t, ok, file)
		_, err := ParseSource(source)
		assert.NoError(t, err, file)
	}
}
