package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateExtractor_Gemini(t *testing.T) {
	for _, provider := range []string{"", "gemini"} {
		extractor, err := CreateExtractor(ExtractorConfig{
			Provider:       provider,
			GeminiAPIKey:   "test-key",
			GeminiModel:    "gemini-2.5-flash",
			EmbeddingModel: "text-embedding-004",
		})

		require.NoError(t, err)
		assert.Equal(t, "gemini", extractor.GetProviderName())
	}
}

func TestCreateExtractor_UnsupportedProvider(t *testing.T) {
	_, err := CreateExtractor(ExtractorConfig{Provider: "mistral"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported AI provider")
}
