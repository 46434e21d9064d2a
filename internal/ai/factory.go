// factory.go - Extraction provider factory

package ai

import (
	"fmt"
	"log"
)

// CreateExtractor creates an extraction provider based on configuration
func CreateExtractor(cfg ExtractorConfig) (Extractor, error) {
	switch cfg.Provider {
	case "", "gemini":
		extractor := NewGeminiExtractor(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.EmbeddingModel)
		log.Printf("🔵 Created %s extraction provider (model: %s)", extractor.GetProviderName(), cfg.GeminiModel)
		return extractor, nil

	default:
		return nil, fmt.Errorf("unsupported AI provider: %s (supported: gemini)", cfg.Provider)
	}
}
