// gemini.go - Gemini-backed classification, structured extraction, and embeddings

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/bosocmputer/tax_recon_ai/internal/common"
	"github.com/bosocmputer/tax_recon_ai/internal/ratelimit"
	"github.com/bosocmputer/tax_recon_ai/internal/storage"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiExtractor implements Extractor on top of the Gemini API
type GeminiExtractor struct {
	apiKey         string
	modelName      string
	embeddingModel string
}

// NewGeminiExtractor creates a Gemini-backed extraction provider
func NewGeminiExtractor(apiKey, modelName, embeddingModel string) *GeminiExtractor {
	return &GeminiExtractor{
		apiKey:         apiKey,
		modelName:      modelName,
		embeddingModel: embeddingModel,
	}
}

// GetProviderName returns the name of the provider
func (g *GeminiExtractor) GetProviderName() string {
	return "gemini"
}

// Classify tags page text with a content type and completeness flag
func (g *GeminiExtractor) Classify(ctx context.Context, text string, reqCtx *common.RequestContext) (*Classification, error) {
	raw, err := g.generateJSON(ctx, GetClassificationPrompt(text), reqCtx)
	if err != nil {
		return nil, fmt.Errorf("classification call failed: %w", err)
	}

	var result Classification
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to parse classification response: %w", err)
	}

	switch result.ContentType {
	case ContentTypeInvoice, ContentTypeTaxInvoice, ContentTypeGeneralLedger:
		// recognized
	default:
		reqCtx.LogWarning("Unrecognized content type %q, treating as Unknown", result.ContentType)
		result.ContentType = ContentTypeUnknown
		result.IsDocumentComplete = true
	}

	// Completeness only applies to multi-page tax invoices
	if result.ContentType != ContentTypeTaxInvoice {
		result.IsDocumentComplete = true
	}

	reqCtx.LogInfo("📋 Classified as %s (complete: %v)", result.ContentType, result.IsDocumentComplete)
	return &result, nil
}

// ExtractInvoice pulls a structured invoice record out of document text
func (g *GeminiExtractor) ExtractInvoice(ctx context.Context, text string, reqCtx *common.RequestContext) (*storage.Invoice, error) {
	raw, err := g.generateJSON(ctx, GetInvoiceExtractionPrompt(text), reqCtx)
	if err != nil {
		return nil, fmt.Errorf("invoice extraction call failed: %w", err)
	}

	var record storage.Invoice
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("failed to parse invoice response: %w", err)
	}
	return &record, nil
}

// ExtractTaxInvoice pulls a structured tax invoice (with line items) out of
// document text. The text may contain page-break markers for merged pages.
func (g *GeminiExtractor) ExtractTaxInvoice(ctx context.Context, text string, reqCtx *common.RequestContext) (*storage.TaxInvoice, error) {
	raw, err := g.generateJSON(ctx, GetTaxInvoiceExtractionPrompt(text), reqCtx)
	if err != nil {
		return nil, fmt.Errorf("tax invoice extraction call failed: %w", err)
	}

	var record storage.TaxInvoice
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("failed to parse tax invoice response: %w", err)
	}
	if record.Details == nil {
		record.Details = []storage.TaxInvoiceDetail{}
	}
	return &record, nil
}

// ExtractGL pulls a structured general-ledger posting out of document text
func (g *GeminiExtractor) ExtractGL(ctx context.Context, text string, reqCtx *common.RequestContext) (*storage.GLTransaction, error) {
	raw, err := g.generateJSON(ctx, GetGLExtractionPrompt(text), reqCtx)
	if err != nil {
		return nil, fmt.Errorf("GL extraction call failed: %w", err)
	}

	var record storage.GLTransaction
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("failed to parse GL response: %w", err)
	}
	return &record, nil
}

// Embed converts free text into an embedding vector
func (g *GeminiExtractor) Embed(ctx context.Context, text string) ([]float64, error) {
	ratelimit.WaitForRateLimit()

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	em := client.EmbeddingModel(g.embeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		if gemErr := categorizeGeminiError(err); gemErr != nil {
			return nil, fmt.Errorf("%s (technical: %w)", userFacingHint(gemErr), gemErr)
		}
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding response contained no values")
	}

	vector := make([]float64, len(res.Embedding.Values))
	for i, v := range res.Embedding.Values {
		vector[i] = float64(v)
	}
	return vector, nil
}

// generateJSON runs one JSON-mode generation call and returns the cleaned
// response body, logging token usage into the request context.
func (g *GeminiExtractor) generateJSON(ctx context.Context, prompt string, reqCtx *common.RequestContext) (string, error) {
	ratelimit.WaitForRateLimit()

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.modelName)
	model.ResponseMIMEType = "application/json"

	resp, err := callGeminiWithRetry(ctx, model, reqCtx, DefaultRetryConfig, genai.Text(prompt))
	if err != nil {
		if gemErr, ok := err.(*GeminiError); ok {
			return "", fmt.Errorf("%s (technical: %w)", userFacingHint(gemErr), gemErr)
		}
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from Gemini API")
	}

	var jsonResponse string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			jsonResponse = string(text)
			break
		}
	}
	if jsonResponse == "" {
		return "", fmt.Errorf("empty response from Gemini API")
	}

	if resp.UsageMetadata != nil {
		usage := common.CalculateTokenCost(int(resp.UsageMetadata.PromptTokenCount), int(resp.UsageMetadata.CandidatesTokenCount))
		reqCtx.AddTokenUsage(&usage)
		reqCtx.LogInfo("💰 Tokens: %d in / %d out ($%.6f)", usage.InputTokens, usage.OutputTokens, usage.CostUSD)
	}

	return fixJSONEscaping(stripJSONFence(jsonResponse)), nil
}

// stripJSONFence removes a markdown code fence the model sometimes wraps
// around JSON output despite the response MIME type.
func stripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

var jsonStringRe = regexp.MustCompile(`"([^"]*(?:\\.[^"]*)*)"`)

// fixJSONEscaping repairs literal control characters the model sometimes
// leaves inside JSON string values, which Go's parser rejects.
func fixJSONEscaping(jsonStr string) string {
	return jsonStringRe.ReplaceAllStringFunc(jsonStr, func(match string) string {
		if len(match) < 2 {
			return match
		}
		content := match[1 : len(match)-1]

		// Backslash-space is never a valid escape; fix it before the rest
		content = strings.ReplaceAll(content, "\\ ", "\\\\ ")
		content = strings.ReplaceAll(content, "\n", "\\n")
		content = strings.ReplaceAll(content, "\r", "\\r")
		content = strings.ReplaceAll(content, "\t", "\\t")
		content = strings.ReplaceAll(content, "\f", "\\f")
		content = strings.ReplaceAll(content, "\b", "\\b")

		var builder strings.Builder
		for _, ch := range content {
			if ch < 0x20 {
				builder.WriteString(fmt.Sprintf("\\u%04x", ch))
			} else {
				builder.WriteRune(ch)
			}
		}
		return `"` + builder.String() + `"`
	})
}
