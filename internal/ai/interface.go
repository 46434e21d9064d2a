// interface.go - Extraction provider interface so the pipeline can swap AI backends

package ai

import (
	"context"

	"github.com/bosocmputer/tax_recon_ai/internal/common"
	"github.com/bosocmputer/tax_recon_ai/internal/storage"
)

// Content types the classifier can assign to a page
const (
	ContentTypeInvoice       = "Invoice"
	ContentTypeTaxInvoice    = "TaxInvoice"
	ContentTypeGeneralLedger = "GeneralLedger"
	ContentTypeUnknown       = "Unknown"
)

// Classification is the classifier's verdict for one page of extracted text.
// IsDocumentComplete is meaningful only for TaxInvoice pages; other content
// types are always complete.
type Classification struct {
	ContentType        string `json:"contentType"`
	IsDocumentComplete bool   `json:"isDocumentComplete"`
}

// Extractor defines the AI operations the pipeline depends on
type Extractor interface {
	// Classify tags page text with a content type and completeness flag
	Classify(ctx context.Context, text string, reqCtx *common.RequestContext) (*Classification, error)

	// ExtractInvoice pulls a structured invoice record out of document text
	ExtractInvoice(ctx context.Context, text string, reqCtx *common.RequestContext) (*storage.Invoice, error)

	// ExtractTaxInvoice pulls a structured tax invoice (with line items) out of document text
	ExtractTaxInvoice(ctx context.Context, text string, reqCtx *common.RequestContext) (*storage.TaxInvoice, error)

	// ExtractGL pulls a structured general-ledger posting out of document text
	ExtractGL(ctx context.Context, text string, reqCtx *common.RequestContext) (*storage.GLTransaction, error)

	// Embed converts free text into an embedding vector for similarity search
	Embed(ctx context.Context, text string) ([]float64, error)

	// GetProviderName returns the name of the provider (e.g., "gemini")
	GetProviderName() string
}

// ExtractorConfig contains configuration for extraction providers
type ExtractorConfig struct {
	// Provider name: currently only "gemini"
	Provider string

	GeminiAPIKey   string
	GeminiModel    string
	EmbeddingModel string
}
