// matcher.go - Reconciles tax invoice line items against the vendor tax-reference catalog

package processor

import (
	"context"
	"sort"

	"github.com/bosocmputer/tax_recon_ai/internal/ai"
	"github.com/bosocmputer/tax_recon_ai/internal/common"
	"github.com/bosocmputer/tax_recon_ai/internal/storage"
)

// ReconStore is the persistence surface reconciliation needs
type ReconStore interface {
	TaxInvoicesByURN(ctx context.Context, urn string) ([]storage.TaxInvoice, error)
	DistinctVendorIDs(ctx context.Context, urn string) ([]string, error)
	SearchVendorReferences(ctx context.Context, vector []float64, vendorID string, topK int) ([]storage.VendorCandidate, error)
	UpdateTaxInvoiceDetails(ctx context.Context, id string, details []storage.TaxInvoiceDetail) error
}

// Matcher pairs free-text line-item descriptions with vendor tax references
// using nearest-neighbor search over embeddings.
type Matcher struct {
	store     ReconStore
	extractor ai.Extractor
	topK      int
}

// NewMatcher creates a reconciliation matcher. topK bounds the candidates
// taken per vendor before the cross-vendor merge.
func NewMatcher(store ReconStore, extractor ai.Extractor, topK int) *Matcher {
	if topK <= 0 {
		topK = 3
	}
	return &Matcher{store: store, extractor: extractor, topK: topK}
}

// ReconcileSummary reports what one reconciliation pass accomplished
type ReconcileSummary struct {
	TaxInvoices    int `json:"taxInvoices"`
	LineItems      int `json:"lineItems"`
	MatchedItems   int `json:"matchedItems"`
	UnmatchedItems int `json:"unmatchedItems"`
	FailedItems    int `json:"failedItems"`
}

// Reconcile matches every line item of every tax invoice under the URN
// against the tax references of the URN's GL vendors. Per-item failures
// yield unmatched items; loading or persisting records fails the pass.
func (m *Matcher) Reconcile(ctx context.Context, urn string, reqCtx *common.RequestContext) (*ReconcileSummary, error) {
	reqCtx.StartStep("load reconciliation inputs")
	taxInvoices, err := m.store.TaxInvoicesByURN(ctx, urn)
	if err != nil {
		loadErr := &PersistenceError{Op: "load tax invoices", Err: err}
		reqCtx.EndStep("failed", nil, loadErr)
		return nil, loadErr
	}

	vendorIDs, err := m.store.DistinctVendorIDs(ctx, urn)
	if err != nil {
		loadErr := &PersistenceError{Op: "load GL vendors", Err: err}
		reqCtx.EndStep("failed", nil, loadErr)
		return nil, loadErr
	}
	reqCtx.EndStep("success", nil, nil)

	reqCtx.LogInfo("🔗 Reconciling URN %s: %d tax invoices against %d vendors", urn, len(taxInvoices), len(vendorIDs))

	summary := &ReconcileSummary{TaxInvoices: len(taxInvoices)}
	reqCtx.StartStep("match line items")

	for i := range taxInvoices {
		invoice := &taxInvoices[i]
		changed := false

		for j := range invoice.Details {
			if ctx.Err() != nil {
				reqCtx.EndStep("failed", nil, ctx.Err())
				return summary, ctx.Err()
			}

			detail := &invoice.Details[j]
			summary.LineItems++

			best, err := m.bestCandidate(ctx, detail.Description, vendorIDs)
			if err != nil {
				matchErr := &MatchingError{Description: detail.Description, Err: err}
				reqCtx.LogWarning("%v", matchErr)
				summary.FailedItems++
				summary.UnmatchedItems++
				continue
			}
			if best == nil {
				summary.UnmatchedItems++
				continue
			}

			detail.MatchedDesc = best.Reference.Description
			detail.MatchedTaxID = best.Reference.TaxID
			detail.MatchedVendorID = best.Reference.VendorID
			detail.ReferenceID = best.Reference.ReferenceID
			distance := best.Distance
			detail.SimilarityScore = &distance
			changed = true
			summary.MatchedItems++
		}

		if changed {
			if err := m.store.UpdateTaxInvoiceDetails(ctx, invoice.ID, invoice.Details); err != nil {
				updErr := &PersistenceError{Op: "update tax invoice details", Err: err}
				reqCtx.EndStep("failed", nil, updErr)
				return summary, updErr
			}
		}
	}
	reqCtx.EndStep("success", nil, nil)

	reqCtx.LogInfo("✅ Reconciliation done: %d/%d line items matched", summary.MatchedItems, summary.LineItems)
	return summary, nil
}

// bestCandidate embeds the description, searches each vendor's references,
// and returns the globally nearest candidate. nil with no error means no
// vendor had any reference.
func (m *Matcher) bestCandidate(ctx context.Context, description string, vendorIDs []string) (*storage.VendorCandidate, error) {
	if description == "" || len(vendorIDs) == 0 {
		return nil, nil
	}

	vector, err := m.extractor.Embed(ctx, description)
	if err != nil {
		return nil, err
	}

	var merged []storage.VendorCandidate
	for _, vendorID := range vendorIDs {
		candidates, err := m.store.SearchVendorReferences(ctx, vector, vendorID, m.topK)
		if err != nil {
			return nil, err
		}
		merged = append(merged, candidates...)
	}
	if len(merged) == 0 {
		return nil, nil
	}

	// Lower distance means more similar
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Distance < merged[j].Distance
	})
	return &merged[0], nil
}
