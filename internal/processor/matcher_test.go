package processor

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bosocmputer/tax_recon_ai/internal/common"
	"github.com/bosocmputer/tax_recon_ai/internal/storage"
)

type fakeReconStore struct {
	taxInvoices []storage.TaxInvoice
	vendorIDs   []string
	candidates  map[string][]storage.VendorCandidate
	updates     map[string][]storage.TaxInvoiceDetail
	updateErr   error
}

func (f *fakeReconStore) TaxInvoicesByURN(ctx context.Context, urn string) ([]storage.TaxInvoice, error) {
	return f.taxInvoices, nil
}

func (f *fakeReconStore) DistinctVendorIDs(ctx context.Context, urn string) ([]string, error) {
	return f.vendorIDs, nil
}

func (f *fakeReconStore) SearchVendorReferences(ctx context.Context, vector []float64, vendorID string, topK int) ([]storage.VendorCandidate, error) {
	out := f.candidates[vendorID]
	if topK < len(out) {
		out = out[:topK]
	}
	return out, nil
}

func (f *fakeReconStore) UpdateTaxInvoiceDetails(ctx context.Context, id string, details []storage.TaxInvoiceDetail) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.updates == nil {
		f.updates = map[string][]storage.TaxInvoiceDetail{}
	}
	f.updates[id] = details
	return nil
}

// embedFailExtractor fails Embed for a chosen description
type embedFailExtractor struct {
	fakeExtractor
	failText string
}

func (e *embedFailExtractor) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == e.failText {
		return nil, fmt.Errorf("embedding service unavailable")
	}
	return []float64{0.5}, nil
}

func candidate(vendorID, refID, desc, taxID string, distance float64) storage.VendorCandidate {
	return storage.VendorCandidate{
		Reference: storage.VendorTaxReference{
			ReferenceID: refID,
			VendorID:    vendorID,
			Description: desc,
			TaxID:       taxID,
		},
		Distance: distance,
	}
}

func singleInvoice(descriptions ...string) []storage.TaxInvoice {
	details := make([]storage.TaxInvoiceDetail, len(descriptions))
	for i, d := range descriptions {
		details[i] = storage.TaxInvoiceDetail{No: i + 1, Description: d}
	}
	return []storage.TaxInvoice{{ID: "ti-1", URN: "URN-7", Details: details}}
}

func TestReconcile_PicksNearestAcrossVendors(t *testing.T) {
	store := &fakeReconStore{
		taxInvoices: singleInvoice("office chairs"),
		vendorIDs:   []string{"V1", "V2"},
		candidates: map[string][]storage.VendorCandidate{
			"V1": {
				candidate("V1", "R1", "office furniture", "TX-1", 0.25),
				candidate("V1", "R2", "office supplies", "TX-2", 0.40),
			},
			"V2": {
				candidate("V2", "R3", "ergonomic chairs", "TX-3", 0.12),
			},
		},
	}

	reqCtx := common.NewRequestContext("", "URN-7")
	summary, err := NewMatcher(store, &fakeExtractor{}, 3).
		Reconcile(context.Background(), "URN-7", reqCtx)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.MatchedItems)
	assert.Equal(t, 0, summary.UnmatchedItems)

	// The pass leaves step timings behind for the response summary
	require.Len(t, reqCtx.Steps, 2)
	assert.Equal(t, "load reconciliation inputs", reqCtx.Steps[0].Name)
	assert.Equal(t, "match line items", reqCtx.Steps[1].Name)
	assert.Equal(t, "success", reqCtx.Steps[1].Status)

	details := store.updates["ti-1"]
	require.Len(t, details, 1)
	assert.Equal(t, "ergonomic chairs", details[0].MatchedDesc)
	assert.Equal(t, "TX-3", details[0].MatchedTaxID)
	assert.Equal(t, "V2", details[0].MatchedVendorID)
	assert.Equal(t, "R3", details[0].ReferenceID)
	require.NotNil(t, details[0].SimilarityScore)
	assert.Equal(t, 0.12, *details[0].SimilarityScore)
}

func TestReconcile_NoVendorsMeansNoMatches(t *testing.T) {
	store := &fakeReconStore{
		taxInvoices: singleInvoice("anything"),
		vendorIDs:   nil,
	}

	summary, err := NewMatcher(store, &fakeExtractor{}, 3).
		Reconcile(context.Background(), "URN-7", common.NewRequestContext("", "URN-7"))

	require.NoError(t, err)
	assert.Equal(t, 1, summary.UnmatchedItems)
	assert.Equal(t, 0, summary.MatchedItems)
	assert.Empty(t, store.updates)
}

func TestReconcile_EmbedFailureYieldsUnmatchedItem(t *testing.T) {
	store := &fakeReconStore{
		taxInvoices: singleInvoice("broken item", "good item"),
		vendorIDs:   []string{"V1"},
		candidates: map[string][]storage.VendorCandidate{
			"V1": {candidate("V1", "R1", "good item ref", "TX-1", 0.2)},
		},
	}
	extractor := &embedFailExtractor{failText: "broken item"}

	summary, err := NewMatcher(store, extractor, 3).
		Reconcile(context.Background(), "URN-7", common.NewRequestContext("", "URN-7"))

	require.NoError(t, err)
	assert.Equal(t, 1, summary.FailedItems)
	assert.Equal(t, 1, summary.MatchedItems)
	assert.Equal(t, 2, summary.LineItems)

	// The failed item carries no match fields
	details := store.updates["ti-1"]
	require.Len(t, details, 2)
	assert.Empty(t, details[0].MatchedDesc)
	assert.Nil(t, details[0].SimilarityScore)
	assert.Equal(t, "R1", details[1].ReferenceID)
}

func TestReconcile_UpdateFailureIsFatal(t *testing.T) {
	store := &fakeReconStore{
		taxInvoices: singleInvoice("office chairs"),
		vendorIDs:   []string{"V1"},
		candidates: map[string][]storage.VendorCandidate{
			"V1": {candidate("V1", "R1", "chairs", "TX-1", 0.2)},
		},
		updateErr: fmt.Errorf("write concern failed"),
	}

	_, err := NewMatcher(store, &fakeExtractor{}, 3).
		Reconcile(context.Background(), "URN-7", common.NewRequestContext("", "URN-7"))

	var pErr *PersistenceError
	require.ErrorAs(t, err, &pErr)
}

func TestReconcile_EmptyDescriptionStaysUnmatched(t *testing.T) {
	store := &fakeReconStore{
		taxInvoices: singleInvoice(""),
		vendorIDs:   []string{"V1"},
		candidates: map[string][]storage.VendorCandidate{
			"V1": {candidate("V1", "R1", "something", "TX-1", 0.1)},
		},
	}

	summary, err := NewMatcher(store, &fakeExtractor{}, 3).
		Reconcile(context.Background(), "URN-7", common.NewRequestContext("", "URN-7"))

	require.NoError(t, err)
	assert.Equal(t, 1, summary.UnmatchedItems)
	assert.Equal(t, 0, summary.FailedItems)
}
