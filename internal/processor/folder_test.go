package processor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bosocmputer/tax_recon_ai/internal/ai"
	"github.com/bosocmputer/tax_recon_ai/internal/analyzer"
	"github.com/bosocmputer/tax_recon_ai/internal/common"
	"github.com/bosocmputer/tax_recon_ai/internal/storage"
)

func TestNaturalLess(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"pdf_2.pdf", "pdf_10.pdf", true},
		{"pdf_10.pdf", "pdf_2.pdf", false},
		{"pdf_1.pdf", "pdf_2.pdf", true},
		{"page9.jpg", "page10.jpg", true},
		{"a.pdf", "b.pdf", true},
		{"scan_2_1.pdf", "scan_2_10.pdf", true},
		{"doc.pdf", "doc1.pdf", true},
		// Digit runs longer than any machine integer still order numerically
		{"pdf_" + strings.Repeat("9", 25) + ".pdf", "pdf_1" + strings.Repeat("0", 25) + ".pdf", true},
		{"pdf_1" + strings.Repeat("0", 25) + ".pdf", "pdf_" + strings.Repeat("9", 25) + ".pdf", false},
		// Leading zeros do not change the numeric value
		{"pdf_002.pdf", "pdf_2.pdf", false},
		{"pdf_2.pdf", "pdf_002.pdf", false},
		{"pdf_002.pdf", "pdf_10.pdf", true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NaturalLess(c.a, c.b), "%s < %s", c.a, c.b)
	}
}

func TestNaturalOrdering(t *testing.T) {
	files := []string{"pdf_10.pdf", "pdf_1.pdf", "pdf_21.pdf", "pdf_2.pdf", "pdf_3.pdf"}
	sort.Slice(files, func(i, j int) bool { return NaturalLess(files[i], files[j]) })

	assert.Equal(t, []string{"pdf_1.pdf", "pdf_2.pdf", "pdf_3.pdf", "pdf_10.pdf", "pdf_21.pdf"}, files)
}

// --- fakes ---

type fakeBlobStore struct {
	objects  []storage.BlobObject
	data     map[string][]byte
	uploads  []string
	listErr  error
}

func newFakeBlobStore(names ...string) *fakeBlobStore {
	f := &fakeBlobStore{data: map[string][]byte{}}
	for _, n := range names {
		ref := "batches/b1/" + n
		f.objects = append(f.objects, storage.BlobObject{Name: n, Ref: ref})
		f.data[ref] = []byte("fake bytes of " + n)
	}
	return f
}

func (f *fakeBlobStore) List(ctx context.Context, batchID string) ([]storage.BlobObject, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.objects, nil
}

func (f *fakeBlobStore) Download(ctx context.Context, ref string) ([]byte, error) {
	data, ok := f.data[ref]
	if !ok {
		return nil, fmt.Errorf("no such object: %s", ref)
	}
	return data, nil
}

func (f *fakeBlobStore) Upload(ctx context.Context, ref string, data []byte, contentType string) (string, error) {
	f.data[ref] = data
	f.uploads = append(f.uploads, ref)
	return ref, nil
}

// fakeAnalyzerClient echoes the file ref back as job ID and succeeds with a
// text derived from it, unless the ref is listed as failing.
type fakeAnalyzerClient struct {
	failRefs map[string]bool
}

func (f *fakeAnalyzerClient) Submit(ctx context.Context, fileRef string) (string, error) {
	return fileRef, nil
}

func (f *fakeAnalyzerClient) Poll(ctx context.Context, jobID string) (*analyzer.JobStatus, error) {
	if f.failRefs[jobID] {
		return &analyzer.JobStatus{Status: analyzer.StatusAnalyzeError, Message: "unreadable"}, nil
	}
	return &analyzer.JobStatus{Status: analyzer.StatusSucceeded, Content: "text of " + jobID}, nil
}

// fakeExtractor classifies by looking up the page text and records what it extracts
type fakeExtractor struct {
	classifications  map[string]ai.Classification
	taxInvoiceTexts  []string
}

func (f *fakeExtractor) Classify(ctx context.Context, text string, reqCtx *common.RequestContext) (*ai.Classification, error) {
	c, ok := f.classifications[text]
	if !ok {
		return &ai.Classification{ContentType: ai.ContentTypeUnknown, IsDocumentComplete: true}, nil
	}
	return &c, nil
}

func (f *fakeExtractor) ExtractInvoice(ctx context.Context, text string, reqCtx *common.RequestContext) (*storage.Invoice, error) {
	return &storage.Invoice{InvoiceNumber: "INV-001"}, nil
}

func (f *fakeExtractor) ExtractTaxInvoice(ctx context.Context, text string, reqCtx *common.RequestContext) (*storage.TaxInvoice, error) {
	f.taxInvoiceTexts = append(f.taxInvoiceTexts, text)
	return &storage.TaxInvoice{TaxInvoiceNumber: "TAX-001", Details: []storage.TaxInvoiceDetail{}}, nil
}

func (f *fakeExtractor) ExtractGL(ctx context.Context, text string, reqCtx *common.RequestContext) (*storage.GLTransaction, error) {
	return &storage.GLTransaction{DocumentNumber: "DOC-9"}, nil
}

func (f *fakeExtractor) Embed(ctx context.Context, text string) ([]float64, error) {
	return []float64{0.1, 0.2}, nil
}

func (f *fakeExtractor) GetProviderName() string { return "fake" }

type fakeRecordStore struct {
	invoices    []*storage.Invoice
	taxInvoices []*storage.TaxInvoice
	glPostings  []*storage.GLTransaction
	createErr   error
}

func (f *fakeRecordStore) CreateInvoice(ctx context.Context, inv *storage.Invoice) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.invoices = append(f.invoices, inv)
	return nil
}

func (f *fakeRecordStore) CreateTaxInvoice(ctx context.Context, ti *storage.TaxInvoice) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.taxInvoices = append(f.taxInvoices, ti)
	return nil
}

func (f *fakeRecordStore) CreateGLTransaction(ctx context.Context, gl *storage.GLTransaction) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.glPostings = append(f.glPostings, gl)
	return nil
}

func noWait(ctx context.Context, d time.Duration) error { return nil }

func newTestProcessor(blobs *fakeBlobStore, client analyzer.Client, extractor ai.Extractor, store RecordStore) *FolderProcessor {
	poller := analyzer.NewPoller(client, analyzer.PollConfig{Interval: time.Millisecond, MaxAttempts: 3}, analyzer.WithWaitFunc(noWait))
	return NewFolderProcessor(blobs, client, poller, extractor, NewMerger(blobs), store)
}

func TestProcessBatch_MultiPageTaxInvoice(t *testing.T) {
	// pdf_1 and pdf_2 are one tax invoice (complete on pdf_2); pdf_10 is a
	// standalone invoice. notes.txt must be filtered out.
	blobs := newFakeBlobStore("pdf_10.pdf", "notes.txt", "pdf_2.pdf", "pdf_1.jpg")
	client := &fakeAnalyzerClient{}
	extractor := &fakeExtractor{classifications: map[string]ai.Classification{
		"text of batches/b1/pdf_1.jpg":  {ContentType: ai.ContentTypeTaxInvoice, IsDocumentComplete: false},
		"text of batches/b1/pdf_2.pdf":  {ContentType: ai.ContentTypeTaxInvoice, IsDocumentComplete: true},
		"text of batches/b1/pdf_10.pdf": {ContentType: ai.ContentTypeInvoice, IsDocumentComplete: true},
	}}
	store := &fakeRecordStore{}

	outcomes, err := newTestProcessor(blobs, client, extractor, store).
		ProcessBatch(context.Background(), "b1", "URN-7", common.NewRequestContext("b1", "URN-7"))

	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	// Natural page order, not lexicographic
	assert.Equal(t, "pdf_1.jpg", outcomes[0].File)
	assert.Equal(t, PageStatusAccumulating, outcomes[0].Status)
	assert.Equal(t, "pdf_2.pdf", outcomes[1].File)
	assert.Equal(t, PageStatusExtracted, outcomes[1].Status)
	assert.Equal(t, "pdf_10.pdf", outcomes[2].File)
	assert.Equal(t, PageStatusExtracted, outcomes[2].Status)

	// Both pages flowed into one extraction call, in order
	require.Len(t, extractor.taxInvoiceTexts, 1)
	assert.Equal(t, "text of batches/b1/pdf_1.jpg\n\n--- PAGE BREAK ---\n\ntext of batches/b1/pdf_2.pdf", extractor.taxInvoiceTexts[0])

	require.Len(t, store.taxInvoices, 1)
	ti := store.taxInvoices[0]
	assert.Equal(t, "URN-7", ti.URN)
	assert.Equal(t, 2, ti.TotalPages)
	// The fake page bytes cannot merge into a PDF, so the document URL
	// degrades to the last page's reference
	assert.Equal(t, "batches/b1/pdf_2.pdf", ti.DocumentURL)

	require.Len(t, store.invoices, 1)
	assert.Equal(t, "URN-7", store.invoices[0].URN)
	assert.Equal(t, "batches/b1/pdf_10.pdf", store.invoices[0].DocumentURL)
}

func TestProcessBatch_RecordsStepTimings(t *testing.T) {
	blobs := newFakeBlobStore("pdf_1.pdf", "pdf_2.pdf")
	client := &fakeAnalyzerClient{failRefs: map[string]bool{"batches/b1/pdf_2.pdf": true}}
	extractor := &fakeExtractor{classifications: map[string]ai.Classification{
		"text of batches/b1/pdf_1.pdf": {ContentType: ai.ContentTypeInvoice, IsDocumentComplete: true},
	}}
	reqCtx := common.NewRequestContext("b1", "URN-7")

	_, err := newTestProcessor(blobs, client, extractor, &fakeRecordStore{}).
		ProcessBatch(context.Background(), "b1", "URN-7", reqCtx)

	require.NoError(t, err)

	byName := map[string]string{}
	for _, step := range reqCtx.Steps {
		byName[step.Name] = step.Status
	}
	assert.Equal(t, "success", byName["analyze pdf_1.pdf"])
	assert.Equal(t, "success", byName["classify pdf_1.pdf"])
	assert.Equal(t, "success", byName["extract invoice pdf_1.pdf"])
	assert.Equal(t, "failed", byName["analyze pdf_2.pdf"])

	summary := reqCtx.GetSummary()
	assert.Equal(t, len(reqCtx.Steps), summary["total_steps"])
	breakdown := summary["step_breakdown"].(map[string]int64)
	assert.Contains(t, breakdown, "analyze pdf_1.pdf")
}

func TestProcessBatch_PerFileFailureDoesNotAbortBatch(t *testing.T) {
	blobs := newFakeBlobStore("pdf_1.pdf", "pdf_2.pdf")
	client := &fakeAnalyzerClient{failRefs: map[string]bool{"batches/b1/pdf_1.pdf": true}}
	extractor := &fakeExtractor{classifications: map[string]ai.Classification{
		"text of batches/b1/pdf_2.pdf": {ContentType: ai.ContentTypeInvoice, IsDocumentComplete: true},
	}}
	store := &fakeRecordStore{}

	outcomes, err := newTestProcessor(blobs, client, extractor, store).
		ProcessBatch(context.Background(), "b1", "URN-7", common.NewRequestContext("b1", "URN-7"))

	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, PageStatusError, outcomes[0].Status)
	var failed *analyzer.AnalysisFailedError
	require.ErrorAs(t, outcomes[0].Err, &failed)
	assert.Equal(t, PageStatusExtracted, outcomes[1].Status)
	assert.Len(t, store.invoices, 1)
}

func TestProcessBatch_ListFailureIsFatal(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.listErr = fmt.Errorf("bucket unavailable")

	_, err := newTestProcessor(blobs, &fakeAnalyzerClient{}, &fakeExtractor{}, &fakeRecordStore{}).
		ProcessBatch(context.Background(), "b1", "URN-7", common.NewRequestContext("b1", "URN-7"))

	var pErr *PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.Contains(t, err.Error(), "bucket unavailable")
}

func TestProcessBatch_PersistenceFailureIsFatal(t *testing.T) {
	blobs := newFakeBlobStore("pdf_1.pdf")
	extractor := &fakeExtractor{classifications: map[string]ai.Classification{
		"text of batches/b1/pdf_1.pdf": {ContentType: ai.ContentTypeInvoice, IsDocumentComplete: true},
	}}
	store := &fakeRecordStore{createErr: fmt.Errorf("mongo down")}

	_, err := newTestProcessor(blobs, &fakeAnalyzerClient{}, extractor, store).
		ProcessBatch(context.Background(), "b1", "URN-7", common.NewRequestContext("b1", "URN-7"))

	var pErr *PersistenceError
	require.ErrorAs(t, err, &pErr)
}

func TestProcessBatch_UnknownContentIsSkipped(t *testing.T) {
	blobs := newFakeBlobStore("pdf_1.pdf")

	outcomes, err := newTestProcessor(blobs, &fakeAnalyzerClient{}, &fakeExtractor{}, &fakeRecordStore{}).
		ProcessBatch(context.Background(), "b1", "URN-7", common.NewRequestContext("b1", "URN-7"))

	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, PageStatusSkipped, outcomes[0].Status)
}

func TestNewGLTransactionID_Format(t *testing.T) {
	id := NewGLTransactionID()

	require.Len(t, id, 3+8+8)
	assert.True(t, strings.HasPrefix(id, "GLT"))
	assert.Equal(t, time.Now().UTC().Format("20060102"), id[3:11])
	assert.Equal(t, strings.ToUpper(id[11:]), id[11:])
}
