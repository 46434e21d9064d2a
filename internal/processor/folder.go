// folder.go - Drives one upload batch through analysis, classification, and extraction

package processor

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bosocmputer/tax_recon_ai/internal/ai"
	"github.com/bosocmputer/tax_recon_ai/internal/analyzer"
	"github.com/bosocmputer/tax_recon_ai/internal/common"
	"github.com/bosocmputer/tax_recon_ai/internal/storage"
)

// Per-file processing outcomes
const (
	PageStatusExtracted    = "extracted"
	PageStatusAccumulating = "accumulating"
	PageStatusSkipped      = "skipped"
	PageStatusError        = "error"
)

// supportedExtensions is the allowlist of file types the pipeline accepts
var supportedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tiff": true,
	".bmp":  true,
}

// RecordStore is the persistence surface batch processing needs
type RecordStore interface {
	CreateInvoice(ctx context.Context, inv *storage.Invoice) error
	CreateTaxInvoice(ctx context.Context, ti *storage.TaxInvoice) error
	CreateGLTransaction(ctx context.Context, gl *storage.GLTransaction) error
}

// PageOutcome is the per-file result of batch processing. Record is set only
// when Status is extracted; Err only when Status is error.
type PageOutcome struct {
	File        string      `json:"file"`
	Status      string      `json:"status"`
	ContentType string      `json:"contentType,omitempty"`
	Record      interface{} `json:"record,omitempty"`
	Err         error       `json:"-"`
	ErrMessage  string      `json:"error,omitempty"`
}

// FolderProcessor walks one upload batch file by file, in natural page order,
// feeding each page through analysis, classification, and extraction.
type FolderProcessor struct {
	blobs     storage.BlobStore
	client    analyzer.Client
	poller    *analyzer.Poller
	extractor ai.Extractor
	merger    *Merger
	store     RecordStore
}

// NewFolderProcessor wires the batch pipeline together
func NewFolderProcessor(blobs storage.BlobStore, client analyzer.Client, poller *analyzer.Poller, extractor ai.Extractor, merger *Merger, store RecordStore) *FolderProcessor {
	return &FolderProcessor{
		blobs:     blobs,
		client:    client,
		poller:    poller,
		extractor: extractor,
		merger:    merger,
		store:     store,
	}
}

// ProcessBatch processes every supported file in the batch, strictly in
// natural order because accumulation depends on sequential page arrival.
// Per-file failures become error outcomes; listing and persistence failures
// abort the whole batch.
func (p *FolderProcessor) ProcessBatch(ctx context.Context, batchID, urn string, reqCtx *common.RequestContext) ([]PageOutcome, error) {
	objects, err := p.blobs.List(ctx, batchID)
	if err != nil {
		return nil, &PersistenceError{Op: "list batch files", Err: err}
	}

	files := make([]string, 0, len(objects))
	for _, obj := range objects {
		if supportedExtensions[strings.ToLower(filepath.Ext(obj.Name))] {
			files = append(files, obj.Ref)
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return NaturalLess(filepath.Base(files[i]), filepath.Base(files[j]))
	})

	reqCtx.LogInfo("📂 Batch %s: %d supported files of %d listed", batchID, len(files), len(objects))

	accumulator := NewAccumulator()
	outcomes := make([]PageOutcome, 0, len(files))

	for _, fileRef := range files {
		if ctx.Err() != nil {
			accumulator.Discard(batchID)
			return outcomes, ctx.Err()
		}

		outcome, err := p.processFile(ctx, batchID, urn, fileRef, accumulator, reqCtx)
		if err != nil {
			// Persistence failures are batch-fatal; everything else stays per-file
			return outcomes, err
		}
		outcomes = append(outcomes, *outcome)
	}

	if pending := accumulator.PageCount(batchID); pending > 0 {
		reqCtx.LogWarning("Batch ended with %d accumulated pages never marked complete, discarding", pending)
		accumulator.Discard(batchID)
	}

	return outcomes, nil
}

func (p *FolderProcessor) processFile(ctx context.Context, batchID, urn, fileRef string, accumulator *Accumulator, reqCtx *common.RequestContext) (*PageOutcome, error) {
	name := filepath.Base(fileRef)
	reqCtx.LogInfo("📄 Processing %s", name)

	reqCtx.StartStep("analyze " + name)
	jobID, err := p.client.Submit(ctx, fileRef)
	if err != nil {
		subErr := &analyzer.AnalysisSubmissionError{FileRef: fileRef, Err: err}
		reqCtx.EndStep("failed", nil, subErr)
		return errorOutcome(name, subErr), nil
	}

	text, err := p.poller.AwaitResult(ctx, jobID)
	if err != nil {
		reqCtx.EndStep("failed", nil, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return errorOutcome(name, err), nil
	}
	reqCtx.EndStep("success", nil, nil)

	reqCtx.StartStep("classify " + name)
	classification, err := p.extractor.Classify(ctx, text, reqCtx)
	if err != nil {
		clsErr := &ClassificationError{FileRef: fileRef, Err: err}
		reqCtx.EndStep("failed", nil, clsErr)
		return errorOutcome(name, clsErr), nil
	}
	reqCtx.EndStep("success", nil, nil)

	switch classification.ContentType {
	case ai.ContentTypeInvoice:
		reqCtx.StartStep("extract invoice " + name)
		record, err := p.extractor.ExtractInvoice(ctx, text, reqCtx)
		if err != nil {
			extractErr := fmt.Errorf("invoice extraction for %s: %w", name, err)
			reqCtx.EndStep("failed", nil, extractErr)
			return errorOutcome(name, extractErr), nil
		}
		record.URN = urn
		record.DocumentURL = fileRef
		if err := p.store.CreateInvoice(ctx, record); err != nil {
			persistErr := &PersistenceError{Op: "create invoice", Err: err}
			reqCtx.EndStep("failed", nil, persistErr)
			return nil, persistErr
		}
		reqCtx.EndStep("success", nil, nil)
		return &PageOutcome{File: name, Status: PageStatusExtracted, ContentType: classification.ContentType, Record: record}, nil

	case ai.ContentTypeGeneralLedger:
		reqCtx.StartStep("extract gl " + name)
		record, err := p.extractor.ExtractGL(ctx, text, reqCtx)
		if err != nil {
			extractErr := fmt.Errorf("GL extraction for %s: %w", name, err)
			reqCtx.EndStep("failed", nil, extractErr)
			return errorOutcome(name, extractErr), nil
		}
		record.GLTransactionID = NewGLTransactionID()
		record.GLTransactionStatusID = 1
		record.GLReconItem = []string{}
		if record.URN == "" {
			record.URN = urn
		}
		record.DocumentURL = fileRef
		if err := p.store.CreateGLTransaction(ctx, record); err != nil {
			persistErr := &PersistenceError{Op: "create gl transaction", Err: err}
			reqCtx.EndStep("failed", nil, persistErr)
			return nil, persistErr
		}
		reqCtx.EndStep("success", nil, nil)
		return &PageOutcome{File: name, Status: PageStatusExtracted, ContentType: classification.ContentType, Record: record}, nil

	case ai.ContentTypeTaxInvoice:
		pages := accumulator.AddPage(batchID, text, fileRef)
		if !classification.IsDocumentComplete {
			reqCtx.LogInfo("📑 Accumulating tax invoice page %d", pages)
			return &PageOutcome{File: name, Status: PageStatusAccumulating, ContentType: classification.ContentType}, nil
		}
		return p.finishTaxInvoice(ctx, batchID, urn, name, accumulator, reqCtx)

	default:
		reqCtx.LogInfo("Skipping %s: unrecognized content", name)
		return &PageOutcome{File: name, Status: PageStatusSkipped, ContentType: ai.ContentTypeUnknown}, nil
	}
}

func (p *FolderProcessor) finishTaxInvoice(ctx context.Context, batchID, urn, name string, accumulator *Accumulator, reqCtx *common.RequestContext) (*PageOutcome, error) {
	reqCtx.StartStep("extract tax invoice " + name)
	fullText, fileRefs, ok := accumulator.Flush(batchID)
	if !ok {
		emptyErr := fmt.Errorf("tax invoice unit for batch %s was empty on completion", batchID)
		reqCtx.EndStep("failed", nil, emptyErr)
		return errorOutcome(name, emptyErr), nil
	}

	docRef, err := p.merger.Merge(ctx, batchID, fileRefs)
	if err != nil {
		// Merge failure degrades to the last page's file reference
		mergeErr := &MergeError{Refs: fileRefs, Err: err}
		reqCtx.LogWarning("%v, falling back to last page reference", mergeErr)
		docRef = fileRefs[len(fileRefs)-1]
	}

	record, err := p.extractor.ExtractTaxInvoice(ctx, fullText, reqCtx)
	if err != nil {
		extractErr := fmt.Errorf("tax invoice extraction: %w", err)
		reqCtx.EndStep("failed", nil, extractErr)
		return errorOutcome(name, extractErr), nil
	}
	record.URN = urn
	record.DocumentURL = docRef
	record.TotalPages = len(fileRefs)

	if err := p.store.CreateTaxInvoice(ctx, record); err != nil {
		persistErr := &PersistenceError{Op: "create tax invoice", Err: err}
		reqCtx.EndStep("failed", nil, persistErr)
		return nil, persistErr
	}
	reqCtx.EndStep("success", nil, nil)

	reqCtx.LogInfo("✅ Tax invoice persisted (%d pages, %d line items)", record.TotalPages, len(record.Details))
	return &PageOutcome{File: name, Status: PageStatusExtracted, ContentType: ai.ContentTypeTaxInvoice, Record: record}, nil
}

func errorOutcome(name string, err error) *PageOutcome {
	return &PageOutcome{File: name, Status: PageStatusError, Err: err, ErrMessage: err.Error()}
}

// NaturalLess orders filenames by the numeric value of embedded digit runs,
// so pdf_2 sorts before pdf_10. Non-digit segments compare lexicographically.
func NaturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		aRun, aDigits, aRest := nextSegment(a)
		bRun, bDigits, bRest := nextSegment(b)

		if aDigits && bDigits {
			if c := compareDigitRuns(aRun, bRun); c != 0 {
				return c < 0
			}
		} else if aRun != bRun {
			return aRun < bRun
		}
		a, b = aRest, bRest
	}
	return len(a) < len(b)
}

// nextSegment splits off the leading run of digits or non-digits
func nextSegment(s string) (run string, digits bool, rest string) {
	if s == "" {
		return "", false, ""
	}

	isDigit := s[0] >= '0' && s[0] <= '9'
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9') == isDigit {
		i++
	}
	return s[:i], isDigit, s[i:]
}

// compareDigitRuns orders digit runs by numeric value without parsing them,
// so arbitrarily long runs cannot overflow. Leading zeros do not count.
func compareDigitRuns(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
