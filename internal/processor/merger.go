// merger.go - Folds the source pages of a completed multi-page document into one PDF

package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bosocmputer/tax_recon_ai/internal/storage"
	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"
)

// downloadConcurrency bounds parallel page downloads per merge
const downloadConcurrency = 4

// Merger combines the per-page source files of a completed document unit
// into one canonical PDF artifact in blob storage.
type Merger struct {
	blobs storage.BlobStore
}

// NewMerger creates a merger over the given blob store
func NewMerger(blobs storage.BlobStore) *Merger {
	return &Merger{blobs: blobs}
}

// Merge downloads the page files, converts image pages to PDF, concatenates
// everything in page order, and uploads the result under the batch prefix.
// A single-page unit passes its ref through untouched. Errors leave nothing
// persisted; the caller decides the fallback.
func (m *Merger) Merge(ctx context.Context, batchID string, fileRefs []string) (string, error) {
	if len(fileRefs) == 0 {
		return "", fmt.Errorf("no files to merge")
	}
	if len(fileRefs) == 1 {
		return fileRefs[0], nil
	}

	tempDir, err := os.MkdirTemp("", "doc-merge-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	localPaths := make([]string, len(fileRefs))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(downloadConcurrency)

	for i, ref := range fileRefs {
		i, ref := i, ref
		localPath := filepath.Join(tempDir, fmt.Sprintf("page_%04d%s", i, strings.ToLower(filepath.Ext(ref))))
		localPaths[i] = localPath

		eg.Go(func() error {
			data, err := m.blobs.Download(gctx, ref)
			if err != nil {
				return fmt.Errorf("page %d (%s): %w", i+1, ref, err)
			}
			if err := os.WriteFile(localPath, data, 0o644); err != nil {
				return fmt.Errorf("page %d: write temp file: %w", i+1, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return "", fmt.Errorf("failed to download pages: %w", err)
	}

	// Image pages become single-page PDFs so everything merges uniformly
	conf := model.NewDefaultConfiguration()
	pdfPaths := make([]string, len(localPaths))
	for i, p := range localPaths {
		if !IsImageFile(p) {
			pdfPaths[i] = p
			continue
		}

		prepared := filepath.Join(tempDir, fmt.Sprintf("prep_%04d%s", i, filepath.Ext(p)))
		if err := PrepareScan(p, prepared); err != nil {
			// Unreadable scans still go into the PDF as-is
			prepared = p
		}

		pagePDF := filepath.Join(tempDir, fmt.Sprintf("page_%04d.pdf", i))
		if err := api.ImportImagesFile([]string{prepared}, pagePDF, nil, conf); err != nil {
			return "", fmt.Errorf("failed to convert page %d to PDF: %w", i+1, err)
		}
		pdfPaths[i] = pagePDF
	}

	mergedPath := filepath.Join(tempDir, "merged.pdf")
	if err := api.MergeCreateFile(pdfPaths, mergedPath, false, conf); err != nil {
		return "", fmt.Errorf("failed to merge pages: %w", err)
	}

	mergedData, err := os.ReadFile(mergedPath)
	if err != nil {
		return "", fmt.Errorf("failed to read merged PDF: %w", err)
	}

	mergedRef := storage.BatchObjectRef(batchID, fmt.Sprintf("merged_%s.pdf", uuid.New().String()))
	if _, err := m.blobs.Upload(ctx, mergedRef, mergedData, "application/pdf"); err != nil {
		return "", fmt.Errorf("failed to upload merged PDF: %w", err)
	}
	return mergedRef, nil
}
