package processor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_SinglePagePassesRefThrough(t *testing.T) {
	blobs := newFakeBlobStore("pdf_1.pdf")

	ref, err := NewMerger(blobs).Merge(context.Background(), "b1", []string{"batches/b1/pdf_1.pdf"})

	require.NoError(t, err)
	assert.Equal(t, "batches/b1/pdf_1.pdf", ref)
	assert.Empty(t, blobs.uploads)
}

func TestMerge_NoFilesIsAnError(t *testing.T) {
	_, err := NewMerger(newFakeBlobStore()).Merge(context.Background(), "b1", nil)

	require.Error(t, err)
}

func TestMerge_DownloadFailurePropagates(t *testing.T) {
	blobs := newFakeBlobStore("pdf_1.pdf")

	_, err := NewMerger(blobs).Merge(context.Background(), "b1", []string{"batches/b1/pdf_1.pdf", "batches/b1/missing.pdf"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.pdf")
}
