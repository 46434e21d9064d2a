package processor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bosocmputer/tax_recon_ai/internal/common"
)

// buildWorkbook writes a ledger-style sheet: title on row 1, headers on row
// 2, a blank row 3, data from row 4.
func buildWorkbook(t *testing.T, headers []string, dataRows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	require.NoError(t, f.SetCellValue(sheet, "A1", "GL Export"))
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, h))
	}
	for rowIdx, row := range dataRows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+4)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestImportWorkbook_MapsHeadersAndDefaults(t *testing.T) {
	headers := []string{"CoCd", "G/L", "Reference", "DocumentNo", "Supplier", "Supplier Name", "URN", "Tax Based", "Amount in local cur."}
	data := buildWorkbook(t, headers, [][]interface{}{
		{"1000", "400100", "REF-1", "DOC-1", "SUP01", "Acme Pte", "URN-7", "1,250.50", 9000},
		{},
		{"1000", "400200", "REF-2", "DOC-2", "SUP02", "Beta Ltd", "URN-7", "", ""},
	})

	store := &fakeRecordStore{}
	blobs := newFakeBlobStore()

	result, err := NewGLImporter(store, blobs).
		ImportWorkbook(context.Background(), "b1", "ledger.xlsx", data, common.NewRequestContext("b1", "URN-7"))

	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, "batches/b1/ledger.xlsx", result.FileRef)
	assert.Contains(t, blobs.uploads, "batches/b1/ledger.xlsx")

	require.Len(t, store.glPostings, 2)
	first := store.glPostings[0]
	assert.Equal(t, "1000", first.CoCd)
	assert.Equal(t, "400100", first.GL)
	assert.Equal(t, "REF-1", first.ReferenceNumber)
	assert.Equal(t, "DOC-1", first.DocumentNumber)
	assert.Equal(t, "SUP01", first.VendorCode)
	assert.Equal(t, "SUP01", first.VendorID)
	assert.Equal(t, "Acme Pte", first.VendorName)
	assert.Equal(t, "URN-7", first.URN)
	assert.Equal(t, 1250.50, first.TaxBased)
	assert.Equal(t, 9000.0, first.AmountInLocalCurrency)
	assert.Equal(t, "batches/b1/ledger.xlsx", first.DocumentURL)

	// Import-wide defaults
	assert.Equal(t, 1, first.GLTransactionStatusID)
	assert.NotNil(t, first.GLReconItem)
	assert.Empty(t, first.GLReconItem)
	assert.Contains(t, first.GLTransactionID, "GLT")
	assert.Equal(t, "IDR", first.DocumentCurrency)
	assert.Equal(t, "IDR", first.LocalCurrency)

	second := store.glPostings[1]
	assert.Equal(t, 0.0, second.TaxBased)
	assert.Equal(t, 0.0, second.AmountInLocalCurrency)
	assert.NotEqual(t, first.GLTransactionID, second.GLTransactionID)
}

func TestImportWorkbook_HeaderVariants(t *testing.T) {
	headers := []string{"Clrng doc", "Pstng Date", "Doc Currency", "Amount in document currency"}
	data := buildWorkbook(t, headers, [][]interface{}{
		{"CLR-9", "2026-01-15", "USD", "44.75"},
	})

	store := &fakeRecordStore{}

	_, err := NewGLImporter(store, newFakeBlobStore()).
		ImportWorkbook(context.Background(), "b1", "ledger.xlsx", data, common.NewRequestContext("b1", ""))

	require.NoError(t, err)
	require.Len(t, store.glPostings, 1)
	gl := store.glPostings[0]
	assert.Equal(t, "CLR-9", gl.ClearingDocument)
	assert.Equal(t, "2026-01-15", gl.PostingDate)
	assert.Equal(t, "USD", gl.DocumentCurrency)
	assert.Equal(t, 44.75, gl.AmountInDocumentCurrency)
	// Local currency was absent, so the default applies
	assert.Equal(t, "IDR", gl.LocalCurrency)
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 1250.5, parseAmount("1,250.50"))
	assert.Equal(t, 0.0, parseAmount(""))
	assert.Equal(t, 0.0, parseAmount("n/a"))
	assert.Equal(t, -42.0, parseAmount("-42"))
}
