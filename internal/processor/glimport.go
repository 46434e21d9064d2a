// glimport.go - Imports general-ledger postings from an XLSX export

package processor

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bosocmputer/tax_recon_ai/internal/common"
	"github.com/bosocmputer/tax_recon_ai/internal/storage"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// xlsxHeaderToField maps the ledger export's column headers to record fields.
// Several headers have historical spelling variants.
var xlsxHeaderToField = map[string]string{
	"CoCd":                      "cocd",
	"G/L":                       "gl",
	"Year/month":                "yearMonth",
	"Type":                      "type",
	"Reference":                 "referenceNumber",
	"DocumentNo":                "documentNumber",
	"Supplier":                  "vendorCode",
	"Supplier Name":             "vendorName",
	"PO Number":                 "poNumber",
	"Tax Based":                 "taxBased",
	"WHT":                       "wht",
	"Tax Rate":                  "taxRate",
	"URN":                       "urn",
	"User Name":                 "username",
	"Text":                      "text",
	"Clrng doc.":                "clearingDocument",
	"Clrng doc":                 "clearingDocument",
	"Clearing doc":              "clearingDocument",
	"Doc. Date":                 "documentDate",
	"Pstng Date":                "postingDate",
	"Posting Date":              "postingDate",
	"Doc Curr":                  "documentCurrency",
	"Doc Currency":              "documentCurrency",
	"Amount in doc. curr.":      "amountInDocumentCurrency",
	"Amount in document currency": "amountInDocumentCurrency",
	"Loc Curr":                  "localCurrency",
	"Amount in local cur.":      "amountInLocalCurrency",
	"Ref":                       "ref",
	"1st Vouching":              "firstVouching",
	"2nd Reviewer":              "secondReviewer",
}

// NewGLTransactionID generates a ledger posting identifier in the form
// GLT{YYYYMMDD}{8 uppercase hex chars}.
func NewGLTransactionID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("GLT%s%s", time.Now().UTC().Format("20060102"), suffix)
}

// GLImporter reads general-ledger XLSX exports into the transactions collection
type GLImporter struct {
	store RecordStore
	blobs storage.BlobStore
}

// NewGLImporter creates a ledger importer
func NewGLImporter(store RecordStore, blobs storage.BlobStore) *GLImporter {
	return &GLImporter{store: store, blobs: blobs}
}

// GLImportResult reports the outcome of one workbook import
type GLImportResult struct {
	FileRef   string `json:"fileRef"`
	TotalRows int    `json:"totalRows"`
}

// ImportWorkbook stores the workbook, reads its posting rows, and inserts a
// GL transaction per non-empty row. The export carries column headers on row
// 2 and data from row 4. Any insert failure aborts the import.
func (g *GLImporter) ImportWorkbook(ctx context.Context, batchID, filename string, data []byte, reqCtx *common.RequestContext) (*GLImportResult, error) {
	ref := storage.BatchObjectRef(batchID, filename)
	if _, err := g.blobs.Upload(ctx, ref, data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"); err != nil {
		return nil, &PersistenceError{Op: "upload GL workbook", Err: err}
	}

	records, err := g.parseWorkbook(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GL workbook %s: %w", filename, err)
	}

	reqCtx.LogInfo("📊 Workbook %s: %d posting rows", filename, len(records))

	for _, record := range records {
		record.DocumentURL = ref
		if err := g.store.CreateGLTransaction(ctx, record); err != nil {
			return nil, &PersistenceError{Op: "create gl transaction", Err: err}
		}
	}

	return &GLImportResult{FileRef: ref, TotalRows: len(records)}, nil
}

func (g *GLImporter) parseWorkbook(data []byte) ([]*storage.GLTransaction, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("workbook missing header row")
	}

	// Headers live on row 2; data starts on row 4
	headers := make([]string, len(rows[1]))
	for i, h := range rows[1] {
		headers[i] = strings.TrimSpace(h)
	}

	var records []*storage.GLTransaction
	for rowIdx := 3; rowIdx < len(rows); rowIdx++ {
		fields := rowFields(headers, rows[rowIdx])
		if len(fields) == 0 {
			continue
		}
		records = append(records, buildGLTransaction(fields))
	}
	return records, nil
}

// rowFields maps one data row to field values keyed by record field name.
// Empty rows return an empty map.
func rowFields(headers, row []string) map[string]string {
	fields := make(map[string]string)
	nonEmpty := false

	for i, cell := range row {
		if i >= len(headers) || headers[i] == "" {
			continue
		}
		field, ok := xlsxHeaderToField[headers[i]]
		if !ok {
			continue
		}
		value := strings.TrimSpace(cell)
		if value != "" {
			nonEmpty = true
		}
		fields[field] = value
	}

	if !nonEmpty {
		return nil
	}
	return fields
}

func buildGLTransaction(fields map[string]string) *storage.GLTransaction {
	record := &storage.GLTransaction{
		GLTransactionID:       NewGLTransactionID(),
		GLTransactionStatusID: 1,
		GLReconItem:           []string{},

		URN:              fields["urn"],
		CoCd:             fields["cocd"],
		GL:               fields["gl"],
		YearMonth:        fields["yearMonth"],
		Type:             fields["type"],
		ReferenceNumber:  fields["referenceNumber"],
		DocumentNumber:   fields["documentNumber"],
		VendorCode:       fields["vendorCode"],
		VendorName:       fields["vendorName"],
		PONumber:         fields["poNumber"],
		Username:         fields["username"],
		Text:             fields["text"],
		ClearingDocument: fields["clearingDocument"],
		DocumentDate:     fields["documentDate"],
		PostingDate:      fields["postingDate"],
		Ref:              fields["ref"],
		FirstVouching:    fields["firstVouching"],
		SecondReviewer:   fields["secondReviewer"],

		TaxBased:                 parseAmount(fields["taxBased"]),
		WHT:                      parseAmount(fields["wht"]),
		TaxRate:                  parseAmount(fields["taxRate"]),
		AmountInDocumentCurrency: parseAmount(fields["amountInDocumentCurrency"]),
		AmountInLocalCurrency:    parseAmount(fields["amountInLocalCurrency"]),

		DocumentCurrency: defaultString(fields["documentCurrency"], "IDR"),
		LocalCurrency:    defaultString(fields["localCurrency"], "IDR"),
	}
	// Supplier code doubles as the vendor identity when no separate ID column exists
	record.VendorID = fields["vendorCode"]
	return record
}

// parseAmount converts a ledger cell to a float, tolerating thousand
// separators. Unparseable cells become 0.
func parseAmount(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func defaultString(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
