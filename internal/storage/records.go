// records.go - Persisted document shapes for the tax reconciliation collections

package storage

import "time"

// Collection names
const (
	CollectionInvoices        = "invoices"
	CollectionTaxInvoices     = "tax_invoices"
	CollectionGLTransactions  = "gl_transactions"
	CollectionVendorTaxRefs   = "vendor_tax_references"
	VendorEmbeddingIndexName  = "vendor_reference_embedding"
	VendorEmbeddingFieldPath  = "embedding"
)

// Invoice is a commercial invoice extracted from a single-page scan
type Invoice struct {
	ID            string    `bson:"id" json:"id"`
	URN           string    `bson:"urn" json:"urn"`
	DocumentURL   string    `bson:"documentUrl" json:"documentUrl"`
	InvoiceNumber string    `bson:"invoiceNumber" json:"invoiceNumber"`
	InvoiceDate   string    `bson:"invoiceDate" json:"invoiceDate"`
	VendorName    string    `bson:"vendorName" json:"vendorName"`
	VendorTaxID   string    `bson:"vendorTaxId" json:"vendorTaxId"`
	PONumber      string    `bson:"poNumber" json:"poNumber"`
	Currency      string    `bson:"currency" json:"currency"`
	SubTotal      float64   `bson:"subTotal" json:"subTotal"`
	TaxAmount     float64   `bson:"taxAmount" json:"taxAmount"`
	TotalAmount   float64   `bson:"totalAmount" json:"totalAmount"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// TaxInvoiceDetail is one line item of a tax invoice. The matched* fields are
// filled in by the reconciliation matcher; SimilarityScore is a distance where
// lower means more similar.
type TaxInvoiceDetail struct {
	No              int     `bson:"no" json:"no"`
	Description     string  `bson:"description" json:"description"`
	Quantity        float64 `bson:"quantity" json:"quantity"`
	UnitPrice       float64 `bson:"unitPrice" json:"unitPrice"`
	Amount          float64 `bson:"amount" json:"amount"`
	VATAmount       float64 `bson:"vatAmount" json:"vatAmount"`
	MatchedDesc     string  `bson:"matchedDescription,omitempty" json:"matchedDescription,omitempty"`
	MatchedTaxID    string  `bson:"matchedTaxId,omitempty" json:"matchedTaxId,omitempty"`
	MatchedVendorID string  `bson:"matchedVendorId,omitempty" json:"matchedVendorId,omitempty"`
	SimilarityScore *float64 `bson:"similarityScore,omitempty" json:"similarityScore,omitempty"`
	ReferenceID     string  `bson:"referenceId,omitempty" json:"referenceId,omitempty"`
}

// TaxInvoice is a government tax invoice, possibly merged from multiple pages
type TaxInvoice struct {
	ID               string             `bson:"id" json:"id"`
	URN              string             `bson:"urn" json:"urn"`
	DocumentURL      string             `bson:"documentUrl" json:"documentUrl"`
	TaxInvoiceNumber string             `bson:"taxInvoiceNumber" json:"taxInvoiceNumber"`
	TaxInvoiceDate   string             `bson:"taxInvoiceDate" json:"taxInvoiceDate"`
	SellerName       string             `bson:"sellerName" json:"sellerName"`
	SellerTaxID      string             `bson:"sellerTaxId" json:"sellerTaxId"`
	BuyerName        string             `bson:"buyerName" json:"buyerName"`
	BuyerTaxID       string             `bson:"buyerTaxId" json:"buyerTaxId"`
	VATRate          float64            `bson:"vatRate" json:"vatRate"`
	VATAmount        float64            `bson:"vatAmount" json:"vatAmount"`
	TotalAmount      float64            `bson:"totalAmount" json:"totalAmount"`
	TotalPages       int                `bson:"totalPages,omitempty" json:"totalPages,omitempty"`
	Details          []TaxInvoiceDetail `bson:"details" json:"details"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// GLTransaction is one general-ledger posting line imported from an XLSX export
type GLTransaction struct {
	ID                       string    `bson:"id" json:"id"`
	GLTransactionID          string    `bson:"glTransactionId" json:"glTransactionId"`
	GLTransactionStatusID    int       `bson:"glTransactionStatusId" json:"glTransactionStatusId"`
	URN                      string    `bson:"urn" json:"urn"`
	DocumentURL              string    `bson:"documentUrl,omitempty" json:"documentUrl,omitempty"`
	CoCd                     string    `bson:"cocd" json:"cocd"`
	GL                       string    `bson:"gl" json:"gl"`
	YearMonth                string    `bson:"yearMonth" json:"yearMonth"`
	Type                     string    `bson:"type" json:"type"`
	ReferenceNumber          string    `bson:"referenceNumber" json:"referenceNumber"`
	DocumentNumber           string    `bson:"documentNumber" json:"documentNumber"`
	VendorID                 string    `bson:"vendorId" json:"vendorId"`
	VendorCode               string    `bson:"vendorCode" json:"vendorCode"`
	VendorName               string    `bson:"vendorName" json:"vendorName"`
	PONumber                 string    `bson:"poNumber" json:"poNumber"`
	TaxBased                 float64   `bson:"taxBased" json:"taxBased"`
	WHT                      float64   `bson:"wht" json:"wht"`
	TaxRate                  float64   `bson:"taxRate" json:"taxRate"`
	Username                 string    `bson:"username" json:"username"`
	Text                     string    `bson:"text" json:"text"`
	ClearingDocument         string    `bson:"clearingDocument" json:"clearingDocument"`
	DocumentDate             string    `bson:"documentDate" json:"documentDate"`
	PostingDate              string    `bson:"postingDate" json:"postingDate"`
	DocumentCurrency         string    `bson:"documentCurrency" json:"documentCurrency"`
	AmountInDocumentCurrency float64   `bson:"amountInDocumentCurrency" json:"amountInDocumentCurrency"`
	LocalCurrency            string    `bson:"localCurrency" json:"localCurrency"`
	AmountInLocalCurrency    float64   `bson:"amountInLocalCurrency" json:"amountInLocalCurrency"`
	Ref                      string    `bson:"ref" json:"ref"`
	FirstVouching            string    `bson:"firstVouching" json:"firstVouching"`
	SecondReviewer           string    `bson:"secondReviewer" json:"secondReviewer"`
	GLReconItem              []string  `bson:"glReconItem" json:"glReconItem"`
	CreatedAt                time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt                time.Time `bson:"updatedAt" json:"updatedAt"`
}

// VendorTaxReference is one entry of the vendor tax-reference catalog.
// Immutable once ingested; the embedding field is covered by the Atlas
// vector index.
type VendorTaxReference struct {
	ReferenceID string    `bson:"referenceId" json:"referenceId"`
	VendorID    string    `bson:"vendorId" json:"vendorId"`
	Description string    `bson:"description" json:"description"`
	TaxID       string    `bson:"taxId" json:"taxId"`
	Embedding   []float64 `bson:"embedding" json:"-"`
}

// VendorCandidate is a vendor tax reference returned by the vector search
// together with its distance from the query vector (lower = more similar).
type VendorCandidate struct {
	Reference VendorTaxReference
	Distance  float64
}
