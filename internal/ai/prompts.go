// prompts.go - Prompt builders for classification and structured extraction

package ai

import "fmt"

// GetClassificationPrompt builds the prompt that classifies one page of
// extracted document text and decides whether a tax invoice is complete.
func GetClassificationPrompt(text string) string {
	return fmt.Sprintf(`You are a document classifier for a corporate tax reconciliation system.

You will receive the OCR text of ONE page of a scanned financial document.
Classify it into exactly one of these content types:

- "Invoice": a commercial invoice issued by a vendor (invoice number, PO number, billed amounts)
- "TaxInvoice": a government-format tax invoice (tax invoice number, seller/buyer tax IDs, VAT breakdown, line items)
- "GeneralLedger": a general-ledger or journal export (posting lines, GL accounts, debit/credit columns)
- "Unknown": anything else, or text too garbled to classify

For "TaxInvoice" ONLY, also decide whether this page is the LAST page of the
document. Signals of completeness: a grand total line, VAT summary, signature
block, or "page N of N" where N is the current page. A page that ends mid-table
with no totals is NOT complete. For every other content type set
"isDocumentComplete" to true.

Respond with ONLY a JSON object, no markdown, no explanation:
{"contentType": "Invoice|TaxInvoice|GeneralLedger|Unknown", "isDocumentComplete": true|false}

--- PAGE TEXT START ---
%s
--- PAGE TEXT END ---`, text)
}

// GetInvoiceExtractionPrompt builds the prompt that extracts a structured
// commercial invoice record from document text.
func GetInvoiceExtractionPrompt(text string) string {
	return fmt.Sprintf(`You are a data-entry specialist extracting a commercial invoice.

Extract the following fields from the document text below. Use empty string ""
for text fields you cannot find and 0 for numeric fields you cannot find.
Numbers must be plain JSON numbers without thousand separators or currency
symbols. Dates must be formatted as YYYY-MM-DD.

Respond with ONLY a JSON object in this exact shape:
{
  "invoiceNumber": "",
  "invoiceDate": "",
  "vendorName": "",
  "vendorTaxId": "",
  "poNumber": "",
  "currency": "",
  "subTotal": 0,
  "taxAmount": 0,
  "totalAmount": 0
}

--- DOCUMENT TEXT START ---
%s
--- DOCUMENT TEXT END ---`, text)
}

// GetTaxInvoiceExtractionPrompt builds the prompt that extracts a structured
// tax invoice, including all line items, from (possibly multi-page) text.
// Pages are separated by "--- PAGE BREAK ---" markers.
func GetTaxInvoiceExtractionPrompt(text string) string {
	return fmt.Sprintf(`You are a data-entry specialist extracting a government tax invoice.

The text below may span multiple pages separated by "--- PAGE BREAK ---".
Treat all pages as ONE document: line-item tables may continue across page
breaks, and the VAT/total summary usually appears on the last page.

Extract every line item. Use empty string "" for text fields you cannot find
and 0 for numeric fields you cannot find. Numbers must be plain JSON numbers.
Dates must be formatted as YYYY-MM-DD.

Respond with ONLY a JSON object in this exact shape:
{
  "taxInvoiceNumber": "",
  "taxInvoiceDate": "",
  "sellerName": "",
  "sellerTaxId": "",
  "buyerName": "",
  "buyerTaxId": "",
  "vatRate": 0,
  "vatAmount": 0,
  "totalAmount": 0,
  "details": [
    {"no": 1, "description": "", "quantity": 0, "unitPrice": 0, "amount": 0, "vatAmount": 0}
  ]
}

--- DOCUMENT TEXT START ---
%s
--- DOCUMENT TEXT END ---`, text)
}

// GetGLExtractionPrompt builds the prompt that extracts one general-ledger
// posting line from document text.
func GetGLExtractionPrompt(text string) string {
	return fmt.Sprintf(`You are a data-entry specialist extracting a general-ledger posting line.

Extract the following fields from the document text below. Use empty string ""
for text fields you cannot find and 0 for numeric fields you cannot find.
Numbers must be plain JSON numbers. Dates must be formatted as YYYY-MM-DD.
"yearMonth" is the posting period formatted as YYYYMM.

Respond with ONLY a JSON object in this exact shape:
{
  "cocd": "",
  "gl": "",
  "yearMonth": "",
  "type": "",
  "referenceNumber": "",
  "documentNumber": "",
  "vendorId": "",
  "vendorCode": "",
  "vendorName": "",
  "poNumber": "",
  "taxBased": 0,
  "wht": 0,
  "taxRate": 0,
  "username": "",
  "text": "",
  "clearingDocument": "",
  "documentDate": "",
  "postingDate": "",
  "documentCurrency": "",
  "amountInDocumentCurrency": 0,
  "localCurrency": "",
  "amountInLocalCurrency": 0,
  "ref": ""
}

--- DOCUMENT TEXT START ---
%s
--- DOCUMENT TEXT END ---`, text)
}
