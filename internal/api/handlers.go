// handlers.go - HTTP handlers for uploads, reconciliation, and record queries

package api

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bosocmputer/tax_recon_ai/internal/common"
	"github.com/bosocmputer/tax_recon_ai/internal/processor"
	"github.com/bosocmputer/tax_recon_ai/internal/storage"
)

// maxUploadBytes caps one uploaded file (scans and ledger exports)
const maxUploadBytes = 50 << 20

// Handlers carries the wired pipeline components for the HTTP surface
type Handlers struct {
	store      *storage.Store
	blobs      storage.BlobStore
	folderProc *processor.FolderProcessor
	matcher    *processor.Matcher
	glImporter *processor.GLImporter
}

// NewHandlers creates the handler set over the wired components
func NewHandlers(store *storage.Store, blobs storage.BlobStore, folderProc *processor.FolderProcessor, matcher *processor.Matcher, glImporter *processor.GLImporter) *Handlers {
	return &Handlers{
		store:      store,
		blobs:      blobs,
		folderProc: folderProc,
		matcher:    matcher,
		glImporter: glImporter,
	}
}

// UploadDocumentsHandler receives one batch of scanned pages, stores them,
// and runs the full analysis pipeline over the batch synchronously.
func (h *Handlers) UploadDocumentsHandler(c *gin.Context) {
	urn := c.PostForm("urn")

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid multipart form",
			"details": err.Error(),
		})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "files field cannot be empty",
		})
		return
	}

	batchID := uuid.New().String()
	reqCtx := common.NewRequestContext(batchID, urn)

	for _, fh := range files {
		if fh.Size > maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"status":  "error",
				"message": "file exceeds size limit: " + fh.Filename,
			})
			return
		}

		src, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": "failed to read uploaded file " + fh.Filename,
				"details": err.Error(),
			})
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": "failed to read uploaded file " + fh.Filename,
				"details": err.Error(),
			})
			return
		}

		ref := storage.BatchObjectRef(batchID, filepath.Base(fh.Filename))
		if _, err := h.blobs.Upload(c.Request.Context(), ref, data, fh.Header.Get("Content-Type")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":     "error",
				"message":    "failed to store uploaded file " + fh.Filename,
				"details":    err.Error(),
				"request_id": reqCtx.RequestID,
			})
			return
		}
	}

	outcomes, err := h.folderProc.ProcessBatch(c.Request.Context(), batchID, urn, reqCtx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":     "error",
			"message":    "batch processing failed",
			"details":    err.Error(),
			"batch_id":   batchID,
			"outcomes":   outcomes,
			"request_id": reqCtx.RequestID,
		})
		return
	}

	storage.InvalidateDashboardCache()

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"batch_id":   batchID,
		"urn":        urn,
		"outcomes":   outcomes,
		"summary":    reqCtx.GetSummary(),
		"request_id": reqCtx.RequestID,
	})
}

// UploadGLHandler imports one general-ledger XLSX export
func (h *Handlers) UploadGLHandler(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "file field is required",
			"details": err.Error(),
		})
		return
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "only .xlsx ledger exports are supported",
		})
		return
	}
	if fh.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"status":  "error",
			"message": "file exceeds size limit",
		})
		return
	}

	src, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "failed to read uploaded file",
			"details": err.Error(),
		})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "failed to read uploaded file",
			"details": err.Error(),
		})
		return
	}

	batchID := uuid.New().String()
	reqCtx := common.NewRequestContext(batchID, "")

	result, err := h.glImporter.ImportWorkbook(c.Request.Context(), batchID, filepath.Base(fh.Filename), data, reqCtx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":     "error",
			"message":    "GL import failed",
			"details":    err.Error(),
			"request_id": reqCtx.RequestID,
		})
		return
	}

	storage.InvalidateDashboardCache()

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"batch_id":   batchID,
		"data":       result,
		"request_id": reqCtx.RequestID,
	})
}

// ReconcileHandler runs one reconciliation pass for a URN
func (h *Handlers) ReconcileHandler(c *gin.Context) {
	urn := c.Param("urn")
	if urn == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "urn is required",
		})
		return
	}

	reqCtx := common.NewRequestContext("", urn)

	summary, err := h.matcher.Reconcile(c.Request.Context(), urn, reqCtx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":     "error",
			"message":    "reconciliation failed",
			"details":    err.Error(),
			"request_id": reqCtx.RequestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"urn":        urn,
		"data":       summary,
		"request_id": reqCtx.RequestID,
	})
}

// ListGLTransactionsHandler returns GL postings, paginated, newest first
func (h *Handlers) ListGLTransactionsHandler(c *gin.Context) {
	urn := c.Query("urn")
	if urn == "" {
		urn = c.Param("urn")
	}
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "pageSize", 50)

	items, total, err := h.store.GLTransactionsByURN(c.Request.Context(), urn, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "failed to load GL transactions",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"data":     items,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// ListTaxInvoicesHandler returns the tax invoices for a URN (all when empty)
func (h *Handlers) ListTaxInvoicesHandler(c *gin.Context) {
	items, err := h.store.TaxInvoicesByURN(c.Request.Context(), c.Query("urn"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "failed to load tax invoices",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   items,
		"total":  len(items),
	})
}

// ListInvoicesHandler returns the commercial invoices for a URN (all when empty)
func (h *Handlers) ListInvoicesHandler(c *gin.Context) {
	items, err := h.store.InvoicesByURN(c.Request.Context(), c.Query("urn"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "failed to load invoices",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   items,
		"total":  len(items),
	})
}

// DashboardHandler returns cached collection counts
func (h *Handlers) DashboardHandler(c *gin.Context) {
	stats, err := storage.GetOrLoadDashboardStats(c.Request.Context(), h.store)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "failed to load dashboard stats",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   stats,
	})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}
