// main.go - The entry point and router setup.

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bosocmputer/tax_recon_ai/configs"
	"github.com/bosocmputer/tax_recon_ai/internal/ai"
	"github.com/bosocmputer/tax_recon_ai/internal/analyzer"
	"github.com/bosocmputer/tax_recon_ai/internal/api"
	"github.com/bosocmputer/tax_recon_ai/internal/processor"
	"github.com/bosocmputer/tax_recon_ai/internal/storage"
)

func main() {
	// Step 0: Load configuration from environment variables
	configs.LoadConfig()

	if ginMode := os.Getenv("GIN_MODE"); ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Step 1: Initialize MongoDB connection
	if err := storage.InitMongoDB(configs.MONGO_URI, configs.MONGO_DB_NAME); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer storage.CloseMongoDB()

	store := storage.NewStore(storage.GetMongoDB())

	// Step 2: Connect blob storage. The backend is resolved here once and
	// components receive the store by injection.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	var blobs storage.BlobStore
	switch configs.STORAGE_BACKEND {
	case "minio":
		minioStore, err := storage.NewMinioBlobStore(startupCtx, storage.BlobConfig{
			Endpoint:  configs.MINIO_ENDPOINT,
			AccessKey: configs.MINIO_ACCESS_KEY,
			SecretKey: configs.MINIO_SECRET_KEY,
			Bucket:    configs.MINIO_BUCKET,
			UseSSL:    configs.MINIO_USE_SSL,
		})
		if err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}
		blobs = minioStore
	default:
		log.Fatalf("Unsupported storage backend: %s (supported: minio)", configs.STORAGE_BACKEND)
	}

	// Step 3: Create the AI extraction provider
	extractor, err := ai.CreateExtractor(ai.ExtractorConfig{
		Provider:       configs.AI_PROVIDER,
		GeminiAPIKey:   configs.GEMINI_API_KEY,
		GeminiModel:    configs.MODEL_NAME,
		EmbeddingModel: configs.EMBEDDING_MODEL,
	})
	if err != nil {
		log.Fatalf("Failed to create AI provider: %v", err)
	}

	// Step 4: Wire the document pipeline
	analyzerClient := analyzer.NewClient(configs.ANALYZER_ENDPOINT, configs.ANALYZER_API_KEY)
	poller := analyzer.NewPoller(analyzerClient, analyzer.PollConfig{
		Interval:    configs.ANALYZER_POLL_INTERVAL,
		MaxAttempts: configs.ANALYZER_MAX_ATTEMPTS,
	})
	merger := processor.NewMerger(blobs)
	folderProc := processor.NewFolderProcessor(blobs, analyzerClient, poller, extractor, merger, store)
	matcher := processor.NewMatcher(store, extractor, configs.MATCH_TOP_K)
	glImporter := processor.NewGLImporter(store, blobs)

	handlers := api.NewHandlers(store, blobs, folderProc, matcher, glImporter)

	// Step 5: Initialize the Gin router
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", configs.ALLOWED_ORIGINS)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	router.GET("/", func(c *gin.Context) {
		c.String(200, "ok")
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "tax-recon-ai",
			"version": "1.0.0",
		})
	})

	// Step 6: Define the API routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/upload/documents", handlers.UploadDocumentsHandler)
		v1.POST("/upload/gl", handlers.UploadGLHandler)
		v1.POST("/tax/reconcile/:urn", handlers.ReconcileHandler)
		v1.GET("/tax/gl-transactions", handlers.ListGLTransactionsHandler)
		v1.GET("/tax/gl-transactions/:urn", handlers.ListGLTransactionsHandler)
		v1.GET("/tax/tax-invoices", handlers.ListTaxInvoicesHandler)
		v1.GET("/tax/invoices", handlers.ListInvoicesHandler)
		v1.GET("/tax/dashboard", handlers.DashboardHandler)
	}

	// Step 7: Setup HTTP server with timeouts
	srv := &http.Server{
		Addr:           ":" + configs.PORT,
		Handler:        router,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Minute, // Batch analysis can poll for several minutes
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Starting server on :%s", configs.PORT)
		log.Println("API Endpoints:")
		log.Println("  POST /api/v1/upload/documents")
		log.Println("  POST /api/v1/upload/gl")
		log.Println("  POST /api/v1/tax/reconcile/:urn")
		log.Println("  GET  /api/v1/tax/gl-transactions")
		log.Println("  GET  /api/v1/tax/tax-invoices")
		log.Println("  GET  /api/v1/tax/invoices")
		log.Println("  GET  /api/v1/tax/dashboard")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
