// config.go - Configuration loaded from environment variables

package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	// AI provider configuration
	AI_PROVIDER     string
	GEMINI_API_KEY  string
	MODEL_NAME      string
	EMBEDDING_MODEL string

	// Gemini Pricing Configuration (per 1M tokens in USD)
	GEMINI_INPUT_PRICE_PER_MILLION  float64
	GEMINI_OUTPUT_PRICE_PER_MILLION float64

	// Document-understanding analyzer service
	ANALYZER_ENDPOINT      string
	ANALYZER_API_KEY       string
	ANALYZER_POLL_INTERVAL time.Duration
	ANALYZER_MAX_ATTEMPTS  int

	// Server Configuration
	PORT            string
	ALLOWED_ORIGINS string

	// MongoDB Configuration
	MONGO_URI     string
	MONGO_DB_NAME string

	// Blob storage (MinIO). STORAGE_BACKEND is resolved once at startup and
	// passed into constructors; business logic never reads it.
	STORAGE_BACKEND  string
	MINIO_ENDPOINT   string
	MINIO_ACCESS_KEY string
	MINIO_SECRET_KEY string
	MINIO_BUCKET     string
	MINIO_USE_SSL    bool

	// Scan preprocessing settings
	ENABLE_IMAGE_PREPROCESSING bool
	MAX_IMAGE_DIMENSION        int

	// Reconciliation settings
	MATCH_TOP_K int
)

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Required: Gemini API Key
	AI_PROVIDER = getEnv("AI_PROVIDER", "gemini")
	GEMINI_API_KEY = getEnv("GEMINI_API_KEY", "")
	if GEMINI_API_KEY == "" {
		log.Fatal("GEMINI_API_KEY environment variable is required")
	}

	// Optional with defaults
	MODEL_NAME = getEnv("MODEL_NAME", "gemini-2.5-flash")
	EMBEDDING_MODEL = getEnv("EMBEDDING_MODEL", "text-embedding-004")

	// Gemini Pricing (default to Flash pricing)
	GEMINI_INPUT_PRICE_PER_MILLION = getEnvFloat("GEMINI_INPUT_PRICE_PER_MILLION", 0.30)
	GEMINI_OUTPUT_PRICE_PER_MILLION = getEnvFloat("GEMINI_OUTPUT_PRICE_PER_MILLION", 2.50)

	// Analyzer service
	ANALYZER_ENDPOINT = getEnv("ANALYZER_ENDPOINT", "")
	if ANALYZER_ENDPOINT == "" {
		log.Fatal("ANALYZER_ENDPOINT environment variable is required")
	}
	ANALYZER_API_KEY = getEnv("ANALYZER_API_KEY", "")
	ANALYZER_POLL_INTERVAL = time.Duration(getEnvInt("ANALYZER_POLL_INTERVAL_SECONDS", 3)) * time.Second
	ANALYZER_MAX_ATTEMPTS = getEnvInt("ANALYZER_MAX_ATTEMPTS", 35)

	PORT = getEnv("PORT", "8080")
	ALLOWED_ORIGINS = getEnv("ALLOWED_ORIGINS", "*")

	// MongoDB Configuration
	MONGO_URI = getEnv("MONGO_URI", "mongodb://localhost:27017")
	MONGO_DB_NAME = getEnv("MONGO_DB_NAME", "taxrecondb")

	// Blob storage
	STORAGE_BACKEND = getEnv("STORAGE_BACKEND", "minio")
	MINIO_ENDPOINT = getEnv("MINIO_ENDPOINT", "localhost:9000")
	MINIO_ACCESS_KEY = getEnv("MINIO_ACCESS_KEY", "minioadmin")
	MINIO_SECRET_KEY = getEnv("MINIO_SECRET_KEY", "minioadmin")
	MINIO_BUCKET = getEnv("MINIO_BUCKET", "tax-documents")
	MINIO_USE_SSL = getEnvBool("MINIO_USE_SSL", false)

	// Scan preprocessing
	ENABLE_IMAGE_PREPROCESSING = getEnvBool("ENABLE_IMAGE_PREPROCESSING", true)
	MAX_IMAGE_DIMENSION = getEnvInt("MAX_IMAGE_DIMENSION", 2000)

	// Reconciliation
	MATCH_TOP_K = getEnvInt("MATCH_TOP_K", 3)

	log.Println("✓ Configuration loaded successfully")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
