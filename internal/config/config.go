package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Solr (document store)
	SolrBaseURL     string
	SolrCore        string
	SolrCommitDelay time.Duration

	// Gemini (summarization engine)
	GeminiAPIKey string
	GeminiModel  string
	GeminiTier   string

	// HTTP
	Port        string
	GinMode     string
	CORSOrigins []string
	MaxFileSize int64

	// File handling
	TempDir    string
	UploadsDir string

	// OCR
	OCRDPI     int
	OCRTimeout time.Duration

	// Temp file janitor
	TempFileTTL     time.Duration
	JanitorInterval time.Duration

	// Tracing
	TracingEnabled bool
	OTLPEndpoint   string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		SolrBaseURL:     getEnv("SOLR_BASE_URL", ""),
		SolrCore:        getEnv("SOLR_CORE", ""),
		SolrCommitDelay: getEnvDuration("SOLR_COMMIT_DELAY", 2*time.Second),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiTier:   getEnv("GEMINI_TIER", "free"),

		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),
		MaxFileSize: getEnvInt64("MAX_FILE_SIZE", 104857600), // 100MB

		TempDir:    getEnv("TEMP_DIR", os.TempDir()),
		UploadsDir: getEnv("UPLOADS_DIR", "/uploads"),

		OCRDPI:     getEnvInt("OCR_DPI", 150),
		OCRTimeout: getEnvDuration("OCR_TIMEOUT", 5*time.Minute),

		TempFileTTL:     getEnvDuration("TEMP_FILE_TTL", time.Hour),
		JanitorInterval: getEnvDuration("JANITOR_INTERVAL", 15*time.Minute),

		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
	}

	// Validate required fields
	if cfg.SolrBaseURL == "" {
		return nil, fmt.Errorf("SOLR_BASE_URL is required - set it in .env file")
	}

	if cfg.SolrCore == "" {
		return nil, fmt.Errorf("SOLR_CORE is required - set it in .env file")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	cfg.SolrBaseURL = strings.TrimRight(cfg.SolrBaseURL, "/")

	return cfg, nil
}

// SolrURL returns the base URL of the configured Solr core.
func (c *Config) SolrURL() string {
	return c.SolrBaseURL + "/" + c.SolrCore
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
