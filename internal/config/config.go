package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Annotation store connection
	StoreURL    string
	StoreAPIKey string

	// Auth
	ViewerAPIKey string

	// Upload limits
	MaxUploadBytes int64

	// Session state
	SessionTTL time.Duration

	// Annotation schema (controls sort-index width)
	SchemaVersion int

	// Flow layout
	LayoutLineChars  int
	LayoutColumnRows int
	LayoutColumnGap  float64

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		StoreURL:    envOr("STORE_URL", "http://localhost:8080"),
		StoreAPIKey: os.Getenv("STORE_API_KEY"),

		ViewerAPIKey: os.Getenv("DOCVIEW_API_KEY"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		SessionTTL: envDuration("SESSION_TTL", 1*time.Hour),

		SchemaVersion: envInt("SCHEMA_VERSION", 2),

		LayoutLineChars:  envInt("LAYOUT_LINE_CHARS", 80),
		LayoutColumnRows: envInt("LAYOUT_COLUMN_ROWS", 0),
		LayoutColumnGap:  float64(envInt("LAYOUT_COLUMN_GAP", 24)),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 1 * time.Hour
	}
	if cfg.LayoutLineChars <= 0 {
		cfg.LayoutLineChars = 80
	}
	if cfg.SchemaVersion != 1 && cfg.SchemaVersion != 2 {
		cfg.SchemaVersion = 2
	}

	return cfg
}

func (c Config) Validate() error {
	if c.StoreAPIKey == "" {
		return fmt.Errorf("STORE_API_KEY is required")
	}
	if c.ViewerAPIKey == "" {
		return fmt.Errorf("DOCVIEW_API_KEY is required")
	}
	return nil
}

// SortIndexDigits maps the schema version to its sort-index width.
func (c Config) SortIndexDigits() int {
	if c.SchemaVersion == 1 {
		return 7
	}
	return 8
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
