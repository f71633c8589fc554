package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Upload limits
	MaxUploadBytes int64
	MaxFiles       int

	// Merge gate
	MaxConcurrentMerges int

	// Upload sessions
	SessionTTL time.Duration

	// TOC rendering
	TOCFontPath string

	// PDF
	RelaxedValidation bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first if present; real environment variables win. A
// missing .env is fine, an unreadable or malformed one is an error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Port: envOr("PORT", "8090"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
		MaxFiles:       envInt("MAX_FILES", 50),

		MaxConcurrentMerges: envInt("MAX_CONCURRENT_MERGES", 4),

		SessionTTL: envDuration("SESSION_TTL", 30*time.Minute),

		TOCFontPath: os.Getenv("TOC_FONT_PATH"),

		RelaxedValidation: envBool("PDF_RELAXED_VALIDATION", true),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 50
	}
	if cfg.MaxConcurrentMerges <= 0 {
		cfg.MaxConcurrentMerges = 4
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.TOCFontPath != "" {
		if _, err := os.Stat(c.TOCFontPath); err != nil {
			return fmt.Errorf("TOC_FONT_PATH: %w", err)
		}
	}
	return nil
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
