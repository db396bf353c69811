package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Backend API
	APIBaseURL  string
	HTTPTimeout time.Duration

	// Wire convention spoken by the backend ("legacy" or "standard")
	WireConvention string

	// Local durable state
	SQLiteDBPath string

	// Query cache stale times
	TransactionCacheTTL time.Duration
	CategoryCacheTTL    time.Duration
	SummaryCacheTTL     time.Duration

	// List defaults
	DefaultPageSize int

	// Logging
	LogLevel string
}

func Load() *Config {
	return &Config{
		APIBaseURL:  getEnv("API_BASE_URL", "http://localhost:3001"),
		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 15*time.Second),

		WireConvention: getEnv("WIRE_CONVENTION", "standard"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", defaultDBPath()),

		TransactionCacheTTL: getEnvDuration("TRANSACTION_CACHE_TTL", 5*time.Minute),
		CategoryCacheTTL:    getEnvDuration("CATEGORY_CACHE_TTL", 10*time.Minute),
		SummaryCacheTTL:     getEnvDuration("SUMMARY_CACHE_TTL", 5*time.Minute),

		DefaultPageSize: getEnvInt("PAGE_SIZE", 10),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func defaultDBPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "contas", "contas.db")
	}
	return "./data/contas.db"
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate API base URL
	if u, err := url.Parse(c.APIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	} else if u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': missing host", c.APIBaseURL))
	}

	// Validate wire convention
	validConventions := []string{"legacy", "standard"}
	isValidConvention := false
	for _, conv := range validConventions {
		if c.WireConvention == conv {
			isValidConvention = true
			break
		}
	}
	if !isValidConvention {
		errors = append(errors, fmt.Sprintf("invalid wire convention '%s': must be one of %v", c.WireConvention, validConventions))
	}

	// Validate local database path. The directory is created later by
	// storage.Open; validation only inspects.
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else if info, err := os.Stat(filepath.Dir(c.SQLiteDBPath)); err == nil && !info.IsDir() {
		errors = append(errors, fmt.Sprintf("invalid SQLite database path '%s': parent is not a directory", c.SQLiteDBPath))
	}

	// Validate timeouts and TTLs
	if c.HTTPTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at least 1 second", c.HTTPTimeout))
	} else if c.HTTPTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at most 5 minutes", c.HTTPTimeout))
	}

	for name, ttl := range map[string]time.Duration{
		"transaction cache TTL": c.TransactionCacheTTL,
		"category cache TTL":    c.CategoryCacheTTL,
		"summary cache TTL":     c.SummaryCacheTTL,
	} {
		if ttl < time.Second {
			errors = append(errors, fmt.Sprintf("invalid %s %v: must be at least 1 second", name, ttl))
		} else if ttl > 24*time.Hour {
			errors = append(errors, fmt.Sprintf("invalid %s %v: must be at most 24 hours", name, ttl))
		}
	}

	// Validate page size
	if c.DefaultPageSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be at least 1", c.DefaultPageSize))
	} else if c.DefaultPageSize > 100 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be at most 100", c.DefaultPageSize))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
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
