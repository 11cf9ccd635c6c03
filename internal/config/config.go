package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is shared by the server, the sync worker and budgetctl.
// Values come from defaults, then the optional TOML file named by
// BUDGET_CONFIG, then environment variables.
type Config struct {
	// HTTP Server
	Port string `toml:"port"`

	// Ledger
	DataBackend     string `toml:"data_backend"`
	DataDir         string `toml:"data_dir"`
	SQLiteDBPath    string `toml:"sqlite_db_path"`
	CategoryCascade string `toml:"category_cascade"`

	// Sessions
	SessionSecret    string        `toml:"session_secret"`
	SessionTTL       time.Duration `toml:"session_ttl"`
	SessionCacheSize int           `toml:"session_cache_size"`
	SecureCookie     bool          `toml:"secure_cookie"`

	// AMQP
	AMQPURL      string `toml:"amqp_url"`
	AMQPExchange string `toml:"amqp_exchange"`
	AMQPQueue    string `toml:"amqp_queue"`

	// Google Sheets mirror
	GoogleSpreadsheetID      string `toml:"google_spreadsheet_id"`
	GoogleServiceAccountJSON string `toml:"google_service_account_json"`
	GoogleServiceAccountFile string `toml:"google_service_account_file"`

	// Export archive
	ExportS3Bucket    string `toml:"export_s3_bucket"`
	ExportS3Region    string `toml:"export_s3_region"`
	ExportS3Endpoint  string `toml:"export_s3_endpoint"`
	ExportS3AccessKey string `toml:"export_s3_access_key"`
	ExportS3SecretKey string `toml:"export_s3_secret_key"`

	// Worker
	WorkerConcurrency int `toml:"worker_concurrency"`

	LogLevel string `toml:"log_level"`
}

// ValidBackends lists the accepted DATA_BACKEND values.
var ValidBackends = []string{"file", "memory", "sqlite"}

const devSessionSecret = "dev-insecure-session-secret-change-me"

func defaults() *Config {
	return &Config{
		Port:              "8081",
		DataBackend:       "file",
		DataDir:           "./data",
		SQLiteDBPath:      "./data/budget.db",
		CategoryCascade:   "delete",
		SessionSecret:     devSessionSecret,
		SessionTTL:        12 * time.Hour,
		SessionCacheSize:  1000,
		AMQPExchange:      "budget",
		AMQPQueue:         "sync_summaries",
		ExportS3Region:    "us-east-1",
		WorkerConcurrency: 2,
		LogLevel:          "info",
	}
}

// Load builds the configuration. A missing BUDGET_CONFIG is fine; a
// BUDGET_CONFIG that cannot be read or parsed is an error.
func Load() (*Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("BUDGET_CONFIG")); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)

	c.DataBackend = getEnv("DATA_BACKEND", c.DataBackend)
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.CategoryCascade = getEnv("CATEGORY_CASCADE", c.CategoryCascade)

	c.SessionSecret = getEnv("SESSION_SECRET", c.SessionSecret)
	c.SessionTTL = getEnvDuration("SESSION_TTL", c.SessionTTL)
	c.SessionCacheSize = getEnvInt("SESSION_CACHE_SIZE", c.SessionCacheSize)
	c.SecureCookie = getEnvBool("SECURE_COOKIE", c.SecureCookie)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)

	c.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", c.GoogleSpreadsheetID)
	c.GoogleServiceAccountJSON = getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", c.GoogleServiceAccountJSON)
	c.GoogleServiceAccountFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", c.GoogleServiceAccountFile)

	c.ExportS3Bucket = getEnv("EXPORT_S3_BUCKET", c.ExportS3Bucket)
	c.ExportS3Region = getEnv("EXPORT_S3_REGION", c.ExportS3Region)
	c.ExportS3Endpoint = getEnv("EXPORT_S3_ENDPOINT", c.ExportS3Endpoint)
	c.ExportS3AccessKey = getEnv("EXPORT_S3_ACCESS_KEY", c.ExportS3AccessKey)
	c.ExportS3SecretKey = getEnv("EXPORT_S3_SECRET_KEY", c.ExportS3SecretKey)

	c.WorkerConcurrency = getEnvInt("WORKER_CONCURRENCY", c.WorkerConcurrency)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// UsesDevSecret reports whether sessions are signed with the built-in secret.
func (c *Config) UsesDevSecret() bool {
	return c.SessionSecret == devSessionSecret
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(ValidBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, ValidBackends))
	}

	switch c.DataBackend {
	case "file":
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.CategoryCascade != "delete" && c.CategoryCascade != "keep" {
		errors = append(errors, fmt.Sprintf("invalid category cascade '%s': must be 'delete' or 'keep'", c.CategoryCascade))
	}

	if len(c.SessionSecret) < 16 {
		errors = append(errors, "session secret must be at least 16 characters")
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.SessionCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid session cache size %d: must be at least 1", c.SessionCacheSize))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if c.ExportS3Bucket != "" {
		if c.ExportS3Region == "" {
			errors = append(errors, "export S3 region cannot be empty when a bucket is configured")
		}
		if (c.ExportS3AccessKey == "") != (c.ExportS3SecretKey == "") {
			errors = append(errors, "export S3 access key and secret key must be set together")
		}
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid worker concurrency %d: must be between 1 and 64", c.WorkerConcurrency))
	}

	// Return combined errors
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
