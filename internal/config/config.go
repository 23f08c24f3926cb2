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

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	// HTTP Server
	Port           string
	RateLimit      int
	TrustedProxies []string

	// Logging
	LogLevel string
	LogJSON  bool

	// Storage
	DataBackend  string
	SQLiteDBPath string

	// Template cache in front of the repository
	TemplateCacheSize int
	TemplateCacheTTL  time.Duration

	// AMQP; an empty URL disables event publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export; an empty spreadsheet ID exports in memory
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Reminder worker
	ReminderInterval    time.Duration
	ReminderHorizon     time.Duration
	ReminderConcurrency int
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		RateLimit:      getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  getEnv("LOG_FORMAT", "text") == "json",

		DataBackend:  getEnv("DATA_BACKEND", BackendMemory),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/ricorrenze.db"),

		TemplateCacheSize: getEnvInt("TEMPLATE_CACHE_SIZE", 256),
		TemplateCacheTTL:  getEnvDuration("TEMPLATE_CACHE_TTL", 5*time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ricorrenze"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "occurrence_events"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Ricorrenze"),

		ReminderInterval:    getEnvDuration("REMINDER_INTERVAL", time.Hour),
		ReminderHorizon:     getEnvDuration("REMINDER_HORIZON", 72*time.Hour),
		ReminderConcurrency: getEnvInt("REMINDER_CONCURRENCY", 4),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimit))
	}

	switch c.DataBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s]", c.DataBackend, BackendMemory, BackendSQLite))
	}

	if c.TemplateCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid template cache size %d: must be at least 1", c.TemplateCacheSize))
	}
	if c.TemplateCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid template cache TTL %v: must be positive", c.TemplateCacheTTL))
	}

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

	if c.GoogleSpreadsheetID != "" && strings.TrimSpace(c.GoogleSheetName) == "" {
		errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
	}

	if c.ReminderInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at least 1 minute", c.ReminderInterval))
	}
	if c.ReminderHorizon < 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reminder horizon %v: must be at least 24 hours", c.ReminderHorizon))
	}
	if c.ReminderConcurrency < 1 || c.ReminderConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid reminder concurrency %d: must be between 1 and 64", c.ReminderConcurrency))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// RequireAMQP reports an error when a command that cannot run without a
// broker is started without one.
func (c *Config) RequireAMQP() error {
	if c.AMQPURL == "" {
		return fmt.Errorf("AMQP_URL is required")
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

func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
