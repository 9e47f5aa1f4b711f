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
)

type Config struct {
	// HTTP server
	Port            string
	ShutdownTimeout time.Duration
	RateLimitRPM    int

	// Logging
	LogLevel string
	LogJSON  bool

	// Ledger
	Timezone    string // IANA name used for month/year windows
	CacheSize   int
	CacheTTL    time.Duration
	RecentLimit int
	SearchLimit int

	// Storage backend
	DataBackend     string
	SQLiteDBPath    string
	SnapshotHistory int
	GCSBucket       string
	GCSPrefix       string

	// Google credentials (service account JSON), shared by GCS and Sheets
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// Ledger mirror (worker)
	GoogleSpreadsheetID string
	GoogleSheetName     string
	MirrorInterval      time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Notifications
	NotificationsEnabled bool

	// AI advisor
	GeminiAPIKey    string
	GeminiModel     string
	AdvisorTimeout  time.Duration
	AdvisorMaxItems int
}

var validBackends = []string{"memory", "sqlite", "gcs"}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8081"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		RateLimitRPM:    getEnvInt("RATE_LIMIT_RPM", 120),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  getEnvBool("LOG_JSON", false),

		Timezone:    getEnv("LEDGER_TIMEZONE", "Local"),
		CacheSize:   getEnvInt("LEDGER_CACHE_SIZE", 64),
		CacheTTL:    getEnvDuration("LEDGER_CACHE_TTL", 10*time.Minute),
		RecentLimit: getEnvInt("DASHBOARD_RECENT", 5),
		SearchLimit: getEnvInt("SEARCH_LIMIT", 200),

		DataBackend:     getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath:    getEnv("SQLITE_DB_PATH", "./data/masarify.db"),
		SnapshotHistory: getEnvInt("SNAPSHOT_HISTORY", 10),
		GCSBucket:       getEnv("GCS_BUCKET", ""),
		GCSPrefix:       getEnv("GCS_PREFIX", "masarify"),

		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:       getEnv("GOOGLE_SHEET_NAME", "Ledger"),
		MirrorInterval:        getEnvDuration("MIRROR_INTERVAL", 15*time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "masarify"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "masarify_events"),

		NotificationsEnabled: getEnvBool("NOTIFICATIONS_ENABLED", true),

		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		AdvisorTimeout:  getEnvDuration("ADVISOR_TIMEOUT", 60*time.Second),
		AdvisorMaxItems: getEnvInt("ADVISOR_MAX_TRANSACTIONS", 100),
	}
}

// Location resolves Timezone, falling back to the process-local zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// GoogleCredentials returns the service-account JSON, reading the file if needed.
func (c *Config) GoogleCredentials() (string, error) {
	if c.GoogleCredentialsJSON != "" {
		return c.GoogleCredentialsJSON, nil
	}
	if c.GoogleCredentialsFile == "" {
		return "", nil
	}
	b, err := os.ReadFile(c.GoogleCredentialsFile)
	if err != nil {
		return "", fmt.Errorf("read google credentials: %w", err)
	}
	return string(b), nil
}

// MirrorEnabled reports whether the worker should mirror the ledger to Sheets.
func (c *Config) MirrorEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	case "gcs":
		if c.GCSBucket == "" {
			errs = append(errs, "GCS_BUCKET is required when using gcs backend")
		}
	}

	if c.GoogleCredentialsFile != "" {
		if _, err := os.Stat(c.GoogleCredentialsFile); err != nil {
			errs = append(errs, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
		}
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.Timezone != "" && c.Timezone != "Local" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
		}
	}

	if c.CacheSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.RateLimitRPM < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitRPM))
	}
	if c.AdvisorMaxItems < 1 || c.AdvisorMaxItems > 1000 {
		errs = append(errs, fmt.Sprintf("invalid advisor transaction cap %d: must be between 1 and 1000", c.AdvisorMaxItems))
	}
	if c.AdvisorTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid advisor timeout %v: must be at least 1 second", c.AdvisorTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
