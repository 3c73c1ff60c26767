// Package config loads application settings from environment variables.
// Every field names its variable in an `env` tag; `default` and `required`
// tags fill gaps, and Validate reports every bad value at once.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Archive  ArchiveConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds every request through the Timeout middleware.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	// URL accepts DATABASE_URL or DB_URL.
	URL             string        `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`
	MaxConns        int           `env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// AutoMigrate applies pending migrations at server start.
	AutoMigrate bool `env:"DB_AUTO_MIGRATE" default:"true"`
}

// ImportConfig holds statement import settings.
type ImportConfig struct {
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"20971520"`

	// MaxRows rejects files with more data rows. Zero disables the check.
	MaxRows int `env:"IMPORT_MAX_ROWS" default:"100000"`

	MaxConcurrent int           `env:"IMPORT_MAX_CONCURRENT" default:"5"`
	MaxWaitTime   time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`

	// SessionTTL is how long a prepared import stays available.
	SessionTTL time.Duration `env:"IMPORT_SESSION_TTL" default:"30m"`

	// CopyBatchSize is the number of transfers per COPY round trip.
	CopyBatchSize int `env:"IMPORT_COPY_BATCH_SIZE" default:"1000"`

	// ErrorSampleSize caps the row errors returned with a summary.
	ErrorSampleSize int `env:"IMPORT_ERROR_SAMPLE_SIZE" default:"50"`
}

// RateLimitConfig holds per-client rate limits.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// ImportLimit applies to uploads and commits.
	ImportLimit int `env:"RATE_LIMIT_IMPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies lists CIDRs whose forwarding headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// APIKeys are accepted in the X-API-Key header or as a Bearer token.
	APIKeys       []string `env:"API_KEYS"`
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	EnableCSP     bool     `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`
}

// ArchiveConfig enables statement archival to Cloud Storage when Bucket is set.
type ArchiveConfig struct {
	Bucket string `env:"ARCHIVE_GCS_BUCKET"`
	Prefix string `env:"ARCHIVE_GCS_PREFIX" default:"statements"`
}

// Enabled reports whether statements should be archived.
func (c ArchiveConfig) Enabled() bool {
	return c.Bucket != ""
}

// Addr returns the listen address in host:port form.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
