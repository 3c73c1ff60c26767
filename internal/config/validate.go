package config

import (
	"fmt"
	"net"
	"strings"
)

// Validate returns one error listing every invalid setting.
func (c *Config) Validate() error {
	var errs []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Sprintf(format, args...))
		}
	}

	check(c.Database.URL != "", "DATABASE_URL is required")
	check(c.Database.MaxConns > 0, "DB_MAX_CONNS must be positive")
	check(c.Database.MinConns >= 0, "DB_MIN_CONNS must be non-negative")
	check(c.Database.MaxConns >= c.Database.MinConns,
		"DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", c.Database.MaxConns, c.Database.MinConns)

	check(c.Server.Port > 0 && c.Server.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", c.Server.Port)
	check(c.Server.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	check(c.Server.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	check(c.Server.RequestTimeout > 0, "SERVER_REQUEST_TIMEOUT must be positive")

	check(c.Import.MaxFileSize > 0, "IMPORT_MAX_FILE_SIZE must be positive")
	check(c.Import.MaxRows >= 0, "IMPORT_MAX_ROWS must be non-negative")
	check(c.Import.MaxConcurrent > 0, "IMPORT_MAX_CONCURRENT must be positive")
	check(c.Import.MaxWaitTime > 0, "IMPORT_MAX_WAIT_TIME must be positive")
	check(c.Import.SessionTTL > 0, "IMPORT_SESSION_TTL must be positive")
	check(c.Import.CopyBatchSize > 0, "IMPORT_COPY_BATCH_SIZE must be positive")
	check(c.Import.ErrorSampleSize > 0, "IMPORT_ERROR_SAMPLE_SIZE must be positive")

	if c.Rate.Enabled {
		check(c.Rate.RequestsPerMinute > 0, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
		check(c.Rate.ImportLimit > 0, "RATE_LIMIT_IMPORT must be positive when rate limiting is enabled")
	}

	check(!c.Security.RequireAPIKey || len(c.Security.APIKeys) > 0,
		"REQUIRE_API_KEY is true but API_KEYS is empty")
	for _, cidr := range c.Security.TrustedProxies {
		_, _, err := net.ParseCIDR(cidr)
		check(err == nil, "TRUSTED_PROXIES entry %q is not a CIDR", cidr)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// String describes the config for logs with the database URL masked.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Server: {Addr: %q}, Database: {URL: [MASKED], MaxConns: %d, MinConns: %d, AutoMigrate: %v}, "+
		"Import: {MaxFileSize: %d, MaxRows: %d, MaxConcurrent: %d, SessionTTL: %s}, "+
		"Rate: {Enabled: %v, RequestsPerMinute: %d, ImportLimit: %d}, "+
		"Archive: {Bucket: %q}, Logging: {Level: %q, Format: %q}}",
		c.Server.Addr(), c.Database.MaxConns, c.Database.MinConns, c.Database.AutoMigrate,
		c.Import.MaxFileSize, c.Import.MaxRows, c.Import.MaxConcurrent, c.Import.SessionTTL,
		c.Rate.Enabled, c.Rate.RequestsPerMinute, c.Rate.ImportLimit,
		c.Archive.Bucket, c.Logging.Level, c.Logging.Format)
}
