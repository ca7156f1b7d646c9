// Package config loads locsheet settings from the environment, an optional
// YAML file named by CONFIG_FILE, and struct-tag defaults, in that order of
// precedence. Settings are validated on startup so misconfiguration fails
// fast.
package config

import (
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Upload      UploadConfig      `yaml:"upload"`
	Rate        RateLimitConfig   `yaml:"rate"`
	Security    SecurityConfig    `yaml:"security"`
	Logging     LoggingConfig     `yaml:"logging"`
	Redis       RedisConfig       `yaml:"redis"`
	Interchange InterchangeConfig `yaml:"interchange"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `yaml:"port" env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"3m"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including waiting for
	// in-flight imports to drain.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. DB_URL is accepted as well.
	URL string `yaml:"url" env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	MaxConns        int           `yaml:"max_conns" env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `yaml:"min_conns" env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// AutoMigrate applies pending migrations when the server starts.
	AutoMigrate bool `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" default:"true"`
}

// UploadConfig holds spreadsheet import limits.
type UploadConfig struct {
	MaxFileSize     int64 `yaml:"max_file_size" env:"UPLOAD_MAX_FILE_SIZE" default:"20971520"`
	MaxUnzippedSize int64 `yaml:"max_unzipped_size" env:"UPLOAD_MAX_UNZIPPED_SIZE" default:"209715200"`
	MaxRows         int   `yaml:"max_rows" env:"UPLOAD_MAX_ROWS" default:"100000"`

	// MaxConcurrent is the number of imports processed at once.
	MaxConcurrent int           `yaml:"max_concurrent" env:"UPLOAD_MAX_CONCURRENT" default:"4"`
	MaxWaitTime   time.Duration `yaml:"max_wait_time" env:"UPLOAD_MAX_WAIT_TIME" default:"15s"`
	Timeout       time.Duration `yaml:"timeout" env:"UPLOAD_TIMEOUT" default:"2m"`
}

// RateLimitConfig holds per-IP request limits.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `yaml:"requests_per_minute" env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
	UploadLimit       int  `yaml:"upload_limit" env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds authentication and proxy settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// forwarding headers are honored.
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES"`

	EnableCSP bool `yaml:"enable_csp" env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey rejects requests without a known X-API-Key.
	RequireAPIKey bool `yaml:"require_api_key" env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys lists "actor:key" pairs.
	APIKeys []string `yaml:"api_keys" env:"API_KEYS"`

	// Editors lists actor IDs allowed to export and import. Empty allows
	// every authenticated actor.
	Editors []string `yaml:"editors" env:"EDITORS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LOG_LEVEL" default:"info"`

	// Format is text or json.
	Format string `yaml:"format" env:"LOG_FORMAT" default:"text"`
}

// RedisConfig enables the per-unit import lock when URL is set.
type RedisConfig struct {
	URL     string        `yaml:"url" env:"REDIS_URL"`
	LockTTL time.Duration `yaml:"lock_ttl" env:"REDIS_LOCK_TTL" default:"5m"`
}

// InterchangeConfig holds spreadsheet interchange defaults.
type InterchangeConfig struct {
	// ToolName is recorded on translations written by uploads.
	ToolName string `yaml:"tool_name" env:"INTERCHANGE_TOOL_NAME" default:"XLSX File"`

	// DefaultLocale is the language used for messages when the request
	// does not name a supported one.
	DefaultLocale string `yaml:"default_locale" env:"INTERCHANGE_DEFAULT_LOCALE" default:"en"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Enabled reports whether a Redis URL is configured.
func (c *RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.URL) != ""
}

// Keys parses APIKeys into a key to actor ID map. Malformed entries are
// skipped; Validate reports them.
func (c *SecurityConfig) Keys() map[string]string {
	keys := make(map[string]string, len(c.APIKeys))
	for _, entry := range c.APIKeys {
		actor, key, ok := splitAPIKey(entry)
		if ok {
			keys[key] = actor
		}
	}
	return keys
}

func splitAPIKey(entry string) (actor, key string, ok bool) {
	actor, key, ok = strings.Cut(entry, ":")
	actor, key = strings.TrimSpace(actor), strings.TrimSpace(key)
	return actor, key, ok && actor != "" && key != ""
}
