// Package config loads configuration from files, env vars, and flags, and validates it.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatabaseConfig holds database connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	PasswordFile    string        `mapstructure:"password_file"`
	PasswordPrompt  bool          `mapstructure:"password_prompt"`
	Database        string        `mapstructure:"database"`
	Schema          string        `mapstructure:"schema"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port               int           `mapstructure:"port"`
	AdminToken         string        `mapstructure:"admin_token"`
	AdminTokenHeader   string        `mapstructure:"admin_token_header"`
	BrowseRowLimit     int           `mapstructure:"browse_row_limit"`
	CORSEnabled        bool          `mapstructure:"cors_enabled"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
	CORSAllowedMethods []string      `mapstructure:"cors_allowed_methods"`
	CORSAllowedHeaders []string      `mapstructure:"cors_allowed_headers"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging parameters.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// DSN builds the Postgres connection string for the pgx stdlib driver.
func (c *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + strconv.Itoa(c.Port),
		Path:   "/" + c.Database,
	}
	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port must be between 1 and 65535, got %d", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database.database is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.BrowseRowLimit <= 0 {
		return fmt.Errorf("server.browse_row_limit must be positive, got %d", c.Server.BrowseRowLimit)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	switch c.Database.SSLMode {
	case "", "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("database.ssl_mode %q is not a valid Postgres sslmode", c.Database.SSLMode)
	}
	return nil
}
