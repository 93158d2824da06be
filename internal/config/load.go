package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var defineFlagsOnce sync.Once

// Load loads configuration from multiple sources with the following precedence:
// 1. Explicit overrides (v.Set) – used only for password file / prompt
// 2. Command line flags
// 3. Environment variables
// 4. Config file
// 5. Default values
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	defineFlags()
	if !pflag.Parsed() {
		pflag.Parse()
	}

	cfgPath, _ := pflag.CommandLine.GetString("config")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.SetConfigName("tableadmin")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/tableadmin/")
		v.AddConfigPath("$HOME/.tableadmin")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgPath != "" {
			return nil, fmt.Errorf("failed to read config file %q: %w", cfgPath, err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Env vars: TBLADMIN_DATABASE_MAX_OPEN_CONNS etc.
	v.SetEnvPrefix("TBLADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	bindChangedFlagsToViper(v)

	// Password from file (explicit override)
	if v.GetString("database.password") == "" && v.GetString("database.password_file") != "" {
		password, err := readPasswordFile(v.GetString("database.password_file"))
		if err != nil {
			return nil, fmt.Errorf("failed to read database password file: %w", err)
		}
		v.Set("database.password", password)
	}

	// Interactive password prompt (explicit override)
	if v.GetBool("database.password_prompt") && v.GetString("database.password") == "" {
		password, err := promptPassword()
		if err != nil {
			return nil, fmt.Errorf("failed to read database password: %w", err)
		}
		v.Set("database.password", password)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "postgres")
	v.SetDefault("database.schema", "public")
	v.SetDefault("database.ssl_mode", "prefer")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.admin_token_header", "X-Admin-Token")
	v.SetDefault("server.browse_row_limit", 100)
	v.SetDefault("server.cors_enabled", false)
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Content-Type", "X-Admin-Token", "X-Request-ID"})
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

func defineFlags() {
	defineFlagsOnce.Do(func() {
		pflag.String("config", "", "path to config file")
		pflag.String("db-host", "", "database host")
		pflag.Int("db-port", 0, "database port")
		pflag.String("db-user", "", "database user")
		pflag.String("db-name", "", "database name")
		pflag.String("db-schema", "", "database schema")
		pflag.Bool("db-password-prompt", false, "prompt for database password")
		pflag.Int("port", 0, "HTTP server port")
		pflag.String("log-level", "", "log level (debug, info, warn, error)")
		pflag.String("log-format", "", "log format (json, text)")
	})
}

// bindChangedFlagsToViper maps only flags the user actually set, so flag
// zero values never mask env or file settings.
func bindChangedFlagsToViper(v *viper.Viper) {
	bindings := map[string]string{
		"db-host":            "database.host",
		"db-port":            "database.port",
		"db-user":            "database.user",
		"db-name":            "database.database",
		"db-schema":          "database.schema",
		"db-password-prompt": "database.password_prompt",
		"port":               "server.port",
		"log-level":          "logging.level",
		"log-format":         "logging.format",
	}
	pflag.CommandLine.Visit(func(f *pflag.Flag) {
		if key, ok := bindings[f.Name]; ok {
			v.Set(key, f.Value.String())
		}
	})
}

func readPasswordFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Database password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(password)), nil
}
