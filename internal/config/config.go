// Package config loads the back-office API configuration.
//
// Values come from built-in defaults, then an optional YAML file, then
// BACKOFFICE_* environment variables. A .env file, when present, is loaded
// into the environment first by LoadDotEnv.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pazaauto.id/internal/auth"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"

	envPrefix = "BACKOFFICE_"

	minSecretLength = 32
	devSecret       = "development-only-secret-change-me-now"
)

// Config is the root configuration structure.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Provision ProvisionConfig `yaml:"provision"`
	Seed      SeedConfig      `yaml:"seed"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// HTTPConfig contains HTTP server settings.
type HTTPConfig struct {
	Addr            string          `yaml:"addr"`
	ReadTimeout     int             `yaml:"read_timeout"`
	WriteTimeout    int             `yaml:"write_timeout"`
	IdleTimeout     int             `yaml:"idle_timeout"`
	ShutdownTimeout int             `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64           `yaml:"max_body_bytes"`
	CORSOrigins     []string        `yaml:"cors_origins"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig contains per-client request limits.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// GRPCConfig contains the gRPC health server settings. An empty Addr disables it.
type GRPCConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig selects the record store.
type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	// Bootstrap creates the tables on start. Intended for SQLite development runs.
	Bootstrap bool `yaml:"bootstrap"`
}

// AuthConfig contains token settings.
type AuthConfig struct {
	Issuer                 string `yaml:"issuer"`
	Secret                 string `yaml:"secret"`
	AccessTTLHours         int    `yaml:"access_ttl_hours"`
	RefreshTTLDays         int    `yaml:"refresh_ttl_days"`
	RBACEnabled            bool   `yaml:"rbac_enabled"`
	VerifyRefreshSignature bool   `yaml:"verify_refresh_signature"`
}

// ProvisionConfig contains settings for accounts created alongside employees.
type ProvisionConfig struct {
	PlaceholderPasswordHash string `yaml:"placeholder_password_hash"`
	EmailDomain             string `yaml:"email_domain"`
}

// SeedConfig describes the admin account created on start when absent. An
// empty AdminPassword disables seeding.
type SeedConfig struct {
	AdminUsername string `yaml:"admin_username"`
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with development defaults and no secret.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
			MaxBodyBytes:    1 << 20,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Database: DatabaseConfig{
			Driver:       DriverSQLite,
			DSN:          "file:backoffice.db?_foreign_keys=on",
			MaxOpenConns: 10,
			Bootstrap:    true,
		},
		Auth: AuthConfig{
			Issuer:                 auth.DefaultIssuer,
			AccessTTLHours:         int(auth.DefaultAccessTTL / time.Hour),
			RefreshTTLDays:         int(auth.DefaultRefreshTTL / (24 * time.Hour)),
			VerifyRefreshSignature: true,
		},
		Provision: ProvisionConfig{
			EmailDomain: "example.com",
		},
		Seed: SeedConfig{
			AdminUsername: "admin",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path (skipped when empty), applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// LoadWithDefaults is Load for development: a missing secret is replaced by
// a fixed insecure value instead of failing validation.
func LoadWithDefaults(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Auth.Secret) == "" {
		cfg.Auth.Secret = devSecret
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads .env style files into the process environment. Missing
// files are ignored and existing variables are not overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// applyEnvOverrides applies BACKOFFICE_SECTION_KEY variables.
func applyEnvOverrides(cfg *Config) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	// HTTP
	str("HTTP_ADDR", &cfg.HTTP.Addr)
	if v := os.Getenv(envPrefix + "CORS_ORIGINS"); v != "" {
		cfg.HTTP.CORSOrigins = splitList(v)
	}
	boolean("RATE_LIMIT_ENABLED", &cfg.HTTP.RateLimit.Enabled)
	if v := os.Getenv(envPrefix + "RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sRATE_LIMIT_RPS: %w", envPrefix, err))
		} else {
			cfg.HTTP.RateLimit.RPS = f
		}
	}
	integer("RATE_LIMIT_BURST", &cfg.HTTP.RateLimit.Burst)

	// gRPC
	str("GRPC_ADDR", &cfg.GRPC.Addr)

	// Database
	str("DB_DRIVER", &cfg.Database.Driver)
	str("DB_DSN", &cfg.Database.DSN)
	boolean("DB_BOOTSTRAP", &cfg.Database.Bootstrap)

	// Auth
	str("JWT_ISSUER", &cfg.Auth.Issuer)
	str("JWT_SECRET", &cfg.Auth.Secret)
	integer("JWT_ACCESS_TTL_HOURS", &cfg.Auth.AccessTTLHours)
	integer("JWT_REFRESH_TTL_DAYS", &cfg.Auth.RefreshTTLDays)
	boolean("RBAC_ENABLED", &cfg.Auth.RBACEnabled)
	boolean("VERIFY_REFRESH_SIGNATURE", &cfg.Auth.VerifyRefreshSignature)

	// Provisioning
	str("PLACEHOLDER_PASSWORD_HASH", &cfg.Provision.PlaceholderPasswordHash)
	str("ACCOUNT_EMAIL_DOMAIN", &cfg.Provision.EmailDomain)

	// Seed
	str("SEED_ADMIN_USERNAME", &cfg.Seed.AdminUsername)
	str("SEED_ADMIN_EMAIL", &cfg.Seed.AdminEmail)
	str("SEED_ADMIN_PASSWORD", &cfg.Seed.AdminPassword)

	// Logging
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)

	if len(errs) > 0 {
		return fmt.Errorf("environment overrides: %w", errors.Join(errs...))
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.HTTP.Addr) == "" {
		errs = append(errs, "http.addr is required")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Sprintf("database.driver must be %q or %q", DriverPostgres, DriverSQLite))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, "database.dsn is required")
	}
	if c.Auth.Secret == "" {
		errs = append(errs, "auth.secret is required (set BACKOFFICE_JWT_SECRET)")
	} else if len(c.Auth.Secret) < minSecretLength {
		errs = append(errs, "auth.secret must be at least 32 characters")
	}
	if c.Auth.AccessTTLHours <= 0 {
		errs = append(errs, "auth.access_ttl_hours must be positive")
	}
	if c.Auth.RefreshTTLDays <= 0 {
		errs = append(errs, "auth.refresh_ttl_days must be positive")
	}
	if c.HTTP.RateLimit.Enabled && (c.HTTP.RateLimit.RPS <= 0 || c.HTTP.RateLimit.Burst <= 0) {
		errs = append(errs, "http.rate_limit rps and burst must be positive when enabled")
	}

	if c.Seed.AdminPassword != "" && strings.TrimSpace(c.Seed.AdminUsername) == "" {
		errs = append(errs, "seed.admin_username is required when seed.admin_password is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Token returns the immutable token service configuration.
func (c *Config) Token() auth.TokenConfig {
	return auth.TokenConfig{
		Issuer:                 c.Auth.Issuer,
		Secret:                 c.Auth.Secret,
		AccessTTL:              time.Duration(c.Auth.AccessTTLHours) * time.Hour,
		RefreshTTL:             time.Duration(c.Auth.RefreshTTLDays) * 24 * time.Hour,
		RBACEnabled:            c.Auth.RBACEnabled,
		VerifyRefreshSignature: c.Auth.VerifyRefreshSignature,
	}
}

// ReadTimeout returns the HTTP read timeout as a Duration.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.HTTP.ReadTimeout) * time.Second
}

// WriteTimeout returns the HTTP write timeout as a Duration.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.HTTP.WriteTimeout) * time.Second
}

// IdleTimeout returns the HTTP idle timeout as a Duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.HTTP.IdleTimeout) * time.Second
}

// ShutdownTimeout returns the graceful shutdown budget as a Duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.HTTP.ShutdownTimeout) * time.Second
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
