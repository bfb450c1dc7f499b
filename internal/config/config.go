package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"

	"github.com/forgo/nonagon/internal/codec"
	"github.com/forgo/nonagon/internal/database"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Allocator AllocatorConfig
	Codec     CodecConfig
}

// ServerConfig holds process-level settings
type ServerConfig struct {
	Env         string `env:"SERVER_ENV"   envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"` // empty disables the endpoint

	LifecycleInterval    time.Duration `env:"LIFECYCLE_INTERVAL"    envDefault:"1m"`
	LifecycleConcurrency int           `env:"LIFECYCLE_CONCURRENCY" envDefault:"4"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT"      envDefault:"15s"`
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string `env:"DB_HOST"      envDefault:"localhost"`
	Port      string `env:"DB_PORT"      envDefault:"8000"`
	Namespace string `env:"DB_NAMESPACE" envDefault:"nonagon"`
	Database  string `env:"DB_DATABASE"  envDefault:"main"`
	User      string `env:"DB_USER"      envDefault:"root"`
	Password  string `env:"DB_PASSWORD"  envDefault:"root"`
}

// RedisConfig holds the allocator claim store settings
type RedisConfig struct {
	URL      string        `env:"REDIS_URL"` // empty disables claims
	ClaimTTL time.Duration `env:"REDIS_CLAIM_TTL" envDefault:"30s"`
}

// AllocatorConfig bounds identifier allocation
type AllocatorConfig struct {
	MaxAttempts int `env:"ID_MAX_ATTEMPTS" envDefault:"0"` // 0 = unbounded
}

// CodecConfig holds document codec settings
type CodecConfig struct {
	UnknownEnums string `env:"CODEC_UNKNOWN_ENUMS" envDefault:"reject"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if _, err := c.Server.SlogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.Server.LifecycleInterval <= 0 {
		errs = append(errs, errors.New("LIFECYCLE_INTERVAL must be positive"))
	}
	if c.Server.LifecycleConcurrency <= 0 {
		errs = append(errs, errors.New("LIFECYCLE_CONCURRENCY must be positive"))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}
	if c.IsProduction() && c.Database.Password == "root" {
		errs = append(errs, errors.New("DB_PASSWORD must be changed from the default in production"))
	}

	// Redis validation
	if c.Redis.URL != "" {
		if _, err := redis.ParseURL(c.Redis.URL); err != nil {
			errs = append(errs, fmt.Errorf("REDIS_URL: %w", err))
		}
		if c.Redis.ClaimTTL <= 0 {
			errs = append(errs, errors.New("REDIS_CLAIM_TTL must be positive"))
		}
	}

	if c.Allocator.MaxAttempts < 0 {
		errs = append(errs, errors.New("ID_MAX_ATTEMPTS cannot be negative"))
	}

	if _, err := c.Codec.Policy(); err != nil {
		errs = append(errs, fmt.Errorf("CODEC_UNKNOWN_ENUMS: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SlogLevel parses LogLevel.
func (s ServerConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// Connection returns the storage connection settings.
func (d DatabaseConfig) Connection() database.Config {
	return database.Config{
		Host:      d.Host,
		Port:      d.Port,
		User:      d.User,
		Password:  d.Password,
		Namespace: d.Namespace,
		Database:  d.Database,
	}
}

// Enabled reports whether a Redis claim store is configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// Options parses URL into client options.
func (r RedisConfig) Options() (*redis.Options, error) {
	return redis.ParseURL(r.URL)
}

// Policy parses UnknownEnums.
func (c CodecConfig) Policy() (codec.UnknownEnumPolicy, error) {
	return codec.ParseUnknownEnumPolicy(c.UnknownEnums)
}
