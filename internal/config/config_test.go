package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/forgo/nonagon/internal/codec"
)

func TestConfig_Validate_ValidConfig(t *testing.T) {
	cfg := validBaseConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestConfig_Validate_InvalidServerEnv(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Env = "invalid"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid SERVER_ENV")
	}
	if !strings.Contains(err.Error(), "SERVER_ENV") {
		t.Errorf("expected error to mention SERVER_ENV, got: %v", err)
	}
}

func TestConfig_Validate_InvalidLogLevel(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.LogLevel = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid LOG_LEVEL")
	}
	if !strings.Contains(err.Error(), "LOG_LEVEL") {
		t.Errorf("expected error to mention LOG_LEVEL, got: %v", err)
	}
}

func TestConfig_Validate_MissingDatabaseHost(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Database.Host = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing DB_HOST")
	}
	if !strings.Contains(err.Error(), "DB_HOST") {
		t.Errorf("expected error to mention DB_HOST, got: %v", err)
	}
}

func TestConfig_Validate_ProductionRejectsDefaultPassword(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Env = "production"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for default DB_PASSWORD in production")
	}
	if !strings.Contains(err.Error(), "DB_PASSWORD") {
		t.Errorf("expected error to mention DB_PASSWORD, got: %v", err)
	}

	cfg.Database.Password = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid production config, got error: %v", err)
	}
}

func TestConfig_Validate_Redis(t *testing.T) {
	tests := []struct {
		name    string
		redis   RedisConfig
		wantErr string
	}{
		{"disabled", RedisConfig{}, ""},
		{"valid url", RedisConfig{URL: "redis://localhost:6379/0", ClaimTTL: 30 * time.Second}, ""},
		{"bad scheme", RedisConfig{URL: "http://localhost:6379", ClaimTTL: 30 * time.Second}, "REDIS_URL"},
		{"zero ttl", RedisConfig{URL: "redis://localhost:6379/0"}, "REDIS_CLAIM_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBaseConfig()
			cfg.Redis = tt.redis

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %s, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfig_Validate_NegativeMaxAttempts(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Allocator.MaxAttempts = -1

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "ID_MAX_ATTEMPTS") {
		t.Errorf("expected error mentioning ID_MAX_ATTEMPTS, got: %v", err)
	}
}

func TestConfig_Validate_UnknownEnumPolicy(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Codec.UnknownEnums = "ignore"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "CODEC_UNKNOWN_ENUMS") {
		t.Errorf("expected error mentioning CODEC_UNKNOWN_ENUMS, got: %v", err)
	}
}

func TestConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{
			Env:      "invalid",
			LogLevel: "info",
		},
		Database: DatabaseConfig{
			Host: "",
		},
		Allocator: AllocatorConfig{MaxAttempts: -3},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected multiple validation errors")
	}

	errStr := err.Error()
	expectedFields := []string{"SERVER_ENV", "LIFECYCLE_INTERVAL", "LIFECYCLE_CONCURRENCY", "DB_HOST", "DB_PORT", "ID_MAX_ATTEMPTS"}
	for _, field := range expectedFields {
		if !strings.Contains(errStr, field) {
			t.Errorf("expected error to mention %s, got: %v", field, err)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.LifecycleInterval != time.Minute {
		t.Errorf("LifecycleInterval = %v, want 1m", cfg.Server.LifecycleInterval)
	}
	if cfg.Redis.Enabled() {
		t.Error("expected Redis to be disabled by default")
	}
	if cfg.Redis.ClaimTTL != 30*time.Second {
		t.Errorf("ClaimTTL = %v, want 30s", cfg.Redis.ClaimTTL)
	}
	if cfg.Allocator.MaxAttempts != 0 {
		t.Errorf("MaxAttempts = %d, want 0", cfg.Allocator.MaxAttempts)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "surreal.internal")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LIFECYCLE_INTERVAL", "30s")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("ID_MAX_ATTEMPTS", "25")
	t.Setenv("CODEC_UNKNOWN_ENUMS", "keep")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if got := cfg.Database.Connection().Host; got != "surreal.internal" {
		t.Errorf("Host = %q, want surreal.internal", got)
	}
	if level, err := cfg.Server.SlogLevel(); err != nil || level != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, %v; want debug", level, err)
	}
	if cfg.Server.LifecycleInterval != 30*time.Second {
		t.Errorf("LifecycleInterval = %v, want 30s", cfg.Server.LifecycleInterval)
	}
	opts, err := cfg.Redis.Options()
	if err != nil {
		t.Fatalf("Options() error: %v", err)
	}
	if opts.Addr != "cache:6379" || opts.DB != 1 {
		t.Errorf("redis options = %s db %d, want cache:6379 db 1", opts.Addr, opts.DB)
	}
	if cfg.Allocator.MaxAttempts != 25 {
		t.Errorf("MaxAttempts = %d, want 25", cfg.Allocator.MaxAttempts)
	}
	if policy, _ := cfg.Codec.Policy(); policy != codec.KeepUnknownEnums {
		t.Errorf("Policy() = %v, want keep", policy)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("LIFECYCLE_INTERVAL", "soon")

	if _, err := Load(); err == nil {
		t.Error("expected error for unparsable LIFECYCLE_INTERVAL")
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Env: "development"}}
	if !cfg.IsDevelopment() {
		t.Error("expected IsDevelopment() to return true")
	}

	cfg.Server.Env = "production"
	if cfg.IsDevelopment() {
		t.Error("expected IsDevelopment() to return false in production")
	}
}

func TestConfig_IsProduction(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Env: "production"}}
	if !cfg.IsProduction() {
		t.Error("expected IsProduction() to return true")
	}

	cfg.Server.Env = "development"
	if cfg.IsProduction() {
		t.Error("expected IsProduction() to return false in development")
	}
}

// validBaseConfig returns a minimal valid configuration for testing
func validBaseConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Env:                  "development",
			LogLevel:             "info",
			LifecycleInterval:    time.Minute,
			LifecycleConcurrency: 4,
			ShutdownTimeout:      15 * time.Second,
		},
		Database: DatabaseConfig{
			Host:      "localhost",
			Port:      "8000",
			Namespace: "nonagon",
			Database:  "main",
			User:      "root",
			Password:  "root",
		},
		Redis: RedisConfig{
			ClaimTTL: 30 * time.Second,
		},
		Codec: CodecConfig{
			UnknownEnums: "reject",
		},
	}
}
