package config

import (
	"strconv"
	"time"

	redisclient "github.com/Proton-105/rental-agent/pkg/redis"
)

// Config holds runtime configuration for the rental agent.
type Config struct {
	AppEnv       string             `mapstructure:"app_env"`
	Service      ServiceConfig      `mapstructure:"service"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Sentry       SentryConfig       `mapstructure:"sentry"`
	Server       ServerConfig       `mapstructure:"server"`
	MCP          MCPConfig          `mapstructure:"mcp"`
	Inventory    InventoryConfig    `mapstructure:"inventory"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Session      SessionConfig      `mapstructure:"session"`
	Workflow     WorkflowConfig     `mapstructure:"workflow"`
	Verification VerificationConfig `mapstructure:"verification"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Jobs         JobsConfig         `mapstructure:"jobs"`
}

type ServiceConfig struct {
	Name    string `mapstructure:"name" validate:"required"`
	Version string `mapstructure:"version" validate:"required"`
}

type LoggerConfig struct {
	Level  string        `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string        `mapstructure:"format" validate:"oneof=json text"`
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig enables lumberjack rotation when Path is set.
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

type SentryConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	DSN              string  `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Level            string  `mapstructure:"level"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate" validate:"gte=0,lte=1"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"gte=1,lte=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type MCPConfig struct {
	// Transport is used by the serve command; the mcp command always speaks stdio.
	Transport string `mapstructure:"transport" validate:"oneof=sse stdio none"`
	BaseURL   string `mapstructure:"base_url" validate:"omitempty,url"`
}

type InventoryConfig struct {
	Backend     string        `mapstructure:"backend" validate:"oneof=file sheets postgres dynamodb"`
	FilePath    string        `mapstructure:"file_path" validate:"required_if=Backend file"`
	DatabaseURL string        `mapstructure:"database_url" validate:"required_if=Backend postgres"`
	Sheets      SheetsConfig  `mapstructure:"sheets"`
	Dynamo      DynamoConfig  `mapstructure:"dynamo"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"gte=0"`
}

type SheetsConfig struct {
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	Range           string `mapstructure:"range"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type DynamoConfig struct {
	Table           string `mapstructure:"table"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// RedisConfig enables Redis-backed sessions, locks and rate limits when Enabled.
// The jobs worker also requires it.
type RedisConfig struct {
	Enabled            bool `mapstructure:"enabled"`
	redisclient.Config `mapstructure:",squash"`
}

type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl" validate:"gt=0"`
	LockTimeout     time.Duration `mapstructure:"lock_timeout" validate:"gt=0"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"gt=0"`
}

type WorkflowConfig struct {
	MaxNegotiationAttempts int `mapstructure:"max_negotiation_attempts" validate:"gte=1"`
	// BusinessName is what the placeholder license check reports for every license.
	BusinessName string `mapstructure:"business_name" validate:"required"`
	CompanyName  string `mapstructure:"company_name" validate:"required"`
}

type VerificationConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// RateLimitConfig bounds tool invocations per call. A zero Limit disables it.
type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit" validate:"gte=0"`
	Window time.Duration `mapstructure:"window" validate:"gte=0"`
}

type JobsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Concurrency  int    `mapstructure:"concurrency" validate:"gte=1"`
	SnapshotSpec string `mapstructure:"snapshot_spec"`
}

// Address returns the HTTP listen address.
func (c ServerConfig) Address() string {
	return ":" + strconv.Itoa(c.Port)
}
