// Package config provides configuration loading and validation utilities.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultEnv = "development"

// Load reads .env files, ./configs/<APP_ENV>.yaml (or CONFIG_FILE) when present
// and the environment, validates the result and returns it with the viper
// instance used for Watch.
func Load() (*Config, *viper.Viper, error) {
	// .env files are optional
	_ = godotenv.Load(".env.local", ".env")

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = fmt.Sprintf("./configs/%s.yaml", appEnv())
	}

	return LoadFile(path)
}

// LoadFile is Load with an explicit config file. A missing file is not an error.
func LoadFile(path string) (*Config, *viper.Viper, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}

	return cfg, v, nil
}

// Watch re-decodes the config file on every change and passes valid results to
// onChange. Invalid edits are logged and ignored. Without a config file it does nothing.
func Watch(v *viper.Viper, log *slog.Logger, onChange func(*Config)) {
	if v == nil || v.ConfigFileUsed() == "" {
		return
	}
	if _, err := os.Stat(v.ConfigFileUsed()); err != nil {
		return
	}
	if log == nil {
		log = slog.Default()
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		cfg, err := decode(v)
		if err != nil {
			log.Error("ignoring invalid config change", slog.String("file", e.Name), slog.Any("error", err))
			return
		}

		log.Info("config reloaded", slog.String("file", e.Name))
		onChange(cfg)
	})
	v.WatchConfig()
}

func appEnv() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return defaultEnv
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	bindLegacyEnv(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = appEnv()
	}

	if err := newValidator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", appEnv())

	v.SetDefault("service.name", "rental-agent")
	v.SetDefault("service.version", "1.0.0")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.file.path", "")
	v.SetDefault("logger.file.max_size_mb", 100)
	v.SetDefault("logger.file.max_backups", 5)
	v.SetDefault("logger.file.max_age_days", 14)
	v.SetDefault("logger.file.compress", true)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.level", "error")
	v.SetDefault("sentry.traces_sample_rate", 0.0)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("mcp.transport", "sse")
	v.SetDefault("mcp.base_url", "")

	v.SetDefault("inventory.backend", "file")
	v.SetDefault("inventory.file_path", "data/inventory.csv")
	v.SetDefault("inventory.database_url", "")
	v.SetDefault("inventory.sheets.spreadsheet_id", "")
	v.SetDefault("inventory.sheets.range", "Inventory!A:J")
	v.SetDefault("inventory.sheets.credentials_file", "")
	v.SetDefault("inventory.dynamo.table", "rental_inventory")
	v.SetDefault("inventory.dynamo.region", "us-east-1")
	v.SetDefault("inventory.dynamo.endpoint", "")
	v.SetDefault("inventory.dynamo.access_key_id", "")
	v.SetDefault("inventory.dynamo.secret_access_key", "")
	v.SetDefault("inventory.timeout", 5*time.Second)
	v.SetDefault("inventory.max_retries", 2)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.pool_timeout", 4*time.Second)
	v.SetDefault("redis.idle_timeout", 5*time.Minute)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.min_retry_backoff", 8*time.Millisecond)
	v.SetDefault("redis.max_retry_backoff", 512*time.Millisecond)

	v.SetDefault("session.ttl", 2*time.Hour)
	v.SetDefault("session.lock_timeout", 5*time.Second)
	v.SetDefault("session.cleanup_interval", time.Minute)

	v.SetDefault("workflow.max_negotiation_attempts", 3)
	v.SetDefault("workflow.business_name", "Metro Construction LLC")
	v.SetDefault("workflow.company_name", "Metro Equipment Rentals")

	v.SetDefault("verification.timeout", 5*time.Second)

	v.SetDefault("rate_limit.limit", 60)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("jobs.enabled", false)
	v.SetDefault("jobs.concurrency", 5)
	v.SetDefault("jobs.snapshot_spec", "*/15 * * * *")
}

// bindLegacyEnv keeps the variable names used by existing deployments working.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("inventory.database_url", "INVENTORY_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("inventory.sheets.spreadsheet_id", "INVENTORY_SHEETS_SPREADSHEET_ID", "GOOGLE_SHEET_ID")
	_ = v.BindEnv("inventory.sheets.range", "INVENTORY_SHEETS_RANGE", "GOOGLE_SHEETS_RANGE")
	_ = v.BindEnv("inventory.sheets.credentials_file", "INVENTORY_SHEETS_CREDENTIALS_FILE", "GOOGLE_CREDENTIALS_FILE")
	_ = v.BindEnv("server.port", "SERVER_PORT", "HEALTH_PORT")
}

func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterStructValidation(validateInventory, InventoryConfig{})
	validate.RegisterStructValidation(validateConfig, Config{})
	return validate
}

func validateInventory(sl validator.StructLevel) {
	inv := sl.Current().Interface().(InventoryConfig)
	if inv.Backend == "sheets" && inv.Sheets.SpreadsheetID == "" {
		sl.ReportError(inv.Sheets.SpreadsheetID, "Sheets.SpreadsheetID", "SpreadsheetID", "required_for_sheets", "")
	}
	if inv.Backend == "dynamodb" && inv.Dynamo.Table == "" {
		sl.ReportError(inv.Dynamo.Table, "Dynamo.Table", "Table", "required_for_dynamodb", "")
	}
}

func validateConfig(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	if cfg.Jobs.Enabled && !cfg.Redis.Enabled {
		sl.ReportError(cfg.Jobs.Enabled, "Jobs.Enabled", "Enabled", "requires_redis", "")
	}
	if cfg.RateLimit.Limit > 0 && cfg.RateLimit.Window <= 0 {
		sl.ReportError(cfg.RateLimit.Window, "RateLimit.Window", "Window", "gt", "0")
	}
}
