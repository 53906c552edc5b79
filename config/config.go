// Package config loads the accrual service configuration from YAML with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DirectoryConfig points the engine at the platform's pro object store.
type DirectoryConfig struct {
	BaseURL   string        `yaml:"baseURL"`
	Token     string        `yaml:"token"`
	Timeout   time.Duration `yaml:"timeout"`
	PageSize  int           `yaml:"pageSize"`
	ScanLimit int           `yaml:"scanLimit"`
}

// LedgerConfig points the engine at the store-credit API.
type LedgerConfig struct {
	BaseURL  string        `yaml:"baseURL"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout"`
	Currency string        `yaml:"currency"`
}

// WebhookConfig controls the inbound event surface.
type WebhookConfig struct {
	Secret        string  `yaml:"secret"`
	RatePerSecond float64 `yaml:"ratePerSecond"`
	Burst         int     `yaml:"burst"`
}

// ObservabilityConfig toggles the telemetry exporters.
type ObservabilityConfig struct {
	ServiceName string `yaml:"serviceName"`
	Metrics     bool   `yaml:"metrics"`
	Tracing     bool   `yaml:"tracing"`
}

// Config is the full service configuration.
type Config struct {
	ListenAddress string              `yaml:"listen"`
	ReadTimeout   time.Duration       `yaml:"readTimeout"`
	WriteTimeout  time.Duration       `yaml:"writeTimeout"`
	IdleTimeout   time.Duration       `yaml:"idleTimeout"`
	DatabasePath  string              `yaml:"databasePath"`
	AdminToken    string              `yaml:"adminToken"`
	Directory     DirectoryConfig     `yaml:"directory"`
	Ledger        LedgerConfig        `yaml:"ledger"`
	Webhook       WebhookConfig       `yaml:"webhook"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// Environment variables overriding file values. Secrets should arrive this
// way rather than living in the config file.
const (
	EnvWebhookSecret = "PROCREDIT_WEBHOOK_SECRET"
	EnvPlatformToken = "PROCREDIT_PLATFORM_TOKEN"
	EnvAdminToken    = "PROCREDIT_ADMIN_TOKEN"
	EnvListenAddress = "PROCREDIT_LISTEN"
	EnvDatabasePath  = "PROCREDIT_DB"
	EnvDirectoryURL  = "PROCREDIT_DIRECTORY_URL"
	EnvLedgerURL     = "PROCREDIT_LEDGER_URL"
)

// Load reads the configuration file, applies defaults and environment
// overrides, and validates the result. An empty path yields pure
// defaults-plus-environment.
func Load(path string) (Config, error) {
	cfg := Config{
		ListenAddress: ":8080",
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   120 * time.Second,
		DatabasePath:  "procredit.db",
		Directory: DirectoryConfig{
			Timeout:   10 * time.Second,
			PageSize:  250,
			ScanLimit: 1000,
		},
		Ledger: LedgerConfig{
			Timeout:  10 * time.Second,
			Currency: "USD",
		},
		Webhook: WebhookConfig{
			RatePerSecond: 10,
			Burst:         20,
		},
		Observability: ObservabilityConfig{
			ServiceName: "accruald",
			Metrics:     true,
			Tracing:     false,
		},
	}
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (cfg *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvWebhookSecret)); v != "" {
		cfg.Webhook.Secret = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPlatformToken)); v != "" {
		cfg.Directory.Token = v
		cfg.Ledger.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAdminToken)); v != "" {
		cfg.AdminToken = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvListenAddress)); v != "" {
		cfg.ListenAddress = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDatabasePath)); v != "" {
		cfg.DatabasePath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDirectoryURL)); v != "" {
		cfg.Directory.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLedgerURL)); v != "" {
		cfg.Ledger.BaseURL = v
	}
}

// Validate checks the loaded configuration for required values.
func (cfg *Config) Validate() error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if strings.TrimSpace(cfg.Webhook.Secret) == "" {
		return fmt.Errorf("webhook.secret (or %s) is required", EnvWebhookSecret)
	}
	if strings.TrimSpace(cfg.Directory.BaseURL) == "" {
		return fmt.Errorf("directory.baseURL is required")
	}
	if strings.TrimSpace(cfg.Ledger.BaseURL) == "" {
		return fmt.Errorf("ledger.baseURL is required")
	}
	if strings.TrimSpace(cfg.DatabasePath) == "" {
		return fmt.Errorf("databasePath is required")
	}
	if cfg.Directory.PageSize <= 0 || cfg.Directory.PageSize > 250 {
		return fmt.Errorf("directory.pageSize must be in (0, 250]")
	}
	if cfg.Directory.ScanLimit <= 0 {
		return fmt.Errorf("directory.scanLimit must be positive")
	}
	return nil
}
