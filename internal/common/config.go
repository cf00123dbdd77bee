// Package common provides shared utilities for the paper-trading server.
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the server.
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Ledger      LedgerConfig  `toml:"ledger"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Driver    string `toml:"driver"` // "surrealdb" or "badger"
	Address   string `toml:"address"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Path      string `toml:"path"` // badger data directory
}

// ClientsConfig holds API client configurations.
type ClientsConfig struct {
	Binance  BinanceConfig  `toml:"binance"`
	DeepSeek DeepSeekConfig `toml:"deepseek"`
	Gemini   GeminiConfig   `toml:"gemini"`
}

// BinanceConfig holds Binance market-data API configuration.
type BinanceConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration.
func (c *BinanceConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// DeepSeekConfig holds DeepSeek completion API configuration.
type DeepSeekConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration.
func (c *DeepSeekConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GeminiConfig holds Gemini API configuration.
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// LedgerConfig holds trading-ledger and valuation-job configuration.
type LedgerConfig struct {
	Symbols           []string `toml:"symbols"`            // symbol universe, without the USDT suffix
	ValuationInterval string   `toml:"valuation_interval"` // duration string, default "10m"
	RetentionInterval string   `toml:"retention_interval"` // duration string, default "24h"
	RetentionDays     int      `toml:"retention_days"`     // history retention window, default 30
}

// GetValuationInterval parses and returns the valuation cycle interval.
func (c *LedgerConfig) GetValuationInterval() time.Duration {
	d, err := time.ParseDuration(c.ValuationInterval)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// GetRetentionInterval parses and returns the retention sweep interval.
func (c *LedgerConfig) GetRetentionInterval() time.Duration {
	d, err := time.ParseDuration(c.RetentionInterval)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// GetRetentionWindow returns the retention window as a duration.
func (c *LedgerConfig) GetRetentionWindow() time.Duration {
	days := c.RetentionDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Driver:    "badger",
			Address:   "ws://localhost:8000",
			Username:  "root",
			Password:  "root",
			Namespace: "papertrade",
			Database:  "papertrade",
			Path:      "data/ledger",
		},
		Clients: ClientsConfig{
			Binance: BinanceConfig{
				BaseURL:   "https://api.binance.com",
				RateLimit: 10,
				Timeout:   "30s",
			},
			DeepSeek: DeepSeekConfig{
				BaseURL: "https://api.deepseek.com",
				Model:   "deepseek-chat",
				Timeout: "60s",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
		},
		Ledger: LedgerConfig{
			Symbols:           []string{"BTC", "ETH", "BNB", "XRP", "DOGE"},
			ValuationInterval: "10m",
			RetentionInterval: "24h",
			RetentionDays:     30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PAPERTRADE_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("PAPERTRADE_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("PAPERTRADE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("PAPERTRADE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if driver := os.Getenv("PAPERTRADE_STORAGE_DRIVER"); driver != "" {
		config.Storage.Driver = driver
	}

	if addr := os.Getenv("PAPERTRADE_STORAGE_ADDRESS"); addr != "" {
		config.Storage.Address = addr
	}

	if path := os.Getenv("PAPERTRADE_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if symbols := os.Getenv("PAPERTRADE_SYMBOLS"); symbols != "" {
		parts := strings.Split(symbols, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.ToUpper(strings.TrimSpace(p)); s != "" {
				cleaned = append(cleaned, s)
			}
		}
		if len(cleaned) > 0 {
			config.Ledger.Symbols = cleaned
		}
	}

	if v := os.Getenv("DEEPSEEK_API_KEY"); v != "" {
		config.Clients.DeepSeek.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Clients.Gemini.APIKey = v
	}
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
