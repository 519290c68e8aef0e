// Package config handles loading and validating analyzer configuration from YAML files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the analyzer daemon.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Trading   TradingConfig   `yaml:"trading"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Collector CollectorConfig `yaml:"collector"`
	API       APIConfig       `yaml:"api"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"logLevel"`
}

// StorageConfig configures the candle database connection.
type StorageConfig struct {
	PostgresDSN  string   `yaml:"postgresDsn"`
	HistoryLimit int64    `yaml:"historyLimit"`
	Symbols      []string `yaml:"symbols"`
}

// RedisConfig configures the account state store.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// TelegramConfig holds notification delivery settings.
type TelegramConfig struct {
	Enabled       bool   `yaml:"enabled"`
	APIToken      string `yaml:"apiToken"`
	AlertsChatID  string `yaml:"alertsChatId"`
	Alerts2ChatID string `yaml:"alerts2ChatId"`
}

// TradingConfig holds paper trading parameters.
type TradingConfig struct {
	DominantSymbol        string  `yaml:"dominantSymbol"`
	InitialBalanceUSD     float64 `yaml:"initialBalanceUsd"`
	MinTradeAmountUSD     float64 `yaml:"minTradeAmountUsd"`
	MinProfitPercent      float64 `yaml:"minProfitPercent"`
	TradeFeePercent       float64 `yaml:"tradeFeePercent"`
	BuyBufferPercent      float64 `yaml:"buyBufferPercent"`
	SessionPlaceLimit     int     `yaml:"sessionPlaceLimit"`
	ActiveOrderLimit      int     `yaml:"activeOrderLimit"`
	BoostedOrderLimit     int     `yaml:"boostedOrderLimit"`
	PendingBuyExpireHours int     `yaml:"pendingBuyExpireHours"`
}

// AnalysisConfig holds opportunity evaluation settings.
type AnalysisConfig struct {
	RankLimit int `yaml:"rankLimit"`
}

// CollectorConfig configures the optional built-in kline collector.
type CollectorConfig struct {
	Enabled bool `yaml:"enabled"`
}

// APIConfig configures the optional read-only status HTTP server.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// Load reads and parses a YAML configuration file. Secrets (telegram token,
// database DSN) may be overridden through environment variables so they can
// stay out of the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.setDefaults()

	return &cfg, nil
}

// applyEnvOverrides replaces secret fields with environment values when set.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TELEGRAM_API_TOKEN"); v != "" {
		c.Telegram.APIToken = v
	}
	if v := os.Getenv("TELEGRAM_ALERTS_CHANNEL_ID"); v != "" {
		c.Telegram.AlertsChatID = v
	}
	if v := os.Getenv("TELEGRAM_ALERTS_2_CHANNEL_ID"); v != "" {
		c.Telegram.Alerts2ChatID = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		c.Redis.Address = v
	}
}

// setDefaults applies sensible defaults for optional fields.
func (c *Config) setDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Storage.HistoryLimit == 0 {
		c.Storage.HistoryLimit = 100
	}
	if c.Trading.DominantSymbol == "" {
		c.Trading.DominantSymbol = "BTCUSDT"
	}
	if c.Trading.InitialBalanceUSD == 0 {
		c.Trading.InitialBalanceUSD = 1000
	}
	if c.Trading.MinTradeAmountUSD == 0 {
		c.Trading.MinTradeAmountUSD = 100
	}
	if c.Trading.MinProfitPercent == 0 {
		c.Trading.MinProfitPercent = 0.5
	}
	if c.Trading.TradeFeePercent == 0 {
		c.Trading.TradeFeePercent = 0.1
	}
	if c.Trading.BuyBufferPercent == 0 {
		c.Trading.BuyBufferPercent = 0.125
	}
	if c.Trading.SessionPlaceLimit == 0 {
		c.Trading.SessionPlaceLimit = 1
	}
	if c.Trading.ActiveOrderLimit == 0 {
		c.Trading.ActiveOrderLimit = 3
	}
	if c.Trading.BoostedOrderLimit == 0 {
		c.Trading.BoostedOrderLimit = 10
	}
	if c.Trading.PendingBuyExpireHours == 0 {
		c.Trading.PendingBuyExpireHours = 1
	}
	if c.Analysis.RankLimit == 0 {
		c.Analysis.RankLimit = 3
	}
	if c.API.Address == "" {
		c.API.Address = ":8088"
	}
}
