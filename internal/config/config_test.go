package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  postgresDsn: postgres://localhost/test
  symbols: [BTCUSDT, ETHUSDT]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info default", cfg.App.LogLevel)
	}
	if cfg.Storage.HistoryLimit != 100 {
		t.Errorf("HistoryLimit = %d, want 100 default", cfg.Storage.HistoryLimit)
	}
	if cfg.Trading.DominantSymbol != "BTCUSDT" {
		t.Errorf("DominantSymbol = %q, want BTCUSDT default", cfg.Trading.DominantSymbol)
	}
	if cfg.Trading.InitialBalanceUSD != 1000 {
		t.Errorf("InitialBalanceUSD = %v, want 1000 default", cfg.Trading.InitialBalanceUSD)
	}
	if cfg.Trading.BuyBufferPercent != 0.125 {
		t.Errorf("BuyBufferPercent = %v, want 0.125 default", cfg.Trading.BuyBufferPercent)
	}
	if cfg.API.Address != ":8088" {
		t.Errorf("API.Address = %q, want :8088 default", cfg.API.Address)
	}
}

func TestLoadEnvOverridesSecrets(t *testing.T) {
	path := writeConfig(t, `
telegram:
  apiToken: from-file
storage:
  postgresDsn: postgres://from-file
`)
	t.Setenv("TELEGRAM_API_TOKEN", "from-env")
	t.Setenv("POSTGRES_DSN", "postgres://from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Telegram.APIToken != "from-env" {
		t.Errorf("APIToken = %q, want env override", cfg.Telegram.APIToken)
	}
	if cfg.Storage.PostgresDSN != "postgres://from-env" {
		t.Errorf("PostgresDSN = %q, want env override", cfg.Storage.PostgresDSN)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load() on missing file, want error")
	}
}
