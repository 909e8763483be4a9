package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenFileAbsent(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Symbol != "BTCUSDT" || cfg.CandleSecs != 60 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Strategy.WarmupCandles != 50 || cfg.Strategy.TrailingCallback != 0.002 {
		t.Errorf("strategy defaults not applied: %+v", cfg.Strategy)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
symbol: ETHUSDT
candle_secs: 30
strategy:
  obi_threshold: 0.5
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Symbol != "ETHUSDT" || cfg.CandleSecs != 30 {
		t.Errorf("yaml not applied: %+v", cfg)
	}
	if cfg.Strategy.OBIThreshold != 0.5 {
		t.Errorf("obi_threshold = %v, want 0.5", cfg.Strategy.OBIThreshold)
	}
	// Untouched keys keep their defaults.
	if cfg.Strategy.RSIPeriod != 14 {
		t.Errorf("rsi_period = %d, want default 14", cfg.Strategy.RSIPeriod)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	t.Setenv("SYMBOL", "SOLUSDT")
	t.Setenv("ORDER_BUDGET_QUOTE", "25")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Symbol != "SOLUSDT" {
		t.Errorf("symbol = %s, want env override", cfg.Symbol)
	}
	if cfg.Execution.OrderBudgetQuote != 25 {
		t.Errorf("budget = %v, want 25", cfg.Execution.OrderBudgetQuote)
	}
}

func TestLiveRequiresCredentials(t *testing.T) {
	t.Setenv("LIVE_TRADING", "true")
	t.Setenv("BINANCE_API_KEY", "")
	t.Setenv("BINANCE_SECRET_KEY", "")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for live mode without credentials")
	}

	t.Setenv("BINANCE_API_KEY", "k")
	t.Setenv("BINANCE_SECRET_KEY", "s")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with credentials: %v", err)
	}
	if !cfg.Live || cfg.APIKey != "k" {
		t.Errorf("live config %+v", cfg)
	}
}

func TestWarmupMustCoverBBPeriod(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
strategy:
  warmup_candles: 10
  bb_period: 20
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for warmup < bb_period")
	}
}
