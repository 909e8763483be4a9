// Package config loads application configuration from a YAML file with
// environment-variable overrides. Credentials come from the environment only
// (optionally via a .env file loaded by the caller) and never from YAML.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// StrategyConfig holds the tunable knobs of the scalper strategy.
type StrategyConfig struct {
	RSIPeriod        int     `yaml:"rsi_period"`
	BBPeriod         int     `yaml:"bb_period"`
	BBStdDev         float64 `yaml:"bb_std_dev"`
	ATRPeriod        int     `yaml:"atr_period"`
	WarmupCandles    int     `yaml:"warmup_candles"`
	OBIThreshold     float64 `yaml:"obi_threshold"`
	MinVolatility    float64 `yaml:"min_volatility"`    // ATR/price floor, e.g. 0.003
	TrailingCallback float64 `yaml:"trailing_callback"` // e.g. 0.002 = 0.2%
	HardStopPct      float64 `yaml:"hard_stop_pct"`     // e.g. 0.01 = 1%
}

// ExecutionConfig holds order normalization and submission parameters.
type ExecutionConfig struct {
	OrderBudgetQuote float64 `yaml:"order_budget_quote"` // quote currency per entry
	StepSize         string  `yaml:"step_size"`          // lot step, decimal string
	TickSize         string  `yaml:"tick_size"`          // price tick, decimal string
	SlippagePct      float64 `yaml:"slippage_pct"`       // e.g. 0.001 = 0.1%
	MinNotional      float64 `yaml:"min_notional"`
	OrdersPerMinute  int     `yaml:"orders_per_minute"` // REST submission rate limit
}

// Config holds all application configuration.
type Config struct {
	Symbol     string `yaml:"symbol"`
	QuoteAsset string `yaml:"quote_asset"`
	Live       bool   `yaml:"live"` // false = paper venue

	// Binance credentials, environment only.
	APIKey    string `yaml:"-"`
	SecretKey string `yaml:"-"`

	CandleSecs int             `yaml:"candle_secs"`
	Strategy   StrategyConfig  `yaml:"strategy"`
	Execution  ExecutionConfig `yaml:"execution"`

	StatePath   string `yaml:"state_path"`
	JournalPath string `yaml:"journal_path"`
	MetricsAddr string `yaml:"metrics_addr"`

	// Optional telemetry mirror (empty disables).
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"-"`

	// Optional credential-failure alerting (empty disables).
	TelegramToken  string `yaml:"-"`
	TelegramChatID string `yaml:"telegram_chat_id"`
}

// Default returns a Config with every knob at its documented default.
func Default() *Config {
	return &Config{
		Symbol:     "BTCUSDT",
		QuoteAsset: "USDT",
		CandleSecs: 60,
		Strategy: StrategyConfig{
			RSIPeriod:        14,
			BBPeriod:         20,
			BBStdDev:         2.0,
			ATRPeriod:        14,
			WarmupCandles:    50,
			OBIThreshold:     0.3,
			MinVolatility:    0.003,
			TrailingCallback: 0.002,
			HardStopPct:      0.01,
		},
		Execution: ExecutionConfig{
			OrderBudgetQuote: 10,
			StepSize:         "0.00001",
			TickSize:         "0.01",
			SlippagePct:      0.001,
			MinNotional:      5.5,
			OrdersPerMinute:  60,
		},
		StatePath:   "data/position.json",
		JournalPath: "data/trades.db",
		MetricsAddr: ":9090",
	}
}

// Load builds the config: defaults, then the YAML file at path (skipped if
// path is empty or the file does not exist), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.APIKey = getEnv("BINANCE_API_KEY", c.APIKey)
	c.SecretKey = getEnv("BINANCE_SECRET_KEY", c.SecretKey)
	c.Symbol = getEnv("SYMBOL", c.Symbol)
	c.QuoteAsset = getEnv("QUOTE_ASSET", c.QuoteAsset)
	c.StatePath = getEnv("STATE_PATH", c.StatePath)
	c.JournalPath = getEnv("JOURNAL_PATH", c.JournalPath)
	c.MetricsAddr = getEnv("METRICS_ADDR", c.MetricsAddr)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramToken)
	c.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", c.TelegramChatID)

	if v := os.Getenv("LIVE_TRADING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Live = b
		}
	}
	if v := os.Getenv("ORDER_BUDGET_QUOTE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.Execution.OrderBudgetQuote = f
		}
	}
}

func (c *Config) validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("config: symbol must not be empty")
	}
	if c.CandleSecs <= 0 {
		return fmt.Errorf("config: candle_secs must be positive, got %d", c.CandleSecs)
	}
	if c.Execution.OrderBudgetQuote <= 0 {
		return fmt.Errorf("config: order_budget_quote must be positive")
	}
	if c.Live && (c.APIKey == "" || c.SecretKey == "") {
		return fmt.Errorf("config: live trading requires BINANCE_API_KEY and BINANCE_SECRET_KEY")
	}
	if c.Strategy.WarmupCandles < c.Strategy.BBPeriod {
		return fmt.Errorf("config: warmup_candles (%d) must cover bb_period (%d)",
			c.Strategy.WarmupCandles, c.Strategy.BBPeriod)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
