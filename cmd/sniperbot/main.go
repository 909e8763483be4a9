// Command sniperbot runs the single-instrument tick-to-order trading bot:
// Binance bookTicker intake, candle and indicator pipeline, scalper strategy
// and IOC order execution against a live or paper venue.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"sniperbot/config"
	"sniperbot/internal/engine"
	"sniperbot/internal/exchange"
	binancex "sniperbot/internal/exchange/binance"
	"sniperbot/internal/exchange/paper"
	"sniperbot/internal/execution"
	"sniperbot/internal/journal"
	"sniperbot/internal/logger"
	"sniperbot/internal/metrics"
	"sniperbot/internal/model"
	"sniperbot/internal/notification"
	"sniperbot/internal/state"
	"sniperbot/internal/strategy"
	"sniperbot/internal/stream"
	"sniperbot/internal/telemetry"
)

const tickQueueSize = 100

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sniperbot:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	// .env is a developer convenience; absence is normal.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log := logger.Init("sniperbot", cfg.Symbol, logger.ParseLevel(*logLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health, log)
	metricsSrv.Start()
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		metricsSrv.Stop(shutCtx)
	}()

	// Venue selection. Paper keeps the whole pipeline live without keys.
	var venue exchange.Exchange
	if cfg.Live {
		venue = binancex.New(cfg.APIKey, cfg.SecretKey, log)
	} else {
		base := strings.TrimSuffix(cfg.Symbol, cfg.QuoteAsset)
		venue = paper.New(base, cfg.QuoteAsset,
			decimal.NewFromFloat(cfg.Execution.OrderBudgetQuote).Mul(decimal.NewFromInt(10)), log)
	}
	log.Info("venue selected", "venue", venue.Name(), "live", cfg.Live)

	execParams, err := buildExecParams(cfg)
	if err != nil {
		return err
	}
	exec := execution.NewExecutor(venue, execParams, cfg.Execution.OrdersPerMinute, log)

	// Live venues own the authoritative lot and tick filters.
	if fp, ok := venue.(exchange.FilterProvider); ok {
		infoCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		filters, ferr := fp.Filters(infoCtx, cfg.Symbol)
		cancel()
		if ferr != nil {
			log.Warn("exchange info unavailable, using configured filters", "err", ferr)
		} else {
			exec.SetFilters(filters)
			log.Info("filters refreshed",
				"step", filters.StepSize.String(),
				"tick", filters.TickSize.String())
		}
	}

	store, err := state.NewStore(cfg.StatePath, log)
	if err != nil {
		return err
	}

	var jnl *journal.Journal
	if cfg.JournalPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.JournalPath), 0o755); err != nil {
			return fmt.Errorf("journal dir: %w", err)
		}
		jnl, err = journal.Open(cfg.JournalPath)
		if err != nil {
			return err
		}
		defer jnl.Close()
	}

	notify := buildNotifier(cfg, log)

	feed := telemetry.NewFeed(256, log, func() { m.TelemetryDrops.Inc() })
	sinks := []telemetry.Sink{}
	if cfg.RedisAddr != "" {
		sink, serr := telemetry.NewRedisSink(cfg.RedisAddr, cfg.RedisPassword, "sniperbot:events")
		if serr != nil {
			log.Warn("redis telemetry disabled", "err", serr)
		} else {
			defer sink.Close()
			sinks = append(sinks, sink)
		}
	}
	// Drain even with no sinks so the feed never fills up and starts
	// counting every publish as a drop.
	go feed.Run(ctx, sinks...)

	scalper := strategy.NewScalper(cfg.Symbol, time.Duration(cfg.CandleSecs)*time.Second, strategy.Params{
		RSIPeriod:        cfg.Strategy.RSIPeriod,
		BBPeriod:         cfg.Strategy.BBPeriod,
		BBStdDev:         cfg.Strategy.BBStdDev,
		ATRPeriod:        cfg.Strategy.ATRPeriod,
		WarmupCandles:    cfg.Strategy.WarmupCandles,
		OBIThreshold:     cfg.Strategy.OBIThreshold,
		MinVolatility:    cfg.Strategy.MinVolatility,
		TrailingCallback: cfg.Strategy.TrailingCallback,
		HardStopPct:      cfg.Strategy.HardStopPct,
	}, log)
	scalper.CandleHook = func(c model.Candle) {
		m.CandlesTotal.Inc()
		feed.Publish(telemetry.EventCandle, c)
	}

	eng, err := engine.New(engine.Deps{
		Symbol:     cfg.Symbol,
		QuoteAsset: cfg.QuoteAsset,
		Strategy:   scalper,
		Executor:   exec,
		Venue:      venue,
		Store:      store,
		Journal:    jnl,
		Notifier:   notify,
		Feed:       feed,
		Metrics:    m,
		Log:        log,
	})
	if err != nil {
		return err
	}
	if err := eng.Start(ctx); err != nil {
		return err
	}

	tickCh := make(chan model.Tick, tickQueueSize)
	intake := stream.NewIntake(stream.Config{Symbol: cfg.Symbol}, log)
	intake.OnReconnect = m.WSReconnects.Inc
	intake.OnDrop = m.DroppedTicks.Inc
	intake.OnMalformed = m.MalformedMsgs.Inc
	intake.OnTick = func() {
		m.TicksTotal.Inc()
		health.SetLastTickTime(time.Now())
	}
	intake.OnConnState = health.SetWSConnected
	go intake.Run(ctx, tickCh)

	log.Info("engine running", "symbol", cfg.Symbol, "candle_secs", cfg.CandleSecs)
	if err := eng.Run(ctx, tickCh); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

func buildExecParams(cfg *config.Config) (execution.Params, error) {
	step, err := decimal.NewFromString(cfg.Execution.StepSize)
	if err != nil {
		return execution.Params{}, fmt.Errorf("step_size %q: %w", cfg.Execution.StepSize, err)
	}
	tick, err := decimal.NewFromString(cfg.Execution.TickSize)
	if err != nil {
		return execution.Params{}, fmt.Errorf("tick_size %q: %w", cfg.Execution.TickSize, err)
	}
	return execution.Params{
		StepSize:    step,
		TickSize:    tick,
		SlippagePct: decimal.NewFromFloat(cfg.Execution.SlippagePct),
		MinNotional: decimal.NewFromFloat(cfg.Execution.MinNotional),
		BudgetQuote: decimal.NewFromFloat(cfg.Execution.OrderBudgetQuote),
	}, nil
}

func buildNotifier(cfg *config.Config, log *slog.Logger) notification.Notifier {
	backends := []notification.Notifier{notification.NewLogNotifier(log)}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		backends = append(backends, notification.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID))
	}
	if len(backends) == 1 {
		return backends[0]
	}
	return notification.NewMulti(log, backends...)
}
