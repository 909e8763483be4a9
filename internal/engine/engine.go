// Package engine runs the decision loop: ticks in, strategy evaluation,
// order execution, fill-gated position bookkeeping. The loop is single
// threaded, so strategy and position state need no locking.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"sniperbot/internal/exchange"
	"sniperbot/internal/execution"
	"sniperbot/internal/journal"
	"sniperbot/internal/metrics"
	"sniperbot/internal/model"
	"sniperbot/internal/notification"
	"sniperbot/internal/state"
	"sniperbot/internal/strategy"
	"sniperbot/internal/telemetry"
)

// Deps collects the engine's collaborators. Journal, Feed and Metrics may be
// nil; the engine skips them.
type Deps struct {
	Symbol     string
	QuoteAsset string

	Strategy strategy.Strategy
	Executor *execution.Executor
	Venue    exchange.Exchange
	Store    *state.Store
	Journal  *journal.Journal
	Notifier notification.Notifier
	Feed     *telemetry.Feed
	Metrics  *metrics.Metrics
	Log      *slog.Logger
}

// Engine drives the tick-to-order loop.
type Engine struct {
	d   Deps
	log *slog.Logger

	// credAlerted keeps the credential alarm from firing on every tick once
	// the keys are known bad.
	credAlerted bool
}

// New validates deps and builds an engine.
func New(d Deps) (*Engine, error) {
	if d.Strategy == nil || d.Executor == nil || d.Venue == nil || d.Store == nil {
		return nil, errors.New("engine: strategy, executor, venue and store are required")
	}
	if d.Notifier == nil {
		d.Notifier = notification.NewLogNotifier(d.Log)
	}
	return &Engine{d: d, log: d.Log.With("component", "engine")}, nil
}

// Start restores persisted state and checks venue connectivity. Called once
// before Run.
func (e *Engine) Start(ctx context.Context) error {
	if pos := e.d.Store.Load(); pos != nil {
		e.d.Strategy.SetPosition(pos)
		e.setPositionGauge(true)
		e.log.Info("position restored",
			"symbol", pos.Symbol,
			"qty", pos.Quantity,
			"entry", pos.EntryPrice,
			"highest", pos.HighestPrice)
	}

	bal, err := e.d.Venue.GetBalance(ctx, e.d.QuoteAsset)
	if err != nil {
		if e.handleCredentialErr(ctx, err) {
			return fmt.Errorf("startup balance check: %w", err)
		}
		e.log.Warn("startup balance check failed", "err", err)
		return nil
	}
	e.log.Info("venue ready",
		"venue", e.d.Venue.Name(),
		"asset", e.d.QuoteAsset,
		"free", bal.String())
	e.publish(telemetry.EventStatus, map[string]interface{}{
		"venue":         e.d.Venue.Name(),
		"symbol":        e.d.Symbol,
		"quote_free":    bal.String(),
		"position_open": e.d.Strategy.Position() != nil,
	})
	return nil
}

// Run consumes ticks until ctx is cancelled. Per-tick errors are absorbed:
// the loop must survive anything short of cancellation.
func (e *Engine) Run(ctx context.Context, tickCh <-chan model.Tick) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tick := <-tickCh:
			e.onTick(ctx, tick)
		}
	}
}

func (e *Engine) onTick(ctx context.Context, tick model.Tick) {
	e.observeDecisionLag(tick.TS)
	e.publish(telemetry.EventTick, tick)

	sig := e.d.Strategy.OnTick(tick)
	e.countSignal(sig)

	switch sig.Type {
	case model.SignalHold:
		return
	case model.SignalStateChanged:
		e.publish(telemetry.EventPosition, e.d.Strategy.Position())
		e.persist()
	case model.SignalAdvice:
		e.publish(telemetry.EventSignal, sig)
		e.executeAdvice(ctx, sig)
	}
}

// executeAdvice submits an order for the advice and commits position state
// only on a confirmed fill.
func (e *Engine) executeAdvice(ctx context.Context, sig model.Signal) {
	var heldQty decimal.Decimal
	if pos := e.d.Strategy.Position(); pos != nil {
		heldQty = decimal.NewFromFloat(pos.Quantity)
	}

	start := time.Now()
	fill, err := e.d.Executor.Execute(ctx, e.d.Symbol, sig, heldQty)
	e.observeOrderLatency(time.Since(start))
	if err != nil {
		e.countOrder(sig.Side, "error")
		if e.handleCredentialErr(ctx, err) {
			return
		}
		e.log.Error("order failed", "side", string(sig.Side), "err", err)
		return
	}
	if fill == nil {
		e.countOrder(sig.Side, "skipped")
		return
	}
	e.countOrder(sig.Side, "filled")
	e.publish(telemetry.EventOrder, fill)

	switch fill.Side {
	case model.SideBuy:
		price, _ := fill.Price.Float64()
		qty, _ := fill.Qty.Float64()
		pos := &model.Position{
			Symbol:       e.d.Symbol,
			Quantity:     qty,
			EntryPrice:   price,
			HighestPrice: price,
		}
		e.d.Strategy.SetPosition(pos)
		e.setPositionGauge(true)
		e.notify(ctx, notification.AlertInfo, "Position opened",
			fmt.Sprintf("%s %s @ %s (%s)", e.d.Symbol, fill.Qty, fill.Price, sig.Reason))
	case model.SideSell:
		prev := e.d.Strategy.Position()
		e.d.Strategy.SetPosition(nil)
		e.setPositionGauge(false)
		msg := fmt.Sprintf("%s %s @ %s (%s)", e.d.Symbol, fill.Qty, fill.Price, sig.Reason)
		if prev != nil {
			price, _ := fill.Price.Float64()
			qty, _ := fill.Qty.Float64()
			pnl := (price - prev.EntryPrice) * qty
			msg = fmt.Sprintf("%s, pnl %.4f %s", msg, pnl, e.d.QuoteAsset)
		}
		e.notify(ctx, notification.AlertInfo, "Position closed", msg)
	}

	e.persist()
	e.publish(telemetry.EventPosition, e.d.Strategy.Position())
	if e.d.Journal != nil {
		if err := e.d.Journal.Record(e.d.Symbol, *fill, sig.Reason); err != nil {
			e.log.Warn("journal write failed", "err", err)
		}
	}
}

// persist writes the current position to disk. Failure is logged, never
// fatal: a dead disk should not stop trading that is otherwise healthy.
func (e *Engine) persist() {
	if err := e.d.Store.Save(e.d.Strategy.Position()); err != nil {
		e.log.Warn("state persist failed", "err", err)
	}
}

// handleCredentialErr fires a one-time critical alert for credential
// failures. Returns true if err was a credential failure.
func (e *Engine) handleCredentialErr(ctx context.Context, err error) bool {
	if !errors.Is(err, exchange.ErrCredentials) {
		return false
	}
	if !e.credAlerted {
		e.credAlerted = true
		e.log.Error("venue rejected credentials", "err", err)
		e.notify(ctx, notification.AlertCritical, "API credentials rejected",
			"The venue rejected the configured API keys. Orders cannot be placed until they are fixed.")
	}
	return true
}

func (e *Engine) notify(ctx context.Context, level notification.AlertLevel, title, msg string) {
	if err := e.d.Notifier.Send(ctx, notification.Alert{Level: level, Title: title, Message: msg}); err != nil {
		e.log.Warn("notify failed", "title", title, "err", err)
	}
}

func (e *Engine) publish(t telemetry.EventType, payload interface{}) {
	if e.d.Feed != nil {
		e.d.Feed.Publish(t, payload)
	}
}

func (e *Engine) countSignal(sig model.Signal) {
	if e.d.Metrics != nil {
		e.d.Metrics.SignalsTotal.WithLabelValues(string(sig.Type)).Inc()
	}
}

func (e *Engine) countOrder(side model.Side, outcome string) {
	if e.d.Metrics != nil {
		e.d.Metrics.OrdersTotal.WithLabelValues(string(side), outcome).Inc()
	}
}

func (e *Engine) observeOrderLatency(d time.Duration) {
	if e.d.Metrics != nil {
		e.d.Metrics.OrderLatency.Observe(d.Seconds())
	}
}

func (e *Engine) observeDecisionLag(tickTS int64) {
	if e.d.Metrics == nil || tickTS == 0 {
		return
	}
	if lag := time.Now().UnixMilli() - tickTS; lag >= 0 {
		e.d.Metrics.DecisionLag.Observe(float64(lag) / 1000)
	}
}

func (e *Engine) setPositionGauge(open bool) {
	if e.d.Metrics == nil {
		return
	}
	if open {
		e.d.Metrics.PositionOpen.Set(1)
	} else {
		e.d.Metrics.PositionOpen.Set(0)
	}
}
