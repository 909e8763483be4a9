package strategy

import (
	"fmt"
	"log/slog"
	"time"

	"sniperbot/internal/candle"
	"sniperbot/internal/indicator"
	"sniperbot/internal/model"
)

// Params holds the scalper's tunable thresholds.
type Params struct {
	RSIPeriod        int
	BBPeriod         int
	BBStdDev         float64
	ATRPeriod        int
	WarmupCandles    int
	OBIThreshold     float64
	MinVolatility    float64 // ATR/price floor; rejects dead markets
	TrailingCallback float64 // trailing stop distance from the high watermark
	HardStopPct      float64 // hard stop distance from entry
	EntryRSI         float64 // oversold threshold, default 30
}

// Scalper is a mean-reversion long scalper: it buys when price pierces the
// lower Bollinger band while RSI is oversold and order-book pressure points
// up, then exits on a trailing stop or a hard stop.
//
// States: Flat (position == nil) and Open. The candle builder and indicator
// engine are exclusively owned; all methods run on the decision loop.
type Scalper struct {
	symbol   string
	params   Params
	builder  *candle.Builder
	inds     *indicator.Engine
	position *model.Position
	lastOBI  float64
	log      *slog.Logger

	// CandleHook, when set, is invoked with every closed candle after the
	// indicators have consumed it. Used for metrics and telemetry; must not
	// block the decision loop.
	CandleHook func(model.Candle)
}

// NewScalper creates the strategy for one symbol and candle duration.
func NewScalper(symbol string, candleDur time.Duration, params Params, log *slog.Logger) *Scalper {
	if params.EntryRSI == 0 {
		params.EntryRSI = 30
	}
	return &Scalper{
		symbol:  symbol,
		params:  params,
		builder: candle.NewBuilder(candleDur),
		inds: indicator.NewEngine(indicator.Config{
			RSIPeriod:     params.RSIPeriod,
			BBPeriod:      params.BBPeriod,
			BBStdDev:      params.BBStdDev,
			ATRPeriod:     params.ATRPeriod,
			WarmupCandles: params.WarmupCandles,
		}),
		log: log.With(slog.String("strategy", "rsi_bollinger_scalper")),
	}
}

func (s *Scalper) Name() string { return "rsi_bollinger_scalper" }

// Position returns the tracked open position, nil when flat.
func (s *Scalper) Position() *model.Position { return s.position }

// SetPosition commits a confirmed fill outcome or restored state.
func (s *Scalper) SetPosition(pos *model.Position) { s.position = pos }

// Indicators returns the current snapshot plus the last computed OBI,
// for telemetry.
func (s *Scalper) Indicators() (indicator.Snapshot, float64) {
	return s.inds.Snapshot(), s.lastOBI
}

// OnTick folds the tick into the candle stream, updates indicators on bucket
// close, and evaluates entry/exit conditions.
func (s *Scalper) OnTick(tick model.Tick) model.Signal {
	if closed := s.builder.Apply(tick); closed != nil {
		s.inds.OnClose(*closed)
		if s.CandleHook != nil {
			s.CandleHook(*closed)
		}
		if n := s.inds.ClosedCandles(); !s.inds.Warm() && n%10 == 0 {
			s.log.Debug("warming up",
				slog.Int("candles", n),
				slog.Int("target", s.params.WarmupCandles))
		}
	}

	s.lastOBI = indicator.OBI(tick.BidQty, tick.AskQty)

	// Warm-up gate: no decision may use a cold snapshot.
	if !s.inds.Warm() {
		return model.Hold()
	}

	if s.position == nil {
		return s.evalEntry(tick)
	}
	return s.evalExit(tick)
}

func (s *Scalper) evalEntry(tick model.Tick) model.Signal {
	snap := s.inds.Snapshot()
	if tick.Price <= 0 {
		return model.Hold()
	}

	// Volatility floor: skip sleeping markets where the stop distances
	// would be noise.
	volPct := snap.ATR / tick.Price
	if volPct < s.params.MinVolatility {
		return model.Hold()
	}

	if tick.Price < snap.BBLower && snap.RSI < s.params.EntryRSI && s.lastOBI > s.params.OBIThreshold {
		reason := fmt.Sprintf("price %.8g < bb_lower %.8g, rsi %.2f, obi %.2f, vol %.4f%%",
			tick.Price, snap.BBLower, snap.RSI, s.lastOBI, volPct*100)
		s.log.Info("long signal",
			slog.Float64("price", tick.Price),
			slog.Float64("bb_lower", snap.BBLower),
			slog.Float64("rsi", snap.RSI),
			slog.Float64("obi", s.lastOBI))
		return model.Advice(model.SideBuy, tick.Price, reason)
	}
	return model.Hold()
}

func (s *Scalper) evalExit(tick model.Tick) model.Signal {
	ratcheted := s.position.Ratchet(tick.Price)

	// Exit priority: trailing stop first, hard stop second.
	trailingStop := s.position.HighestPrice * (1 - s.params.TrailingCallback)
	if tick.Price < trailingStop {
		s.log.Info("trailing stop",
			slog.Float64("price", tick.Price),
			slog.Float64("highest", s.position.HighestPrice),
			slog.Float64("stop", trailingStop))
		return model.Advice(model.SideSell, tick.Price,
			fmt.Sprintf("trailing stop: price %.8g < %.8g", tick.Price, trailingStop))
	}

	hardStop := s.position.EntryPrice * (1 - s.params.HardStopPct)
	if tick.Price < hardStop {
		s.log.Warn("hard stop loss",
			slog.Float64("price", tick.Price),
			slog.Float64("entry", s.position.EntryPrice))
		return model.Advice(model.SideSell, tick.Price,
			fmt.Sprintf("hard stop: price %.8g < %.8g", tick.Price, hardStop))
	}

	if ratcheted {
		return model.StateChanged()
	}
	return model.Hold()
}
