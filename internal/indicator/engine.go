package indicator

import "sniperbot/internal/model"

// Snapshot is the read-only indicator view handed to the strategy. Fields
// are written only on candle close and must not be used before the engine
// reports Warm.
type Snapshot struct {
	RSI     float64 `json:"rsi"` // in [0, 100]
	BBLower float64 `json:"bb_lower"`
	BBMid   float64 `json:"bb_mid"`
	BBUpper float64 `json:"bb_upper"`
	ATR     float64 `json:"atr"`
}

// Config specifies the engine's indicator parameters.
type Config struct {
	RSIPeriod     int
	BBPeriod      int
	BBStdDev      float64
	ATRPeriod     int
	WarmupCandles int
}

// Engine maintains the rolling indicator set for one instrument.
// Single-goroutine usage only; no locks.
type Engine struct {
	rsi    *RSI
	bb     *Bollinger
	atr    *ATR
	warmup int
	closed int
	snap   Snapshot
}

// NewEngine creates an indicator engine from strategy configuration.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		rsi:    NewRSI(cfg.RSIPeriod),
		bb:     NewBollinger(cfg.BBPeriod, cfg.BBStdDev),
		atr:    NewATR(cfg.ATRPeriod),
		warmup: cfg.WarmupCandles,
	}
}

// OnClose feeds a closed candle through RSI, Bollinger and ATR, in that
// order, and refreshes the snapshot.
func (e *Engine) OnClose(c model.Candle) {
	e.rsi.Update(c)
	e.bb.Update(c)
	e.atr.Update(c)
	e.closed++

	lower, mid, upper := e.bb.Bands()
	e.snap = Snapshot{
		RSI:     e.rsi.Value(),
		BBLower: lower,
		BBMid:   mid,
		BBUpper: upper,
		ATR:     e.atr.Value(),
	}
}

// Warm reports whether enough candles have closed for the snapshot to be
// valid for entry/exit decisions.
func (e *Engine) Warm() bool {
	return e.closed >= e.warmup && e.rsi.Ready() && e.bb.Ready() && e.atr.Ready()
}

// ClosedCandles returns the number of candles processed so far.
func (e *Engine) ClosedCandles() int { return e.closed }

// Snapshot returns the current indicator values. Only meaningful once Warm.
func (e *Engine) Snapshot() Snapshot { return e.snap }
