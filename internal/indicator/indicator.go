// Package indicator provides streaming technical indicator calculations
// over closed candles.
//
// All indicators are causal with O(1) updates, no history re-scans. Values
// are written only on candle close and are read-only until the next close.
package indicator

import "sniperbot/internal/model"

// Indicator is the interface for all candle-rolled indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "RSI", "ATR").
	Name() string

	// Update feeds a new closed candle and recalculates.
	Update(candle model.Candle)

	// Ready returns true when enough candles have been accumulated.
	Ready() bool
}

// OBI computes the order-book imbalance from the best bid/ask quantities:
// (bidQty - askQty) / (bidQty + askQty), in [-1, 1]. Defined as 0 when both
// quantities are 0. OBI is tick-derived, not candle-rolled, so it lives
// outside the Engine.
func OBI(bidQty, askQty float64) float64 {
	total := bidQty + askQty
	if total == 0 {
		return 0
	}
	return (bidQty - askQty) / total
}
