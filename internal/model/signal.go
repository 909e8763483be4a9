package model

// Side represents an order direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// SignalType discriminates the strategy's per-tick output.
type SignalType string

const (
	// SignalHold means do nothing this tick.
	SignalHold SignalType = "HOLD"
	// SignalAdvice proposes a trade; execution may still reject it.
	SignalAdvice SignalType = "ADVICE"
	// SignalStateChanged means internal risk state moved (trailing high
	// ratcheted) and should be persisted, but no order is wanted.
	SignalStateChanged SignalType = "STATE_CHANGED"
)

// Signal is the strategy's advice for a single tick. An Advice carries the
// side and the reference price the advice was computed against; it never
// mutates position state by itself.
type Signal struct {
	Type   SignalType `json:"type"`
	Side   Side       `json:"side,omitempty"`
	Price  float64    `json:"price,omitempty"` // reference price for advice
	Reason string     `json:"reason,omitempty"`
}

// Hold returns a do-nothing signal.
func Hold() Signal {
	return Signal{Type: SignalHold}
}

// Advice returns a trade proposal at the given reference price.
func Advice(side Side, price float64, reason string) Signal {
	return Signal{Type: SignalAdvice, Side: side, Price: price, Reason: reason}
}

// StateChanged returns a persist-only signal.
func StateChanged() Signal {
	return Signal{Type: SignalStateChanged}
}
