package model

// Position represents the single open trade tracked by the strategy.
// It is the system's only piece of durable state: created on a filled buy,
// destroyed on a filled sell, mirrored to disk in between.
type Position struct {
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	EntryPrice    float64 `json:"entry_price"`
	HighestPrice  float64 `json:"highest_price"` // monotonic ratchet while open
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// Ratchet raises HighestPrice if price exceeds it and refreshes the
// unrealized PnL. Returns true when the high watermark moved.
func (p *Position) Ratchet(price float64) bool {
	p.UnrealizedPnL = (price - p.EntryPrice) * p.Quantity
	if price > p.HighestPrice {
		p.HighestPrice = price
		return true
	}
	return false
}
