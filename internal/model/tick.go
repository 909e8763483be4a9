package model

// Tick represents a single normalized market data update from the venue's
// bookTicker stream. Immutable once produced by the stream intake.
type Tick struct {
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`     // mid price: (bid + ask) / 2
	BidPrice float64 `json:"bid_price"` // best bid
	BidQty   float64 `json:"bid_qty"`
	AskPrice float64 `json:"ask_price"` // best ask
	AskQty   float64 `json:"ask_qty"`
	TS       int64   `json:"ts"` // event time in epoch milliseconds
}
