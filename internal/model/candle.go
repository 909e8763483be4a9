package model

import "time"

// Candle represents a fixed-duration OHLC bucket for a single instrument.
type Candle struct {
	Symbol string  `json:"symbol"`
	Start  int64   `json:"start"` // bucket start in epoch milliseconds, duration-aligned
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Ticks  int     `json:"ticks"` // number of ticks aggregated
}

// StartTime returns the bucket start as a time.Time (UTC).
func (c *Candle) StartTime() time.Time {
	return time.UnixMilli(c.Start).UTC()
}
