package model

import "github.com/shopspring/decimal"

// OrderRequest is an exchange-legal order: quantity already floored to the
// lot step and price rounded to the tick size. Decimal fields keep the venue
// boundary free of float formatting drift.
type OrderRequest struct {
	Symbol   string
	Side     Side
	Quantity decimal.Decimal
	// Price is the IOC limit price. Zero means no limit price was set;
	// the executor never submits such a request (no naked market orders).
	Price decimal.Decimal
}

// OrderResult is the venue's response, with the venue-specific status string
// preserved for logging and the filled/not-filled outcome normalized.
type OrderResult struct {
	OrderID string
	Symbol  string
	Status  string
}

// Filled reports whether the order executed (fully or partially).
// Any other status (rejected, expired, cancelled) counts as not filled.
func (r *OrderResult) Filled() bool {
	return r.Status == "FILLED" || r.Status == "PARTIALLY_FILLED"
}
