// Package exchange defines the venue capability consumed by the execution
// layer. Concrete venues (Binance, the paper simulator) are selected at
// construction time; the core never branches on venue type.
package exchange

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"sniperbot/internal/model"
)

// ErrCredentials marks a venue rejection caused by bad or expired API
// credentials. These are likely permanent and require operator intervention,
// so callers alert distinctly instead of silently retrying.
var ErrCredentials = errors.New("exchange: credential failure")

// Filters carries the venue's trading constraints for one symbol.
type Filters struct {
	StepSize decimal.Decimal // lot size increment
	TickSize decimal.Decimal // price increment
}

// Exchange is the execution collaborator: balances and order placement.
type Exchange interface {
	// Name identifies the venue for logging.
	Name() string

	// GetBalance returns the free balance of an asset.
	GetBalance(ctx context.Context, asset string) (decimal.Decimal, error)

	// PlaceOrder submits an order and returns the venue's response. The
	// venue-specific status string is preserved; callers classify the
	// outcome with OrderResult.Filled.
	PlaceOrder(ctx context.Context, req model.OrderRequest) (*model.OrderResult, error)
}

// FilterProvider is implemented by venues that own live lot/tick metadata.
// When available, it overrides statically configured filter values.
type FilterProvider interface {
	Filters(ctx context.Context, symbol string) (Filters, error)
}
