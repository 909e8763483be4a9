// Package paper simulates a venue for dry runs. Every IOC order fills
// immediately at its limit price and balances move accordingly, which keeps
// the engine's fill-gated bookkeeping exercised without touching a real
// account.
package paper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"sniperbot/internal/model"
)

// Exchange is an in-memory venue. Safe for concurrent use.
type Exchange struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	base     string
	quote    string
	nextID   int64
	log      *slog.Logger
}

// New builds a paper venue holding startQuote of the quote asset.
func New(base, quote string, startQuote decimal.Decimal, log *slog.Logger) *Exchange {
	return &Exchange{
		balances: map[string]decimal.Decimal{
			base:  decimal.Zero,
			quote: startQuote,
		},
		base:   base,
		quote:  quote,
		nextID: 1,
		log:    log.With("venue", "paper"),
	}
}

func (e *Exchange) Name() string { return "paper" }

func (e *Exchange) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balances[asset], nil
}

// PlaceOrder fills the order at its limit price. Buys that exceed the quote
// balance are rejected with status EXPIRED, mimicking an IOC miss.
func (e *Exchange) PlaceOrder(ctx context.Context, req model.OrderRequest) (*model.OrderResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	notional := req.Quantity.Mul(req.Price)
	switch req.Side {
	case model.SideBuy:
		if e.balances[e.quote].LessThan(notional) {
			return e.result(req, "EXPIRED"), nil
		}
		e.balances[e.quote] = e.balances[e.quote].Sub(notional)
		e.balances[e.base] = e.balances[e.base].Add(req.Quantity)
	case model.SideSell:
		if e.balances[e.base].LessThan(req.Quantity) {
			return e.result(req, "EXPIRED"), nil
		}
		e.balances[e.base] = e.balances[e.base].Sub(req.Quantity)
		e.balances[e.quote] = e.balances[e.quote].Add(notional)
	default:
		return nil, fmt.Errorf("paper: unknown side %q", req.Side)
	}

	res := e.result(req, "FILLED")
	e.log.Info("paper fill",
		"order_id", res.OrderID,
		"side", string(req.Side),
		"qty", req.Quantity.String(),
		"price", req.Price.String())
	return res, nil
}

func (e *Exchange) result(req model.OrderRequest, status string) *model.OrderResult {
	id := e.nextID
	e.nextID++
	return &model.OrderResult{
		OrderID: fmt.Sprintf("paper-%d", id),
		Symbol:  req.Symbol,
		Status:  status,
	}
}
