package execution

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"sniperbot/internal/exchange"
	"sniperbot/internal/model"
)

// Fill is the executor's report of a completed order. Qty and Price are the
// normalized values the order was submitted with.
type Fill struct {
	OrderID string
	Side    model.Side
	Qty     decimal.Decimal
	Price   decimal.Decimal
}

// Params are the venue constraints and risk limits applied to every order.
type Params struct {
	StepSize    decimal.Decimal
	TickSize    decimal.Decimal
	SlippagePct decimal.Decimal // fractional, e.g. 0.001
	MinNotional decimal.Decimal
	BudgetQuote decimal.Decimal // quote currency spent per entry
}

// Executor turns advice into normalized limit IOC orders. It never mutates
// position state; callers commit only on a confirmed fill.
type Executor struct {
	venue   exchange.Exchange
	params  Params
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewExecutor builds an executor submitting through venue at most
// ordersPerMinute orders.
func NewExecutor(venue exchange.Exchange, params Params, ordersPerMinute int, log *slog.Logger) *Executor {
	if ordersPerMinute <= 0 {
		ordersPerMinute = 60
	}
	return &Executor{
		venue:   venue,
		params:  params,
		limiter: rate.NewLimiter(rate.Limit(float64(ordersPerMinute)/60.0), 1),
		log:     log.With("component", "executor"),
	}
}

// SetFilters replaces the static lot and tick sizes with live venue values.
func (e *Executor) SetFilters(f exchange.Filters) {
	if !f.StepSize.IsZero() {
		e.params.StepSize = f.StepSize
	}
	if !f.TickSize.IsZero() {
		e.params.TickSize = f.TickSize
	}
}

// Execute sizes, normalizes and submits an order for the advice. For buys
// the quantity comes from the quote budget at the advice price; for sells
// heldQty is liquidated in full. A (nil, nil) return means the order was
// skipped by a risk guard, which is not an error.
func (e *Executor) Execute(ctx context.Context, symbol string, sig model.Signal, heldQty decimal.Decimal) (*Fill, error) {
	if sig.Type != model.SignalAdvice {
		return nil, nil
	}
	refPrice := decimal.NewFromFloat(sig.Price)
	if refPrice.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("advice price %s not positive", refPrice)
	}

	var raw decimal.Decimal
	switch sig.Side {
	case model.SideBuy:
		raw = e.params.BudgetQuote.Div(refPrice)
	case model.SideSell:
		raw = heldQty
	default:
		return nil, fmt.Errorf("advice with side %q", sig.Side)
	}

	qty := NormalizeQuantity(raw, e.params.StepSize)
	if qty.IsZero() {
		e.log.Warn("order skipped, quantity floors to zero",
			"side", string(sig.Side),
			"raw_qty", raw.String(),
			"step", e.params.StepSize.String())
		return nil, nil
	}

	notional := qty.Mul(refPrice)
	if notional.LessThan(e.params.MinNotional) {
		e.log.Warn("order skipped, below min notional",
			"side", string(sig.Side),
			"notional", notional.String(),
			"min", e.params.MinNotional.String())
		return nil, nil
	}

	price := NormalizePrice(e.slippagePrice(refPrice, sig.Side), e.params.TickSize)

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	res, err := e.venue.PlaceOrder(ctx, model.OrderRequest{
		Symbol:   symbol,
		Side:     sig.Side,
		Quantity: qty,
		Price:    price,
	})
	if err != nil {
		return nil, err
	}
	if !res.Filled() {
		e.log.Warn("order not filled",
			"order_id", res.OrderID,
			"side", string(sig.Side),
			"status", res.Status)
		return nil, nil
	}
	e.log.Info("order filled",
		"order_id", res.OrderID,
		"side", string(sig.Side),
		"qty", qty.String(),
		"price", price.String())
	return &Fill{OrderID: res.OrderID, Side: sig.Side, Qty: qty, Price: price}, nil
}

// slippagePrice pads the limit price past the reference so an IOC order
// crosses the spread: up for buys, down for sells.
func (e *Executor) slippagePrice(ref decimal.Decimal, side model.Side) decimal.Decimal {
	pad := ref.Mul(e.params.SlippagePct)
	if side == model.SideBuy {
		return ref.Add(pad)
	}
	return ref.Sub(pad)
}
