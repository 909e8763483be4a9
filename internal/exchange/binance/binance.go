// Package binance adapts the Binance spot REST API to the exchange
// interface. Only the endpoints the bot actually uses are wrapped: account
// balance, exchange info filters and limit IOC order placement.
package binance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/shopspring/decimal"

	"sniperbot/internal/exchange"
	"sniperbot/internal/model"
)

// Binance error codes that indicate a credential problem rather than a
// transient rejection.
const (
	codeInvalidAPIKey = -2014
	codeRejectedMBX   = -2015
	codeBadSignature  = -1022
	codeUnauthorized  = -1002
)

// Exchange talks to Binance spot. All orders go out as LIMIT IOC so a miss
// cancels instead of resting on the book.
type Exchange struct {
	client *binance.Client
	log    *slog.Logger
}

// New builds a live Binance venue from API credentials.
func New(apiKey, secretKey string, log *slog.Logger) *Exchange {
	return &Exchange{
		client: binance.NewClient(apiKey, secretKey),
		log:    log.With("venue", "binance"),
	}
}

func (e *Exchange) Name() string { return "binance" }

// GetBalance returns the free balance of an asset from the spot account.
func (e *Exchange) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	acct, err := e.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return decimal.Zero, wrapErr("get account", err)
	}
	for _, b := range acct.Balances {
		if b.Asset == asset {
			free, perr := decimal.NewFromString(b.Free)
			if perr != nil {
				return decimal.Zero, fmt.Errorf("parse %s balance %q: %w", asset, b.Free, perr)
			}
			return free, nil
		}
	}
	return decimal.Zero, nil
}

// Filters fetches the live lot and tick size for a symbol.
func (e *Exchange) Filters(ctx context.Context, symbol string) (exchange.Filters, error) {
	info, err := e.client.NewExchangeInfoService().Symbol(symbol).Do(ctx)
	if err != nil {
		return exchange.Filters{}, wrapErr("exchange info", err)
	}
	for _, s := range info.Symbols {
		if s.Symbol != symbol {
			continue
		}
		var f exchange.Filters
		if lot := s.LotSizeFilter(); lot != nil {
			step, perr := decimal.NewFromString(lot.StepSize)
			if perr != nil {
				return exchange.Filters{}, fmt.Errorf("parse step size %q: %w", lot.StepSize, perr)
			}
			f.StepSize = step
		}
		if pf := s.PriceFilter(); pf != nil {
			tick, perr := decimal.NewFromString(pf.TickSize)
			if perr != nil {
				return exchange.Filters{}, fmt.Errorf("parse tick size %q: %w", pf.TickSize, perr)
			}
			f.TickSize = tick
		}
		return f, nil
	}
	return exchange.Filters{}, fmt.Errorf("symbol %s not in exchange info", symbol)
}

// PlaceOrder submits a LIMIT IOC order. The request is already normalized to
// the venue's lot and tick filters by the execution layer.
func (e *Exchange) PlaceOrder(ctx context.Context, req model.OrderRequest) (*model.OrderResult, error) {
	side := binance.SideTypeBuy
	if req.Side == model.SideSell {
		side = binance.SideTypeSell
	}
	resp, err := e.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(side).
		Type(binance.OrderTypeLimit).
		TimeInForce(binance.TimeInForceTypeIOC).
		Quantity(req.Quantity.String()).
		Price(req.Price.String()).
		Do(ctx)
	if err != nil {
		return nil, wrapErr("create order", err)
	}
	e.log.Info("order submitted",
		"order_id", resp.OrderID,
		"side", string(req.Side),
		"status", string(resp.Status))
	return &model.OrderResult{
		OrderID: fmt.Sprintf("%d", resp.OrderID),
		Symbol:  resp.Symbol,
		Status:  string(resp.Status),
	}, nil
}

// wrapErr tags credential failures with exchange.ErrCredentials so callers
// can alert on them distinctly.
func wrapErr(op string, err error) error {
	var api *common.APIError
	if errors.As(err, &api) {
		switch api.Code {
		case codeInvalidAPIKey, codeRejectedMBX, codeBadSignature, codeUnauthorized:
			return fmt.Errorf("%s: %w: %v", op, exchange.ErrCredentials, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
