package paper

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"sniperbot/internal/model"
)

func newTestExchange(quote string) *Exchange {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New("BTC", "USDT", decimal.RequireFromString(quote), log)
}

func TestPaperBuyMovesBalances(t *testing.T) {
	ex := newTestExchange("1000")
	res, err := ex.PlaceOrder(context.Background(), model.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     model.SideBuy,
		Quantity: decimal.RequireFromString("0.01"),
		Price:    decimal.RequireFromString("50000"),
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !res.Filled() {
		t.Fatalf("expected fill, got status %s", res.Status)
	}
	usdt, _ := ex.GetBalance(context.Background(), "USDT")
	if !usdt.Equal(decimal.RequireFromString("500")) {
		t.Errorf("quote balance = %s, want 500", usdt)
	}
	btc, _ := ex.GetBalance(context.Background(), "BTC")
	if !btc.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("base balance = %s, want 0.01", btc)
	}
}

func TestPaperInsufficientQuoteExpires(t *testing.T) {
	ex := newTestExchange("100")
	res, err := ex.PlaceOrder(context.Background(), model.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     model.SideBuy,
		Quantity: decimal.RequireFromString("0.01"),
		Price:    decimal.RequireFromString("50000"),
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if res.Filled() {
		t.Error("underfunded buy should not fill")
	}
	usdt, _ := ex.GetBalance(context.Background(), "USDT")
	if !usdt.Equal(decimal.RequireFromString("100")) {
		t.Errorf("quote balance changed on miss: %s", usdt)
	}
}

func TestPaperSellRoundTrip(t *testing.T) {
	ex := newTestExchange("1000")
	buy := model.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     model.SideBuy,
		Quantity: decimal.RequireFromString("0.01"),
		Price:    decimal.RequireFromString("50000"),
	}
	if _, err := ex.PlaceOrder(context.Background(), buy); err != nil {
		t.Fatalf("buy: %v", err)
	}
	sell := buy
	sell.Side = model.SideSell
	sell.Price = decimal.RequireFromString("51000")
	res, err := ex.PlaceOrder(context.Background(), sell)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if !res.Filled() {
		t.Fatalf("sell status = %s", res.Status)
	}
	usdt, _ := ex.GetBalance(context.Background(), "USDT")
	if !usdt.Equal(decimal.RequireFromString("1010")) {
		t.Errorf("quote after round trip = %s, want 1010", usdt)
	}
	btc, _ := ex.GetBalance(context.Background(), "BTC")
	if !btc.IsZero() {
		t.Errorf("base after round trip = %s, want 0", btc)
	}
}
