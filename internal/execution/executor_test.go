package execution

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"sniperbot/internal/model"
)

type fakeVenue struct {
	requests []model.OrderRequest
	status   string
	err      error
}

func (f *fakeVenue) Name() string { return "fake" }

func (f *fakeVenue) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (f *fakeVenue) PlaceOrder(ctx context.Context, req model.OrderRequest) (*model.OrderResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == "" {
		status = "FILLED"
	}
	return &model.OrderResult{OrderID: "1", Symbol: req.Symbol, Status: status}, nil
}

func testExecutor(venue *fakeVenue, budget string) *Executor {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewExecutor(venue, Params{
		StepSize:    dec("0.001"),
		TickSize:    dec("0.1"),
		SlippagePct: dec("0.001"),
		MinNotional: dec("5.5"),
		BudgetQuote: dec(budget),
	}, 600, log)
}

func TestExecuteSkipsWhenQuantityFloorsToZero(t *testing.T) {
	venue := &fakeVenue{}
	ex := testExecutor(venue, "10") // 10 / 50000 = 0.0002, floors to 0 at step 0.001
	fill, err := ex.Execute(context.Background(), "BTCUSDT",
		model.Advice(model.SideBuy, 50000, "test"), decimal.Zero)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if fill != nil {
		t.Fatalf("expected skip, got fill %+v", fill)
	}
	if len(venue.requests) != 0 {
		t.Errorf("order reached venue on zero quantity")
	}
}

func TestExecuteBuySizesFromBudget(t *testing.T) {
	venue := &fakeVenue{}
	ex := testExecutor(venue, "1000")
	fill, err := ex.Execute(context.Background(), "BTCUSDT",
		model.Advice(model.SideBuy, 50000, "test"), decimal.Zero)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if fill == nil {
		t.Fatal("expected fill")
	}
	if !fill.Qty.Equal(dec("0.02")) {
		t.Errorf("qty = %s, want 0.02", fill.Qty)
	}
	// 50000 * 1.001 = 50050, already on the 0.1 tick grid.
	if !fill.Price.Equal(dec("50050")) {
		t.Errorf("price = %s, want 50050", fill.Price)
	}
	if len(venue.requests) != 1 {
		t.Fatalf("venue saw %d requests", len(venue.requests))
	}
	req := venue.requests[0]
	if req.Side != model.SideBuy || !req.Quantity.Equal(fill.Qty) || !req.Price.Equal(fill.Price) {
		t.Errorf("request %+v does not match fill %+v", req, fill)
	}
}

func TestExecuteSellLiquidatesHeldQuantity(t *testing.T) {
	venue := &fakeVenue{}
	ex := testExecutor(venue, "1000")
	held := dec("0.0205")
	fill, err := ex.Execute(context.Background(), "BTCUSDT",
		model.Advice(model.SideSell, 50000, "test"), held)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if fill == nil {
		t.Fatal("expected fill")
	}
	if !fill.Qty.Equal(dec("0.02")) {
		t.Errorf("qty = %s, want held floored to 0.02", fill.Qty)
	}
	// Sell slippage shades down: 50000 * 0.999 = 49950.
	if !fill.Price.Equal(dec("49950")) {
		t.Errorf("price = %s, want 49950", fill.Price)
	}
}

func TestExecuteSkipsBelowMinNotional(t *testing.T) {
	venue := &fakeVenue{}
	ex := testExecutor(venue, "1000")
	// 0.001 * 5000 = 5.0 notional, below the 5.5 floor.
	fill, err := ex.Execute(context.Background(), "BTCUSDT",
		model.Advice(model.SideSell, 5000, "test"), dec("0.001"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if fill != nil {
		t.Fatalf("expected skip, got %+v", fill)
	}
	if len(venue.requests) != 0 {
		t.Errorf("order reached venue below min notional")
	}
}

func TestExecuteUnfilledReturnsNoFill(t *testing.T) {
	venue := &fakeVenue{status: "EXPIRED"}
	ex := testExecutor(venue, "1000")
	fill, err := ex.Execute(context.Background(), "BTCUSDT",
		model.Advice(model.SideBuy, 50000, "test"), decimal.Zero)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if fill != nil {
		t.Fatalf("expired order produced fill %+v", fill)
	}
	if len(venue.requests) != 1 {
		t.Errorf("venue saw %d requests, want 1", len(venue.requests))
	}
}

func TestExecuteVenueErrorPropagates(t *testing.T) {
	wantErr := errors.New("boom")
	venue := &fakeVenue{err: wantErr}
	ex := testExecutor(venue, "1000")
	_, err := ex.Execute(context.Background(), "BTCUSDT",
		model.Advice(model.SideBuy, 50000, "test"), decimal.Zero)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestExecuteIgnoresNonAdvice(t *testing.T) {
	venue := &fakeVenue{}
	ex := testExecutor(venue, "1000")
	for _, sig := range []model.Signal{model.Hold(), model.StateChanged()} {
		fill, err := ex.Execute(context.Background(), "BTCUSDT", sig, decimal.Zero)
		if err != nil || fill != nil {
			t.Errorf("signal %s: fill=%v err=%v", sig.Type, fill, err)
		}
	}
}
