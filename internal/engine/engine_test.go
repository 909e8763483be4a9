package engine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sniperbot/internal/exchange"
	"sniperbot/internal/execution"
	"sniperbot/internal/model"
	"sniperbot/internal/notification"
	"sniperbot/internal/state"
	"sniperbot/internal/telemetry"
)

type scriptedStrategy struct {
	signals []model.Signal
	next    int
	pos     *model.Position
}

func (s *scriptedStrategy) Name() string { return "scripted" }

func (s *scriptedStrategy) OnTick(model.Tick) model.Signal {
	if s.next >= len(s.signals) {
		return model.Hold()
	}
	sig := s.signals[s.next]
	s.next++
	return sig
}

func (s *scriptedStrategy) Position() *model.Position     { return s.pos }
func (s *scriptedStrategy) SetPosition(p *model.Position) { s.pos = p }

type stubVenue struct {
	status string
	err    error
	orders int
}

func (v *stubVenue) Name() string { return "stub" }

func (v *stubVenue) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	if v.err != nil {
		return decimal.Zero, v.err
	}
	return decimal.RequireFromString("1000"), nil
}

func (v *stubVenue) PlaceOrder(ctx context.Context, req model.OrderRequest) (*model.OrderResult, error) {
	v.orders++
	if v.err != nil {
		return nil, v.err
	}
	status := v.status
	if status == "" {
		status = "FILLED"
	}
	return &model.OrderResult{OrderID: "1", Symbol: req.Symbol, Status: status}, nil
}

type recordingNotifier struct {
	alerts []notification.Alert
}

func (r *recordingNotifier) Send(ctx context.Context, a notification.Alert) error {
	r.alerts = append(r.alerts, a)
	return nil
}

func testEngine(t *testing.T, strat *scriptedStrategy, venue exchange.Exchange, notify notification.Notifier) (*Engine, *state.Store) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := state.NewStore(filepath.Join(t.TempDir(), "position.json"), log)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	exec := execution.NewExecutor(venue, execution.Params{
		StepSize:    decimal.RequireFromString("0.001"),
		TickSize:    decimal.RequireFromString("0.1"),
		SlippagePct: decimal.RequireFromString("0.001"),
		MinNotional: decimal.RequireFromString("5.5"),
		BudgetQuote: decimal.RequireFromString("1000"),
	}, 600, log)
	eng, err := New(Deps{
		Symbol:     "BTCUSDT",
		QuoteAsset: "USDT",
		Strategy:   strat,
		Executor:   exec,
		Venue:      venue,
		Store:      store,
		Notifier:   notify,
		Log:        log,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng, store
}

func tick(price float64) model.Tick {
	return model.Tick{Symbol: "BTCUSDT", Price: price, TS: 1}
}

func TestBuyFillCommitsAndPersists(t *testing.T) {
	strat := &scriptedStrategy{signals: []model.Signal{
		model.Advice(model.SideBuy, 50000, "entry"),
	}}
	venue := &stubVenue{}
	eng, store := testEngine(t, strat, venue, &recordingNotifier{})

	eng.onTick(context.Background(), tick(50000))

	if strat.pos == nil {
		t.Fatal("position not committed after fill")
	}
	if strat.pos.Quantity != 0.02 {
		t.Errorf("qty = %v, want 0.02", strat.pos.Quantity)
	}
	if strat.pos.EntryPrice != 50050 {
		t.Errorf("entry = %v, want 50050 (limit price)", strat.pos.EntryPrice)
	}
	if strat.pos.HighestPrice != strat.pos.EntryPrice {
		t.Errorf("highest = %v, want entry", strat.pos.HighestPrice)
	}
	saved := store.Load()
	if saved == nil || saved.EntryPrice != strat.pos.EntryPrice {
		t.Errorf("persisted %+v, want entry %v", saved, strat.pos.EntryPrice)
	}
}

func TestUnfilledOrderLeavesStateFlat(t *testing.T) {
	strat := &scriptedStrategy{signals: []model.Signal{
		model.Advice(model.SideBuy, 50000, "entry"),
	}}
	venue := &stubVenue{status: "EXPIRED"}
	eng, store := testEngine(t, strat, venue, &recordingNotifier{})

	eng.onTick(context.Background(), tick(50000))

	if strat.pos != nil {
		t.Errorf("position committed without a fill: %+v", strat.pos)
	}
	if saved := store.Load(); saved != nil {
		t.Errorf("state persisted without a fill: %+v", saved)
	}
}

func TestSellFillClearsPosition(t *testing.T) {
	strat := &scriptedStrategy{
		signals: []model.Signal{model.Advice(model.SideSell, 49000, "trailing stop")},
		pos:     &model.Position{Symbol: "BTCUSDT", Quantity: 0.02, EntryPrice: 50050, HighestPrice: 50500},
	}
	venue := &stubVenue{}
	eng, store := testEngine(t, strat, venue, &recordingNotifier{})

	eng.onTick(context.Background(), tick(49000))

	if strat.pos != nil {
		t.Errorf("position not cleared after sell fill: %+v", strat.pos)
	}
	if saved := store.Load(); saved != nil {
		t.Errorf("persisted state not flat: %+v", saved)
	}
	if venue.orders != 1 {
		t.Errorf("venue saw %d orders, want 1", venue.orders)
	}
}

func TestStateChangedPersists(t *testing.T) {
	pos := &model.Position{Symbol: "BTCUSDT", Quantity: 0.02, EntryPrice: 50050, HighestPrice: 50600}
	strat := &scriptedStrategy{
		signals: []model.Signal{model.StateChanged()},
		pos:     pos,
	}
	eng, store := testEngine(t, strat, &stubVenue{}, &recordingNotifier{})

	eng.onTick(context.Background(), tick(50600))

	saved := store.Load()
	if saved == nil || saved.HighestPrice != 50600 {
		t.Errorf("ratcheted high not persisted: %+v", saved)
	}
}

func TestCredentialErrorAlertsOnce(t *testing.T) {
	credErr := exchange.ErrCredentials
	strat := &scriptedStrategy{signals: []model.Signal{
		model.Advice(model.SideBuy, 50000, "entry"),
		model.Advice(model.SideBuy, 50000, "entry"),
		model.Advice(model.SideBuy, 50000, "entry"),
	}}
	venue := &stubVenue{err: credErr}
	notify := &recordingNotifier{}
	eng, _ := testEngine(t, strat, venue, notify)

	for i := 0; i < 3; i++ {
		eng.onTick(context.Background(), tick(50000))
	}

	var critical int
	for _, a := range notify.alerts {
		if a.Level == notification.AlertCritical {
			critical++
		}
	}
	if critical != 1 {
		t.Errorf("critical alerts = %d, want exactly 1", critical)
	}
	if strat.pos != nil {
		t.Errorf("position committed despite credential failure")
	}
	// All three advices still reached the venue: the loop keeps running.
	if venue.orders != 3 {
		t.Errorf("venue saw %d orders, want 3", venue.orders)
	}
}

func TestStartRestoresPersistedPosition(t *testing.T) {
	strat := &scriptedStrategy{}
	eng, store := testEngine(t, strat, &stubVenue{}, &recordingNotifier{})
	want := &model.Position{Symbol: "BTCUSDT", Quantity: 0.05, EntryPrice: 48000, HighestPrice: 48200}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if strat.pos == nil || strat.pos.HighestPrice != 48200 {
		t.Errorf("restored position %+v, want %+v", strat.pos, want)
	}
}

type collectSink struct {
	mu     sync.Mutex
	events []telemetry.Event
}

func (c *collectSink) Write(ctx context.Context, ev telemetry.Event) error {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
	return nil
}

func (c *collectSink) byType(t telemetry.EventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int
	for _, ev := range c.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func TestTickAndStatusEventsReachTelemetry(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := state.NewStore(filepath.Join(t.TempDir(), "position.json"), log)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	venue := &stubVenue{}
	exec := execution.NewExecutor(venue, execution.Params{
		StepSize:    decimal.RequireFromString("0.001"),
		TickSize:    decimal.RequireFromString("0.1"),
		SlippagePct: decimal.RequireFromString("0.001"),
		MinNotional: decimal.RequireFromString("5.5"),
		BudgetQuote: decimal.RequireFromString("1000"),
	}, 600, log)

	feed := telemetry.NewFeed(64, log, nil)
	sink := &collectSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feed.Run(ctx, sink)

	strat := &scriptedStrategy{signals: []model.Signal{
		model.Hold(),
		model.Advice(model.SideBuy, 50000, "entry"),
	}}
	eng, err := New(Deps{
		Symbol:     "BTCUSDT",
		QuoteAsset: "USDT",
		Strategy:   strat,
		Executor:   exec,
		Venue:      venue,
		Store:      store,
		Notifier:   &recordingNotifier{},
		Feed:       feed,
		Log:        log,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	eng.onTick(ctx, tick(50000)) // hold
	eng.onTick(ctx, tick(50000)) // buy advice, fills

	deadline := time.After(time.Second)
	for sink.byType(telemetry.EventTick) < 2 {
		select {
		case <-deadline:
			t.Fatalf("tick events = %d, want 2", sink.byType(telemetry.EventTick))
		case <-time.After(5 * time.Millisecond):
		}
	}
	if n := sink.byType(telemetry.EventStatus); n != 1 {
		t.Errorf("status events = %d, want 1 from Start", n)
	}
	// The filled advice also produced signal, order and position events.
	for _, typ := range []telemetry.EventType{telemetry.EventSignal, telemetry.EventOrder, telemetry.EventPosition} {
		if sink.byType(typ) == 0 {
			t.Errorf("no %s event published", typ)
		}
	}
}
