package state

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"sniperbot/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewStore(filepath.Join(t.TempDir(), "state", "position.json"), log)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	pos := &model.Position{
		Symbol:       "BTCUSDT",
		Quantity:     0.02,
		EntryPrice:   50000,
		HighestPrice: 50500,
	}
	if err := s.Save(pos); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got := s.Load()
	if got == nil {
		t.Fatal("Load returned nil after Save")
	}
	if got.Symbol != pos.Symbol || got.Quantity != pos.Quantity ||
		got.EntryPrice != pos.EntryPrice || got.HighestPrice != pos.HighestPrice {
		t.Errorf("loaded %+v, want %+v", got, pos)
	}
}

func TestStoreSaveNilMeansFlat(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(&model.Position{Symbol: "BTCUSDT", Quantity: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(nil); err != nil {
		t.Fatalf("Save(nil): %v", err)
	}
	if got := s.Load(); got != nil {
		t.Errorf("expected flat after Save(nil), got %+v", got)
	}
}

func TestStoreLoadMissingFile(t *testing.T) {
	s := newTestStore(t)
	if got := s.Load(); got != nil {
		t.Errorf("expected nil for missing file, got %+v", got)
	}
}

func TestStoreLoadCorruptFile(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if got := s.Load(); got != nil {
		t.Errorf("expected nil for corrupt file, got %+v", got)
	}
}

func TestStoreNoTempFileLeftBehind(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(&model.Position{Symbol: "BTCUSDT"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(s.path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file still present after Save")
	}
}
