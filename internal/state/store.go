// Package state persists the bot's open position across restarts as a small
// JSON file. Persistence is best-effort: a missing or unreadable file means
// starting flat, never crashing.
package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"sniperbot/internal/model"
)

// snapshot is the on-disk document. ActivePosition is null when flat.
type snapshot struct {
	ActivePosition *model.Position `json:"active_position"`
}

// Store reads and writes the position file.
type Store struct {
	path string
	log  *slog.Logger
}

// NewStore creates a store backed by path, creating parent directories as
// needed.
func NewStore(path string, log *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("state dir %s: %w", dir, err)
		}
	}
	return &Store{path: path, log: log.With("component", "state")}, nil
}

// Save writes the position (or null when flat) via a temp file and rename so
// a crash mid-write cannot leave a truncated document.
func (s *Store) Save(pos *model.Position) error {
	data, err := json.MarshalIndent(snapshot{ActivePosition: pos}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state temp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

// Load returns the persisted position, or nil when the file is absent or
// unreadable. Corruption is logged and treated as a flat start.
func (s *Store) Load() *model.Position {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("state file unreadable, starting flat", "path", s.path, "err", err)
		}
		return nil
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Warn("state file corrupt, starting flat", "path", s.path, "err", err)
		return nil
	}
	return snap.ActivePosition
}
