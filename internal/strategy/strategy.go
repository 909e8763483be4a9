// Package strategy contains the per-tick decision core.
//
// A Strategy receives every tick and answers with a Signal: Hold, an Advice
// to trade, or StateChanged when only internal risk state moved. Advice is
// pure proposal; the engine owns the commit: a Position is set or cleared
// only after execution confirms a fill, never by the strategy itself.
package strategy

import "sniperbot/internal/model"

// Strategy is the interface the decision loop drives.
type Strategy interface {
	// Name returns the strategy identifier for logging and journaling.
	Name() string

	// OnTick evaluates one tick and returns the strategy's advice.
	OnTick(tick model.Tick) model.Signal

	// Position returns the currently tracked open position, or nil when flat.
	Position() *model.Position

	// SetPosition commits a confirmed position change: a fill result from
	// execution (entry) or nil (confirmed close). Restored state at startup
	// also arrives through here.
	SetPosition(pos *model.Position)
}
