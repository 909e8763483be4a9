// Package telemetry fans observability events out of the hot path. Producers
// never block: when the consumer falls behind, events are dropped and
// counted. Telemetry loss must never stall trading.
package telemetry

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// EventType tags the payload carried by an Event.
type EventType string

const (
	EventTick     EventType = "tick"
	EventCandle   EventType = "candle"
	EventSignal   EventType = "signal"
	EventPosition EventType = "position"
	EventOrder    EventType = "order"
	EventStatus   EventType = "status"
)

// Event is one telemetry datum. Payload must be JSON-marshalable.
type Event struct {
	Type    EventType   `json:"type"`
	TS      int64       `json:"ts"`
	Payload interface{} `json:"payload"`
}

// Sink consumes drained events. Implementations may block; the feed's
// consumer goroutine absorbs that, not the producers.
type Sink interface {
	Write(ctx context.Context, ev Event) error
}

// Feed is a bounded, drop-on-full event channel with a single draining
// goroutine.
type Feed struct {
	ch      chan Event
	dropped atomic.Uint64
	log     *slog.Logger
	onDrop  func()
}

// NewFeed creates a feed buffering up to size events. onDrop, if non-nil, is
// called once per dropped event (metrics hook).
func NewFeed(size int, log *slog.Logger, onDrop func()) *Feed {
	if size <= 0 {
		size = 256
	}
	return &Feed{
		ch:     make(chan Event, size),
		log:    log.With("component", "telemetry"),
		onDrop: onDrop,
	}
}

// Publish enqueues an event without blocking. Full buffer drops the event.
func (f *Feed) Publish(t EventType, payload interface{}) {
	ev := Event{Type: t, TS: time.Now().UnixMilli(), Payload: payload}
	select {
	case f.ch <- ev:
	default:
		f.dropped.Add(1)
		if f.onDrop != nil {
			f.onDrop()
		}
	}
}

// Dropped returns the number of events discarded so far.
func (f *Feed) Dropped() uint64 { return f.dropped.Load() }

// Run drains the feed into the sinks until ctx is cancelled. Sink errors are
// logged and the event is abandoned; there is no retry.
func (f *Feed) Run(ctx context.Context, sinks ...Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-f.ch:
			for _, s := range sinks {
				if err := s.Write(ctx, ev); err != nil {
					f.log.Warn("telemetry sink write failed", "type", string(ev.Type), "err", err)
				}
			}
		}
	}
}
