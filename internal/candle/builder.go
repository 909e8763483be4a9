// Package candle folds ticks into fixed-duration OHLC buckets.
//
// The Builder is a synchronous, single-owner fold: the decision loop applies
// each tick in order and receives the closed candle exactly once when a tick
// crosses the bucket boundary. There is no timer-based flush; a bucket with
// no successor tick simply stays open.
package candle

import (
	"time"

	"sniperbot/internal/model"
)

// Builder accumulates ticks into the current OHLC bucket.
type Builder struct {
	duration int64 // bucket width in milliseconds
	cur      *model.Candle
}

// NewBuilder creates a Builder with the given bucket duration.
func NewBuilder(d time.Duration) *Builder {
	return &Builder{duration: d.Milliseconds()}
}

// bucketStart aligns a tick timestamp down to its bucket boundary.
func (b *Builder) bucketStart(ts int64) int64 {
	return ts / b.duration * b.duration
}

// Apply merges a tick into the current bucket. When the tick belongs to a
// later bucket, the previous bucket is returned as a closed candle and the
// tick seeds the new one (open=high=low=close=tick price). Skipped buckets
// are never backfilled. Ticks older than the current bucket are dropped.
func (b *Builder) Apply(t model.Tick) *model.Candle {
	start := b.bucketStart(t.TS)

	if b.cur == nil {
		b.cur = seed(t, start)
		return nil
	}

	switch {
	case start == b.cur.Start:
		c := b.cur
		if t.Price > c.High {
			c.High = t.Price
		}
		if t.Price < c.Low {
			c.Low = t.Price
		}
		c.Close = t.Price
		c.Ticks++
		return nil

	case start > b.cur.Start:
		closed := b.cur
		b.cur = seed(t, start)
		return closed

	default:
		// Late tick from an older bucket, drop.
		return nil
	}
}

// Current returns the forming candle, or nil before the first tick.
func (b *Builder) Current() *model.Candle {
	return b.cur
}

func seed(t model.Tick, start int64) *model.Candle {
	return &model.Candle{
		Symbol: t.Symbol,
		Start:  start,
		Open:   t.Price,
		High:   t.Price,
		Low:    t.Price,
		Close:  t.Price,
		Ticks:  1,
	}
}
