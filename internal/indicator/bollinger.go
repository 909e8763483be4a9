package indicator

import (
	"math"

	"sniperbot/internal/model"
)

// Bollinger calculates Bollinger Bands: a simple moving average of closes
// plus/minus k standard deviations. Uses a preallocated circular buffer with
// rolling sum and sum-of-squares for an O(1) hot path.
type Bollinger struct {
	period int
	k      float64

	buf    []float64
	idx    int
	count  int
	sum    float64
	sumSq  float64
	lower  float64
	middle float64
	upper  float64
}

// NewBollinger creates a Bollinger Bands indicator with the given period
// (typically 20) and band width k (typically 2.0).
func NewBollinger(period int, k float64) *Bollinger {
	return &Bollinger{
		period: period,
		k:      k,
		buf:    make([]float64, period),
	}
}

func (b *Bollinger) Name() string { return "BB" }

func (b *Bollinger) Update(candle model.Candle) {
	price := candle.Close

	if b.count >= b.period {
		old := b.buf[b.idx]
		b.sum -= old
		b.sumSq -= old * old
	}

	b.buf[b.idx] = price
	b.sum += price
	b.sumSq += price * price
	b.idx = (b.idx + 1) % b.period
	b.count++

	if b.count < b.period {
		return
	}

	n := float64(b.period)
	mean := b.sum / n
	// Population variance; clamp tiny negatives from float cancellation
	variance := b.sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	sd := math.Sqrt(variance)

	b.middle = mean
	b.upper = mean + b.k*sd
	b.lower = mean - b.k*sd
}

// Bands returns (lower, middle, upper). Zero values before Ready.
func (b *Bollinger) Bands() (lower, middle, upper float64) {
	return b.lower, b.middle, b.upper
}

func (b *Bollinger) Ready() bool { return b.count >= b.period }
