package indicator

import "sniperbot/internal/model"

// ATR calculates the Average True Range with Wilder smoothing.
// True range uses the previous close: max(H-L, |H-prevC|, |L-prevC|).
type ATR struct {
	period    int
	count     int
	prevClose float64
	sum       float64
	current   float64
}

// NewATR creates an ATR indicator with the given period (typically 14).
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Name() string { return "ATR" }

func (a *ATR) Update(candle model.Candle) {
	tr := candle.High - candle.Low
	if a.count > 0 {
		if d := abs(candle.High - a.prevClose); d > tr {
			tr = d
		}
		if d := abs(candle.Low - a.prevClose); d > tr {
			tr = d
		}
	}
	a.prevClose = candle.Close
	a.count++

	if a.count <= a.period {
		// Accumulate for initial SMA seed
		a.sum += tr
		if a.count == a.period {
			a.current = a.sum / float64(a.period)
		}
		return
	}

	// Wilder-style smoothing
	a.current = (a.current*float64(a.period-1) + tr) / float64(a.period)
}

func (a *ATR) Value() float64 { return a.current }
func (a *ATR) Ready() bool    { return a.count >= a.period }

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
