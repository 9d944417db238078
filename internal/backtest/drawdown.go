package backtest

// DrawdownTracker keeps the running peak of one reference price and reports
// the current decline from it as a fraction in [0, 1).
type DrawdownTracker struct {
	peak float64
}

func NewDrawdownTracker() *DrawdownTracker { return &DrawdownTracker{} }

// Update raises the peak to price if it is a new high and returns the
// drawdown fraction (peak - price) / peak. A zero peak reports zero rather
// than dividing by it.
func (t *DrawdownTracker) Update(price float64) float64 {
	if price > t.peak {
		t.peak = price
	}
	if t.peak <= 0 || price >= t.peak {
		return 0
	}
	return (t.peak - price) / t.peak
}

// Peak returns the running peak seen so far.
func (t *DrawdownTracker) Peak() float64 { return t.peak }

// Reset restarts the measurement window at the given price. Used by the
// optional recovery behavior after a full liquidation.
func (t *DrawdownTracker) Reset(price float64) {
	t.peak = price
}
