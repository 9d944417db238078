package analysis

import (
	"math"
	"sort"
	"time"

	"dca-backtest/internal/model"
)

// DipPotential is a symbol-level summary you can use for ranking.
// It intentionally does not depend on a specific strategy configuration; it
// includes raw close stats plus the deepest historical drawdown, which is
// what decides whether dip tiers would ever have fired.
type DipPotential struct {
	Symbol string

	Start time.Time
	End   time.Time

	Count int

	MinClose  float64
	MaxClose  float64
	MeanClose float64
	P05Close  float64
	P95Close  float64

	SpreadP95P05 float64

	// MaxDrawdown is the deepest peak-to-trough decline of the close series
	// over the window, as a fraction.
	MaxDrawdown float64

	// UnderwaterFraction is the share of days spent 10% or more under the
	// running peak, a proxy for how often a 10% tier would have been active.
	UnderwaterFraction float64
}

func ComputePotential(s *model.PriceSeries) DipPotential {
	p := DipPotential{}
	if s == nil || s.Len() == 0 {
		return p
	}
	bars := s.Bars()
	p.Symbol = s.Symbol
	p.Count = len(bars)
	p.Start = s.First().Date
	p.End = s.Last().Date

	sum := 0.0
	minv := math.Inf(1)
	maxv := math.Inf(-1)
	vals := make([]float64, 0, len(bars))
	peak := 0.0
	underwater := 0
	for _, b := range bars {
		v := b.Close
		vals = append(vals, v)
		sum += v
		if v < minv {
			minv = v
		}
		if v > maxv {
			maxv = v
		}
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (peak - v) / peak
			if dd > p.MaxDrawdown {
				p.MaxDrawdown = dd
			}
			if dd >= 0.10 {
				underwater++
			}
		}
	}
	sort.Float64s(vals)
	p.MinClose = minv
	p.MaxClose = maxv
	p.MeanClose = sum / float64(len(vals))
	p.P05Close = percentileSorted(vals, 0.05)
	p.P95Close = percentileSorted(vals, 0.95)
	p.SpreadP95P05 = p.P95Close - p.P05Close
	p.UnderwaterFraction = float64(underwater) / float64(len(bars))
	return p
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
