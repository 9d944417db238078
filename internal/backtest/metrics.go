package backtest

import "math"

// MaxDrawdown returns the deepest peak-to-trough decline of the value series
// as a fraction. An empty series or a series that never rises above zero
// reports 0.
func MaxDrawdown(values []float64) float64 {
	peak := 0.0
	worst := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// ROI is the simple return on invested capital; 0 when nothing was invested.
func ROI(totalInvested, finalValue float64) float64 {
	if totalInvested <= 0 {
		return 0
	}
	return (finalValue - totalInvested) / totalInvested
}

// CAGR is the compound annual growth rate over the given span in years.
// Zero invested capital or a non-positive span reports 0. Callers compute
// years from the exact day count over 365.25 (see Engine.Run).
func CAGR(totalInvested, finalValue, years float64) float64 {
	if totalInvested <= 0 || years <= 0 {
		return 0
	}
	if finalValue <= 0 {
		return -1
	}
	return math.Pow(finalValue/totalInvested, 1/years) - 1
}
