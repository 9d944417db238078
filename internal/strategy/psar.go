package strategy

import (
	"time"

	"dca-backtest/internal/model"
)

// Parabolic SAR defaults from the source configuration.
const (
	PSARStep    = 0.02
	PSARMaxStep = 0.2
)

// ParabolicSAR computes Wilder's stop-and-reverse series over the bars.
// Bars without High/Low fall back to Close. Fewer than two bars yields a
// series pinned to the closes (no trend information to work with).
func ParabolicSAR(bars []model.Bar, step, maxStep float64) []float64 {
	out := make([]float64, len(bars))
	if len(bars) == 0 {
		return out
	}
	if len(bars) == 1 {
		out[0] = bars[0].Close
		return out
	}
	if step <= 0 {
		step = PSARStep
	}
	if maxStep < step {
		maxStep = PSARMaxStep
	}

	high := func(b model.Bar) float64 {
		if b.High > b.Close {
			return b.High
		}
		return b.Close
	}
	low := func(b model.Bar) float64 {
		if b.Low > 0 && b.Low < b.Close {
			return b.Low
		}
		return b.Close
	}

	up := bars[1].Close >= bars[0].Close
	var sar, ep float64
	if up {
		sar = low(bars[0])
		ep = high(bars[0])
	} else {
		sar = high(bars[0])
		ep = low(bars[0])
	}
	af := step
	out[0] = sar

	for i := 1; i < len(bars); i++ {
		sar += af * (ep - sar)

		if up {
			// SAR may not enter the prior two bars' range.
			if l := low(bars[i-1]); sar > l {
				sar = l
			}
			if i >= 2 {
				if l := low(bars[i-2]); sar > l {
					sar = l
				}
			}
			if low(bars[i]) < sar {
				// Reverse to downtrend.
				up = false
				sar = ep
				ep = low(bars[i])
				af = step
			} else {
				if h := high(bars[i]); h > ep {
					ep = h
					af += step
					if af > maxStep {
						af = maxStep
					}
				}
			}
		} else {
			if h := high(bars[i-1]); sar < h {
				sar = h
			}
			if i >= 2 {
				if h := high(bars[i-2]); sar < h {
					sar = h
				}
			}
			if high(bars[i]) > sar {
				// Reverse to uptrend.
				up = true
				sar = ep
				ep = high(bars[i])
				af = step
			} else {
				if l := low(bars[i]); l < ep {
					ep = l
					af += step
					if af > maxStep {
						af = maxStep
					}
				}
			}
		}
		out[i] = sar
	}
	return out
}

// WeeklyTrendStops builds the trend-filter gate the dip-buy strategies use:
// daily bars are rolled up into Monday-start weeks (close = last, high = max,
// low = min), Parabolic SAR runs on the weekly bars, and each week's stop is
// carried onto all of its days. The result is aligned index-for-index with
// s.Bars().
func WeeklyTrendStops(s *model.PriceSeries) []float64 {
	bars := s.Bars()
	stops := make([]float64, len(bars))
	if len(bars) == 0 {
		return stops
	}

	var weekly []model.Bar
	weekOf := make([]int, len(bars))
	var curWeek time.Time
	for i, b := range bars {
		w := weekStart(b.Date)
		if len(weekly) == 0 || !w.Equal(curWeek) {
			weekly = append(weekly, model.Bar{Date: w, Close: b.Close, High: b.High, Low: b.Low})
			curWeek = w
		} else {
			last := &weekly[len(weekly)-1]
			last.Close = b.Close
			if b.High > last.High {
				last.High = b.High
			}
			if last.Low == 0 || (b.Low > 0 && b.Low < last.Low) {
				last.Low = b.Low
			}
		}
		weekOf[i] = len(weekly) - 1
	}

	psar := ParabolicSAR(weekly, PSARStep, PSARMaxStep)
	for i := range bars {
		stops[i] = psar[weekOf[i]]
	}
	return stops
}

func weekStart(d time.Time) time.Time {
	wd := int(d.Weekday())
	if wd == 0 {
		wd = 7 // Sunday belongs to the week that started the prior Monday
	}
	return model.Day(d.AddDate(0, 0, 1-wd))
}
