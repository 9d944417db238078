package model

import (
	"sort"
	"time"
)

// Dividend is one per-share cash distribution for an instrument.
type Dividend struct {
	Date     time.Time
	PerShare float64
}

// SortDividends orders distributions ascending by date, truncating dates to
// days, and drops non-positive amounts.
func SortDividends(divs []Dividend) []Dividend {
	out := make([]Dividend, 0, len(divs))
	for _, d := range divs {
		if d.PerShare <= 0 {
			continue
		}
		d.Date = Day(d.Date)
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
