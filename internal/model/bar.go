package model

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Bar is one daily observation for an instrument.
// Close is required and positive; High/Low are only populated when a trend
// filter needs them.
type Bar struct {
	Date  time.Time
	Close float64
	High  float64
	Low   float64
}

// PriceSeries is an ordered run of daily bars for one symbol, strictly
// increasing in date. Construct with NewPriceSeries or Normalize; bars are
// never mutated afterwards.
type PriceSeries struct {
	Symbol string

	bars  []Bar
	index map[int64]int // day key -> position in bars
}

var ErrNoData = errors.New("price series is empty")

// Day truncates t to midnight UTC. All series dates are keyed this way so
// bars loaded from different sources line up.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayKey(t time.Time) int64 {
	return Day(t).Unix()
}

// NewPriceSeries validates bars (non-empty, positive closes, strictly
// increasing dates) and builds the date index. Input that still has
// duplicates or gaps should go through Normalize instead.
func NewPriceSeries(symbol string, bars []Bar) (*PriceSeries, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	idx := make(map[int64]int, len(bars))
	var prev time.Time
	for i, b := range bars {
		if b.Close <= 0 {
			return nil, fmt.Errorf("%s: bar %d (%s): close must be > 0", symbol, i, b.Date.Format("2006-01-02"))
		}
		d := Day(b.Date)
		if i > 0 && !d.After(prev) {
			return nil, fmt.Errorf("%s: bar %d (%s): dates must be strictly increasing", symbol, i, b.Date.Format("2006-01-02"))
		}
		bars[i].Date = d
		idx[d.Unix()] = i
		prev = d
	}
	return &PriceSeries{Symbol: symbol, bars: bars, index: idx}, nil
}

// Normalize cleans raw bars the way every strategy run expects its input:
// dates truncated to days, duplicates dropped (last observation wins), sorted
// ascending, then forward-filled onto a Monday-Friday business-day calendar
// so weekly schedules always find a bar.
func Normalize(symbol string, raw []Bar) (*PriceSeries, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	byDay := make(map[int64]Bar, len(raw))
	for _, b := range raw {
		if b.Close <= 0 {
			continue
		}
		b.Date = Day(b.Date)
		byDay[b.Date.Unix()] = b
	}
	if len(byDay) == 0 {
		return nil, fmt.Errorf("%s: no bars with a positive close: %w", symbol, ErrNoData)
	}

	keys := make([]int64, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	start := time.Unix(keys[0], 0).UTC()
	end := time.Unix(keys[len(keys)-1], 0).UTC()

	filled := make([]Bar, 0, len(keys))
	var last Bar
	have := false
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		// Weekend observations still advance last so they carry into Monday.
		if b, ok := byDay[d.Unix()]; ok {
			last = b
			have = true
		}
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if have {
			last.Date = d
			filled = append(filled, last)
		}
	}
	return NewPriceSeries(symbol, filled)
}

// Bars returns the underlying bars. Callers must not modify the slice.
func (s *PriceSeries) Bars() []Bar { return s.bars }

func (s *PriceSeries) Len() int { return len(s.bars) }

func (s *PriceSeries) First() Bar { return s.bars[0] }

func (s *PriceSeries) Last() Bar { return s.bars[len(s.bars)-1] }

// BarOn returns the bar for the given date, if the series has one.
func (s *PriceSeries) BarOn(date time.Time) (Bar, bool) {
	i, ok := s.index[dayKey(date)]
	if !ok {
		return Bar{}, false
	}
	return s.bars[i], true
}

// CloseOn returns the closing price for the given date, if present.
func (s *PriceSeries) CloseOn(date time.Time) (float64, bool) {
	b, ok := s.BarOn(date)
	if !ok {
		return 0, false
	}
	return b.Close, true
}
