package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"dca-backtest/internal/backtest"
	"dca-backtest/internal/model"
	"dca-backtest/internal/report"
	"dca-backtest/internal/strategy"
)

// Demo:
// - Generate a synthetic multi-year price path with a deep mid-course crash
// - Run the dip-buy rotation strategy against it, no network or config needed
// - Show how the engine, tiers, and reporting fit together
func main() {
	weeks := flag.Int("weeks", 260, "Number of weeks to simulate")
	contribution := flag.Float64("contribution", 1000, "Weekly contribution")
	outCSV := flag.String("out", "", "Optional path to write the period CSV (e.g. results/demo.csv)")
	flag.Parse()

	prices := syntheticPrices(*weeks)

	cfg := backtest.Config{
		BaseSymbol:   "BASE",
		Weekday:      time.Friday,
		Contribution: *contribution,
		Tiers: []strategy.Tier{
			{Threshold: 0.10, Symbol: "LEV2", ExtraMultiplier: 1},
			{Threshold: 0.20, Symbol: "LEV3", ExtraMultiplier: 2},
		},
	}

	eng, err := backtest.New(cfg)
	if err != nil {
		panic(err)
	}
	res, err := eng.Run(prices)
	if err != nil {
		panic(err)
	}

	if *outCSV != "" {
		if err := os.MkdirAll(filepath.Dir(*outCSV), 0o755); err != nil {
			panic(err)
		}
		if err := backtest.WritePeriodCSV(*outCSV, res.Records); err != nil {
			panic(err)
		}
		fmt.Printf("Wrote %d rows to %s\n", len(res.Records), *outCSV)
	}

	if err := report.Write(os.Stdout, "demo", res); err != nil {
		panic(err)
	}
	if err := report.WriteEvents(os.Stdout, res); err != nil {
		panic(err)
	}
}

// syntheticPrices builds a deterministic weekly path: a steady climb, a 35%
// crash around the midpoint, then a recovery. The leveraged series amplify
// the base's weekly moves 2x and 3x.
func syntheticPrices(weeks int) map[string]*model.PriceSeries {
	if weeks < 10 {
		weeks = 10
	}
	start := time.Date(2015, 1, 2, 0, 0, 0, 0, time.UTC) // a Friday
	crashStart := weeks / 2
	crashEnd := crashStart + weeks/10

	base := make([]model.Bar, weeks)
	lev2 := make([]model.Bar, weeks)
	lev3 := make([]model.Bar, weeks)
	b, l2, l3 := 100.0, 100.0, 100.0
	prev := b
	for i := 0; i < weeks; i++ {
		date := start.AddDate(0, 0, 7*i)
		switch {
		case i == 0:
		case i >= crashStart && i < crashEnd:
			b *= math.Pow(0.65, 1/float64(crashEnd-crashStart))
		default:
			b *= 1.0025
		}
		move := b/prev - 1
		l2 *= 1 + 2*move
		l3 *= 1 + 3*move
		prev = b

		base[i] = model.Bar{Date: date, Close: b}
		lev2[i] = model.Bar{Date: date, Close: l2}
		lev3[i] = model.Bar{Date: date, Close: l3}
	}

	out := map[string]*model.PriceSeries{}
	for sym, bars := range map[string][]model.Bar{"BASE": base, "LEV2": lev2, "LEV3": lev3} {
		s, err := model.NewPriceSeries(sym, bars)
		if err != nil {
			panic(err)
		}
		out[sym] = s
	}
	return out
}
