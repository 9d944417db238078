// Package report renders run results as human-readable text for the CLI.
package report

import (
	"fmt"
	"io"
	"sort"

	"dca-backtest/internal/backtest"
	"dca-backtest/internal/sweep"
)

// Write prints the run summary: capital flows, metrics, final holdings.
func Write(w io.Writer, name string, res *backtest.Result) error {
	if name == "" {
		name = "backtest"
	}
	profit := res.FinalValue - res.TotalInvested

	var err error
	p := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	p("=== %s ===\n", name)
	p("period          %s .. %s (%.2f years)\n",
		res.Start.Format("2006-01-02"), res.End.Format("2006-01-02"), res.Years)
	p("total invested  $%.2f\n", res.TotalInvested)
	p("final value     $%.2f\n", res.FinalValue)
	p("profit          $%.2f\n", profit)
	p("roi             %.2f%%\n", res.ROI*100)
	p("cagr            %.2f%%\n", res.CAGR*100)
	p("max drawdown    %.2f%%\n", res.MaxDrawdown*100)
	p("cash            $%s\n", res.Cash.StringFixed(2))

	if len(res.Holdings) > 0 {
		p("holdings:\n")
		symbols := make([]string, 0, len(res.Holdings))
		for sym := range res.Holdings {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)
		for _, sym := range symbols {
			p("  %-6s %s units\n", sym, res.Holdings[sym].StringFixed(4))
		}
	}
	return err
}

// WriteEvents prints the investment ledger, one line per event.
func WriteEvents(w io.Writer, res *backtest.Result) error {
	var err error
	p := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	p("events (%d):\n", len(res.Events))
	for _, e := range res.Events {
		p("  %s  %-10s %-6s %12s units @ %10s = $%s\n",
			e.Date.Format("2006-01-02"), e.Type, e.Symbol,
			e.Units.StringFixed(4), e.Price.StringFixed(2), e.Amount.StringFixed(2))
	}
	return err
}

// WriteSweep prints the top grid combinations, best first.
func WriteSweep(w io.Writer, points []sweep.Point, limit int) error {
	if limit <= 0 || limit > len(points) {
		limit = len(points)
	}
	var err error
	p := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	p("%-4s %-8s %-8s %14s %14s %10s %10s %10s\n",
		"#", "shallow", "deep", "invested", "final", "roi%", "cagr%", "maxdd%")
	for i := 0; i < limit; i++ {
		pt := points[i]
		p("%-4d %-8.2f %-8.2f %14.2f %14.2f %10.2f %10.2f %10.2f\n",
			i+1, pt.Shallow, pt.Deep, pt.TotalInvested, pt.FinalValue,
			pt.ROI*100, pt.CAGR*100, pt.MaxDrawdown*100)
	}
	return err
}
