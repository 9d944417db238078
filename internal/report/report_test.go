package report

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dca-backtest/internal/backtest"
	"dca-backtest/internal/sweep"
)

func TestWrite(t *testing.T) {
	start := time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC)
	res := &backtest.Result{
		Start:         start,
		End:           start.AddDate(1, 0, 0),
		Years:         1.0,
		TotalInvested: 10000,
		FinalValue:    12500,
		ROI:           0.25,
		CAGR:          0.25,
		MaxDrawdown:   0.08,
		Cash:          decimal.NewFromInt(100),
		Holdings: map[string]decimal.Decimal{
			"QQQ": decimal.NewFromInt(40),
			"QLD": decimal.NewFromFloat(2.5),
		},
	}

	var sb strings.Builder
	if err := Write(&sb, "rotation", res); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"=== rotation ===",
		"$10000.00",
		"$12500.00",
		"$2500.00",
		"25.00%",
		"8.00%",
		"QLD",
		"QQQ",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	// Holdings print in symbol order.
	if strings.Index(out, "QLD") > strings.Index(out, "QQQ") {
		t.Errorf("holdings not sorted:\n%s", out)
	}
}

func TestWriteEvents(t *testing.T) {
	res := &backtest.Result{
		Events: []backtest.Event{
			{
				Date: time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC), Type: backtest.EventBuy, Symbol: "QQQ",
				Units: decimal.NewFromInt(10), Price: decimal.NewFromInt(100), Amount: decimal.NewFromInt(1000),
			},
		},
	}
	var sb strings.Builder
	if err := WriteEvents(&sb, res); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, "2020-01-03") || !strings.Contains(out, "BUY") || !strings.Contains(out, "QQQ") {
		t.Errorf("event line incomplete:\n%s", out)
	}
}

func TestWriteSweep(t *testing.T) {
	points := []sweep.Point{
		{Shallow: 0.10, Deep: 0.20, ROI: 0.5},
		{Shallow: 0.10, Deep: 0.30, ROI: 0.3},
		{Shallow: 0.15, Deep: 0.30, ROI: 0.1},
	}
	var sb strings.Builder
	if err := WriteSweep(&sb, points, 2); err != nil {
		t.Fatalf("WriteSweep: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, "50.00") {
		t.Errorf("best point missing:\n%s", out)
	}
	// Header plus the two requested rows.
	if got := strings.Count(out, "\n"); got != 3 {
		t.Errorf("lines = %d, want 3:\n%s", got, out)
	}
}
