package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dca-backtest/internal/backtest"
)

func sampleResult() *backtest.Result {
	start := time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC)
	return &backtest.Result{
		Start: start,
		End:   start.AddDate(0, 0, 7),
		Records: []backtest.PeriodRecord{
			{Date: start, PortfolioValue: 1000, Invested: 1000},
			{Date: start.AddDate(0, 0, 7), PortfolioValue: 2100, Invested: 2000},
		},
		Events: []backtest.Event{
			{Date: start, Type: backtest.EventBuy, Symbol: "QQQ",
				Units: decimal.NewFromInt(10), Price: decimal.NewFromInt(100), Amount: decimal.NewFromInt(1000)},
		},
		Cash:          decimal.Zero,
		TotalInvested: 2000,
		FinalValue:    2100,
		ROI:           0.05,
	}
}

func TestSQLiteRecorder_RecordRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	r, err := NewSQLiteRecorder(path)
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	defer r.Close()

	id, err := r.RecordRun(&RunRecord{Name: "baseline", BaseSymbol: "QQQ", Result: sampleResult()})
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if id == 0 {
		t.Fatal("run id is zero")
	}

	var invested float64
	if err := r.db.QueryRow(`SELECT total_invested FROM runs WHERE id = ?`, id).Scan(&invested); err != nil {
		t.Fatalf("querying run: %v", err)
	}
	if invested != 2000 {
		t.Errorf("total_invested = %.2f, want 2000", invested)
	}

	var periods, events int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM period_records WHERE run_id = ?`, id).Scan(&periods); err != nil {
		t.Fatal(err)
	}
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM events WHERE run_id = ?`, id).Scan(&events); err != nil {
		t.Fatal(err)
	}
	if periods != 2 || events != 1 {
		t.Errorf("periods/events = %d/%d, want 2/1", periods, events)
	}

	// Recording again appends a second run with its own id.
	id2, err := r.RecordRun(&RunRecord{Name: "variant", BaseSymbol: "QQQ", Result: sampleResult()})
	if err != nil {
		t.Fatalf("second RecordRun: %v", err)
	}
	if id2 == id {
		t.Errorf("second run reused id %d", id)
	}
}

func TestNoopRecorder(t *testing.T) {
	n := NewNoopRecorder()
	if id, err := n.RecordRun(&RunRecord{Result: sampleResult()}); err != nil || id != 0 {
		t.Errorf("noop RecordRun = %d, %v", id, err)
	}
	if err := n.Close(); err != nil {
		t.Errorf("noop Close: %v", err)
	}
}
