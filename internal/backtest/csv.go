package backtest

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// WritePeriodCSV writes the recorded time series, one row per period.
func WritePeriodCSV(path string, records []PeriodRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"date", "portfolio_value", "invested"}); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			fmtDate(r.Date),
			fmtFloat(r.PortfolioValue),
			fmtFloat(r.Invested),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteEventsCSV writes the investment ledger, one row per event.
func WriteEventsCSV(path string, events []Event) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"date", "type", "symbol", "units", "price", "amount"}); err != nil {
		return err
	}
	for _, e := range events {
		row := []string{
			fmtDate(e.Date),
			string(e.Type),
			e.Symbol,
			e.Units.String(),
			e.Price.String(),
			e.Amount.String(),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
