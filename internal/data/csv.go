package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"dca-backtest/internal/model"
)

// ReadBarsCSV parses daily bars from a date,close,high,low CSV. A header
// row is detected and skipped; high and low columns are optional.
func ReadBarsCSV(r io.Reader) ([]model.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var bars []model.Bar
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: want at least date,close, got %d fields", line, len(rec))
		}
		date, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		closePx, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: close: %w", line, err)
		}
		b := model.Bar{Date: date, Close: closePx}
		if len(rec) > 2 && rec[2] != "" {
			if b.High, err = strconv.ParseFloat(rec[2], 64); err != nil {
				return nil, fmt.Errorf("line %d: high: %w", line, err)
			}
		}
		if len(rec) > 3 && rec[3] != "" {
			if b.Low, err = strconv.ParseFloat(rec[3], 64); err != nil {
				return nil, fmt.Errorf("line %d: low: %w", line, err)
			}
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// WriteBarsCSV writes bars as date,close,high,low with a header row.
func WriteBarsCSV(w io.Writer, bars []model.Bar) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"date", "close", "high", "low"}); err != nil {
		return err
	}
	for _, b := range bars {
		row := []string{
			b.Date.Format("2006-01-02"),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}

// LoadDividendsCSV reads date,amount distributions from a file, skipping a
// header row if present, and returns them sorted ascending.
func LoadDividendsCSV(path string) ([]model.Dividend, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	var divs []model.Dividend
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(rec) < 2 {
			return nil, fmt.Errorf("%s line %d: want date,amount", path, line)
		}
		date, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		amount, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: amount: %w", path, line, err)
		}
		divs = append(divs, model.Dividend{Date: date, PerShare: amount})
	}
	return model.SortDividends(divs), nil
}
