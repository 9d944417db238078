package backtest

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodRecord is one row of the simulated time series: the portfolio marked
// to market at a period boundary alongside the capital invested so far.
// Records are append-only; MetricsCalculator-style reductions run over them.
type PeriodRecord struct {
	Date           time.Time
	PortfolioValue float64
	Invested       float64
}

// EventType labels investment-ledger entries. Keep these values stable; they
// go straight into CSV and report output.
type EventType string

const (
	EventBuy        EventType = "BUY"
	EventSell       EventType = "SELL"
	EventRepurchase EventType = "REPURCHASE"
	EventDividend   EventType = "DIVIDEND"
)

// Event is one investment-ledger entry: something the strategy actually did.
type Event struct {
	Date   time.Time
	Type   EventType
	Symbol string
	Units  decimal.Decimal
	Price  decimal.Decimal
	Amount decimal.Decimal
}

// Result is the full outcome of one strategy run.
type Result struct {
	Start time.Time
	End   time.Time
	// Years is the exact calendar span in 365.25-day years, the convention
	// every metric here uses.
	Years float64

	Records []PeriodRecord
	Events  []Event

	Holdings map[string]decimal.Decimal
	Cash     decimal.Decimal

	TotalInvested float64
	FinalValue    float64
	MaxDrawdown   float64
	ROI           float64
	CAGR          float64
}
