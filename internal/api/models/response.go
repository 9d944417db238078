package models

import "time"

// BacktestResponse represents the response from a backtest run
type BacktestResponse struct {
	Status  string          `json:"status"`
	Summary BacktestSummary `json:"summary"`
	Records []PeriodRow     `json:"records,omitempty"`
	Events  []EventRow      `json:"events,omitempty"`
}

// BacktestSummary contains aggregated backtest results
type BacktestSummary struct {
	TotalInvested  float64           `json:"total_invested"`
	FinalValue     float64           `json:"final_value"`
	Profit         float64           `json:"profit"`
	ROI            float64           `json:"roi"`
	CAGR           float64           `json:"cagr"`
	MaxDrawdown    float64           `json:"max_drawdown"`
	Cash           string            `json:"cash"`
	Holdings       map[string]string `json:"holdings"`
	TotalPeriods   int               `json:"total_periods"`
	BacktestWindow TimeWindow        `json:"backtest_window"`
}

// TimeWindow represents a time range
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Years float64   `json:"years"`
}

// PeriodRow represents one period in the recorded time series
type PeriodRow struct {
	Date           string  `json:"date"`
	PortfolioValue float64 `json:"portfolio_value"`
	Invested       float64 `json:"invested"`
}

// EventRow represents one investment-ledger entry
type EventRow struct {
	Date   string `json:"date"`
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
	Units  string `json:"units"`
	Price  string `json:"price"`
	Amount string `json:"amount"`
}

// CompareBacktestResponse represents the response from a comparison
type CompareBacktestResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains results for one variation
type ComparisonResult struct {
	Name    string          `json:"name"`
	Summary BacktestSummary `json:"summary"`
}

// SweepResponse represents the response from a threshold sweep
type SweepResponse struct {
	Points []SweepPointRow `json:"points"`
}

// SweepPointRow represents one ranked grid combination
type SweepPointRow struct {
	Rank          int     `json:"rank"`
	Shallow       float64 `json:"shallow"`
	Deep          float64 `json:"deep"`
	TotalInvested float64 `json:"total_invested"`
	FinalValue    float64 `json:"final_value"`
	ROI           float64 `json:"roi"`
	CAGR          float64 `json:"cagr"`
	MaxDrawdown   float64 `json:"max_drawdown"`
}

// RankResponse represents the response from ranking symbols
type RankResponse struct {
	Rankings []Ranking `json:"rankings"`
}

// Ranking represents one ranked symbol
type Ranking struct {
	Rank               int     `json:"rank"`
	Symbol             string  `json:"symbol"`
	Count              int     `json:"count"`
	MinClose           float64 `json:"min_close"`
	MaxClose           float64 `json:"max_close"`
	SpreadP95P05       float64 `json:"spread_p95_p05"`
	MaxDrawdown        float64 `json:"max_drawdown"`
	UnderwaterFraction float64 `json:"underwater_fraction"`
}

// StrategyInfo represents information about a strategy preset
type StrategyInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a strategy parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "bool", "string"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
