package models

// BacktestRequest represents the request body for running a backtest
type BacktestRequest struct {
	DataSource DataSourceConfig `json:"data_source" binding:"required"`
	Strategy   StrategyConfig   `json:"strategy" binding:"required"`
	Options    BacktestOptions  `json:"options,omitempty"`
}

// DataSourceConfig defines how to fetch market data
type DataSourceConfig struct {
	Symbol    string `json:"symbol" binding:"required"`
	StartDate string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate   string `json:"end_date" binding:"required"`   // YYYY-MM-DD
	// Dividends enables fetching and reinvesting the base symbol's
	// distributions.
	Dividends bool `json:"dividends,omitempty"`
}

// StrategyConfig defines the contribution schedule and tier rules
type StrategyConfig struct {
	Name                string       `json:"name,omitempty"`
	Weekday             string       `json:"weekday,omitempty"` // default: "friday"
	Contribution        float64      `json:"contribution" binding:"required"`
	WholeUnits          bool         `json:"whole_units,omitempty"`
	SellThreshold       float64      `json:"sell_threshold,omitempty"`
	TrendFilter         bool         `json:"trend_filter,omitempty"`
	ResetPeakOnRecovery bool         `json:"reset_peak_on_recovery,omitempty"`
	Tiers               []TierConfig `json:"tiers,omitempty"`
}

// TierConfig defines one drawdown tier
type TierConfig struct {
	Threshold       float64 `json:"threshold" binding:"required"`
	Symbol          string  `json:"symbol,omitempty"` // default: base symbol
	ExtraMultiplier float64 `json:"extra_multiplier,omitempty"`
}

// BacktestOptions contains optional backtest parameters
type BacktestOptions struct {
	IncludeRecords bool `json:"include_records,omitempty"` // default: false
	IncludeEvents  bool `json:"include_events,omitempty"`  // default: false
}

// CompareBacktestRequest represents a request to compare multiple backtests
type CompareBacktestRequest struct {
	DataSource DataSourceConfig    `json:"data_source" binding:"required"`
	Variations []BacktestVariation `json:"variations" binding:"required"`
}

// BacktestVariation defines a variation to test
type BacktestVariation struct {
	Name     string         `json:"name" binding:"required"`
	Strategy StrategyConfig `json:"strategy" binding:"required"`
}

// SweepRequest represents a request to sweep tier thresholds
type SweepRequest struct {
	DataSource DataSourceConfig `json:"data_source" binding:"required"`
	Strategy   StrategyConfig   `json:"strategy" binding:"required"` // template, needs exactly 2 tiers
	Shallow    []float64        `json:"shallow" binding:"required"`
	Deep       []float64        `json:"deep" binding:"required"`
	Limit      int              `json:"limit,omitempty"` // default: all points
}

// RankRequest represents a request to rank symbols by dip potential
type RankRequest struct {
	Symbols   string `form:"symbols" binding:"required"` // comma-separated
	StartDate string `form:"start_date" binding:"required"`
	EndDate   string `form:"end_date" binding:"required"`
	Limit     int    `form:"limit,omitempty"` // default: 10
}
