package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"dca-backtest/internal/backtest"
	"dca-backtest/internal/strategy"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Data Data `yaml:"data"`
	// Optional: load strategy parameters from a separate YAML
	// (e.g. examples/strategies/*.yaml). If both StrategyFile and Strategy
	// are provided, Strategy overrides StrategyFile.
	StrategyFile string   `yaml:"strategy_file"`
	Strategy     Strategy `yaml:"strategy"`
	// Database, when set, records each run into this SQLite file.
	Database string `yaml:"database"`
}

// Data describes what price history the run is fed with.
type Data struct {
	Symbol string `yaml:"symbol"`
	Start  string `yaml:"start"` // YYYY-MM-DD
	End    string `yaml:"end"`   // YYYY-MM-DD, empty means today
	// CacheDir holds fetched price CSVs; empty disables caching.
	CacheDir string `yaml:"cache_dir"`
	// DividendFiles maps a symbol to a CSV of its distributions.
	DividendFiles map[string]string `yaml:"dividend_files"`
}

// Strategy mirrors backtest.Config in YAML form.
type Strategy struct {
	Name                string  `yaml:"name"`
	Weekday             string  `yaml:"weekday"`
	Contribution        float64 `yaml:"contribution"`
	WholeUnits          bool    `yaml:"whole_units"`
	SellThreshold       float64 `yaml:"sell_threshold"`
	TrendFilter         bool    `yaml:"trend_filter"`
	ResetPeakOnRecovery bool    `yaml:"reset_peak_on_recovery"`
	Tiers               []Tier  `yaml:"tiers"`
}

type Tier struct {
	Threshold       float64 `yaml:"threshold"`
	Symbol          string  `yaml:"symbol"`
	ExtraMultiplier float64 `yaml:"extra_multiplier"`
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	// Friday is the schedule the strategies were designed around; leaving
	// it out of a config means Friday, not Sunday (the time.Weekday zero).
	if c.Strategy.Weekday == "" {
		c.Strategy.Weekday = "friday"
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	// If strategy_file is set, load it and merge in any explicit overrides
	// from c.Strategy.
	if c.StrategyFile != "" {
		strategyPath := c.StrategyFile
		if !filepath.IsAbs(strategyPath) {
			// Prefer interpreting relative paths as relative to the config
			// file directory, but fall back to the provided path (relative
			// to cwd) if that doesn't exist.
			cand := filepath.Join(filepath.Dir(path), strategyPath)
			if _, err := os.Stat(cand); err == nil {
				strategyPath = cand
			}
		}
		loaded, err := loadStrategyFile(strategyPath)
		if err != nil {
			return nil, err
		}
		c.Strategy = MergeStrategy(loaded, c.Strategy)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Data.Symbol == "" {
		return errors.New("data.symbol is required")
	}
	if c.Data.Start != "" {
		if _, err := time.Parse("2006-01-02", c.Data.Start); err != nil {
			return fmt.Errorf("data.start: %w", err)
		}
	}
	if c.Data.End != "" {
		if _, err := time.Parse("2006-01-02", c.Data.End); err != nil {
			return fmt.Errorf("data.end: %w", err)
		}
	}
	// Validate strategy params by constructing a backtest.Engine.
	ecfg, err := c.ToEngineConfig()
	if err != nil {
		return fmt.Errorf("strategy config invalid: %w", err)
	}
	if _, err := backtest.New(ecfg); err != nil {
		return fmt.Errorf("strategy config invalid: %w", err)
	}
	return nil
}

// ToEngineConfig translates the YAML shape into the engine's configuration.
// Dividends are loaded separately by the data layer and attached by the
// caller.
func (c *Config) ToEngineConfig() (backtest.Config, error) {
	wd, err := ParseWeekday(c.Strategy.Weekday)
	if err != nil {
		return backtest.Config{}, err
	}
	tiers := make([]strategy.Tier, len(c.Strategy.Tiers))
	for i, t := range c.Strategy.Tiers {
		tiers[i] = strategy.Tier{
			Threshold:       t.Threshold,
			Symbol:          t.Symbol,
			ExtraMultiplier: t.ExtraMultiplier,
		}
	}
	return backtest.Config{
		BaseSymbol:          c.Data.Symbol,
		Weekday:             wd,
		Contribution:        c.Strategy.Contribution,
		Tiers:               tiers,
		SellThreshold:       c.Strategy.SellThreshold,
		WholeUnits:          c.Strategy.WholeUnits,
		TrendFilter:         c.Strategy.TrendFilter,
		ResetPeakOnRecovery: c.Strategy.ResetPeakOnRecovery,
	}, nil
}

// Range returns the configured date window. A missing end means today; a
// missing start means the epoch (take everything the source has).
func (c *Config) Range() (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if c.Data.Start != "" {
		start, err = time.Parse("2006-01-02", c.Data.Start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("data.start: %w", err)
		}
	}
	if c.Data.End != "" {
		end, err = time.Parse("2006-01-02", c.Data.End)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("data.end: %w", err)
		}
	} else {
		now := time.Now().UTC()
		end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	if !start.IsZero() && end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("data range: end %s before start %s", c.Data.End, c.Data.Start)
	}
	return start, end, nil
}

// ParseWeekday maps a config string like "friday" or "Fri" to time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monday", "mon":
		return time.Monday, nil
	case "tuesday", "tue":
		return time.Tuesday, nil
	case "wednesday", "wed":
		return time.Wednesday, nil
	case "thursday", "thu":
		return time.Thursday, nil
	case "friday", "fri":
		return time.Friday, nil
	case "saturday", "sat":
		return time.Saturday, nil
	case "sunday", "sun":
		return time.Sunday, nil
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}

type strategyFileWrapper struct {
	Strategy Strategy `yaml:"strategy"`
}

func loadStrategyFile(path string) (Strategy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Strategy{}, err
	}
	var w strategyFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return Strategy{}, err
	}
	return w.Strategy, nil
}

// MergeStrategy overlays non-zero fields from override onto base.
// This is used when loading a strategy file and then applying overrides
// from the run config or the request.
func MergeStrategy(base, override Strategy) Strategy {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.Weekday != "" {
		out.Weekday = override.Weekday
	}
	if override.Contribution != 0 {
		out.Contribution = override.Contribution
	}
	if override.SellThreshold != 0 {
		out.SellThreshold = override.SellThreshold
	}
	// Booleans merge as OR: a false override cannot unset a base true,
	// configs that need it off should not set it in the base file.
	if override.WholeUnits {
		out.WholeUnits = true
	}
	if override.TrendFilter {
		out.TrendFilter = true
	}
	if override.ResetPeakOnRecovery {
		out.ResetPeakOnRecovery = true
	}
	if len(override.Tiers) > 0 {
		out.Tiers = override.Tiers
	}
	return out
}
