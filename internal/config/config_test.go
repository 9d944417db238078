package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "run.yaml", `
data:
  symbol: QQQ
  start: 2015-01-02
  end: 2024-12-31
  cache_dir: .cache
strategy:
  name: rotation
  weekday: friday
  contribution: 1000
  sell_threshold: 0.30
  tiers:
    - threshold: 0.10
      symbol: QLD
    - threshold: 0.20
      symbol: TQQQ
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Data.Symbol != "QQQ" {
		t.Errorf("symbol = %s, want QQQ", c.Data.Symbol)
	}
	ecfg, err := c.ToEngineConfig()
	if err != nil {
		t.Fatalf("ToEngineConfig: %v", err)
	}
	if ecfg.Weekday != time.Friday {
		t.Errorf("weekday = %s, want Friday", ecfg.Weekday)
	}
	if len(ecfg.Tiers) != 2 {
		t.Fatalf("tiers = %d, want 2", len(ecfg.Tiers))
	}
	if ecfg.SellThreshold != 0.30 {
		t.Errorf("sell threshold = %.2f, want 0.30", ecfg.SellThreshold)
	}
}

func TestLoad_DefaultsWeekdayToFriday(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "run.yaml", `
data:
  symbol: SPY
strategy:
  contribution: 500
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Strategy.Weekday != "friday" {
		t.Errorf("weekday = %q, want friday", c.Strategy.Weekday)
	}
}

func TestLoad_StrategyFileMerge(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rotation.yaml", `
strategy:
  name: rotation
  weekday: friday
  contribution: 1000
  tiers:
    - threshold: 0.10
      symbol: QLD
`)
	path := writeFile(t, dir, "run.yaml", `
data:
  symbol: QQQ
strategy_file: rotation.yaml
strategy:
  contribution: 2500
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Strategy.Contribution != 2500 {
		t.Errorf("contribution = %.0f, want the override 2500", c.Strategy.Contribution)
	}
	if c.Strategy.Name != "rotation" {
		t.Errorf("name = %q, want rotation from the strategy file", c.Strategy.Name)
	}
	if len(c.Strategy.Tiers) != 1 || c.Strategy.Tiers[0].Symbol != "QLD" {
		t.Errorf("tiers = %+v, want the strategy file's", c.Strategy.Tiers)
	}
}

func TestLoad_RejectsInvalidStrategy(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		yaml string
	}{
		{"missing symbol", "strategy:\n  contribution: 100\n"},
		{"zero contribution", "data:\n  symbol: SPY\nstrategy:\n  weekday: friday\n"},
		{"bad weekday", "data:\n  symbol: SPY\nstrategy:\n  weekday: someday\n  contribution: 100\n"},
		{"weekend weekday", "data:\n  symbol: SPY\nstrategy:\n  weekday: saturday\n  contribution: 100\n"},
		{"bad date", "data:\n  symbol: SPY\n  start: 01/02/2015\nstrategy:\n  contribution: 100\n"},
		{"sell threshold too high", "data:\n  symbol: SPY\nstrategy:\n  contribution: 100\n  sell_threshold: 1.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name+".yaml", tt.yaml)
			if _, err := Load(path); err == nil {
				t.Errorf("Load accepted:\n%s", tt.yaml)
			}
		})
	}
}

func TestConfig_Range(t *testing.T) {
	c := &Config{Data: Data{Symbol: "SPY", Start: "2020-01-01", End: "2021-01-01"}}
	start, end, err := c.Range()
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if start.Format("2006-01-02") != "2020-01-01" || end.Format("2006-01-02") != "2021-01-01" {
		t.Errorf("range = %s..%s", start, end)
	}

	c = &Config{Data: Data{Symbol: "SPY", Start: "2021-01-01", End: "2020-01-01"}}
	if _, _, err := c.Range(); err == nil {
		t.Error("inverted range accepted")
	}

	c = &Config{Data: Data{Symbol: "SPY"}}
	_, end, err = c.Range()
	if err != nil {
		t.Fatalf("open range: %v", err)
	}
	if end.IsZero() {
		t.Error("open-ended range produced a zero end date")
	}
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in   string
		want time.Weekday
	}{
		{"friday", time.Friday},
		{"Fri", time.Friday},
		{" MONDAY ", time.Monday},
		{"wed", time.Wednesday},
	}
	for _, tt := range tests {
		got, err := ParseWeekday(tt.in)
		if err != nil {
			t.Errorf("ParseWeekday(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseWeekday(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if _, err := ParseWeekday("someday"); err == nil {
		t.Error("unknown weekday accepted")
	}
}
