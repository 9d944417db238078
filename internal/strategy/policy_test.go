package strategy

import (
	"testing"
)

func TestNewAllocationPolicy_Validation(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		tiers []Tier
	}{
		{"no base symbol", "", nil},
		{"zero threshold", "QQQ", []Tier{{Threshold: 0}}},
		{"threshold of one", "QQQ", []Tier{{Threshold: 1}}},
		{"negative multiplier", "QQQ", []Tier{{Threshold: 0.1, ExtraMultiplier: -1}}},
		{"duplicate thresholds", "QQQ", []Tier{{Threshold: 0.1}, {Threshold: 0.1, Symbol: "QLD"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAllocationPolicy(tt.base, tt.tiers); err == nil {
				t.Errorf("accepted base=%q tiers=%+v", tt.base, tt.tiers)
			}
		})
	}
}

func TestAllocationPolicy_SortsDescending(t *testing.T) {
	p, err := NewAllocationPolicy("QQQ", []Tier{
		{Threshold: 0.10, Symbol: "QLD"},
		{Threshold: 0.30, Symbol: "SQQQ"},
		{Threshold: 0.20, Symbol: "TQQQ"},
	})
	if err != nil {
		t.Fatalf("NewAllocationPolicy: %v", err)
	}
	tiers := p.Tiers()
	for i := 1; i < len(tiers); i++ {
		if tiers[i].Threshold >= tiers[i-1].Threshold {
			t.Fatalf("tiers not descending: %+v", tiers)
		}
	}
}

func TestAllocationPolicy_EmptyTierSymbolDefaultsToBase(t *testing.T) {
	p, err := NewAllocationPolicy("QQQ", []Tier{{Threshold: 0.10, ExtraMultiplier: 2}})
	if err != nil {
		t.Fatalf("NewAllocationPolicy: %v", err)
	}
	dec := p.Select(0.15)
	if dec.Symbol != "QQQ" {
		t.Errorf("symbol = %s, want base QQQ", dec.Symbol)
	}
	if dec.ExtraMultiplier != 2 {
		t.Errorf("multiplier = %.1f, want 2", dec.ExtraMultiplier)
	}
}

func TestAllocationPolicy_SelectBoundaries(t *testing.T) {
	p, err := NewAllocationPolicy("QQQ", []Tier{
		{Threshold: 0.10, Symbol: "QLD", ExtraMultiplier: 1},
		{Threshold: 0.20, Symbol: "TQQQ", ExtraMultiplier: 2},
	})
	if err != nil {
		t.Fatalf("NewAllocationPolicy: %v", err)
	}

	tests := []struct {
		drawdown float64
		symbol   string
		tier     int
	}{
		{0.00, "QQQ", -1},
		{0.05, "QQQ", -1},
		{0.0999, "QQQ", -1},
		{0.10, "QLD", 1},
		{0.15, "QLD", 1},
		{0.1999, "QLD", 1},
		{0.20, "TQQQ", 0},
		{0.35, "TQQQ", 0},
		{0.99, "TQQQ", 0},
	}
	for _, tt := range tests {
		dec := p.Select(tt.drawdown)
		if dec.Symbol != tt.symbol {
			t.Errorf("drawdown %.4f: symbol = %s, want %s", tt.drawdown, dec.Symbol, tt.symbol)
		}
		if dec.Tier != tt.tier {
			t.Errorf("drawdown %.4f: tier = %d, want %d", tt.drawdown, dec.Tier, tt.tier)
		}
	}
}
