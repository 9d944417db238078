package strategy

import (
	"fmt"
	"sort"
)

// Tier routes purchases while the reference instrument trades at or below
// Threshold under its running peak. Symbol receives the period's purchase;
// ExtraMultiplier scales the base contribution into an additional purchase
// made the same period (0 means rotation only, no extra money).
type Tier struct {
	Threshold       float64
	Symbol          string
	ExtraMultiplier float64
}

// Decision is the single outcome of tier selection for one period.
type Decision struct {
	Symbol          string
	ExtraMultiplier float64
	Tier            int // index into Tiers(), -1 when the base tier applies
}

// AllocationPolicy picks the purchase target for the current drawdown.
// Tiers are sorted by descending threshold at construction so selection is
// always deepest-qualifying-first, regardless of the order the caller
// configured them in.
type AllocationPolicy struct {
	base  string
	tiers []Tier
}

func NewAllocationPolicy(baseSymbol string, tiers []Tier) (*AllocationPolicy, error) {
	if baseSymbol == "" {
		return nil, fmt.Errorf("allocation policy: base symbol is required")
	}
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	for i, t := range sorted {
		if t.Threshold <= 0 || t.Threshold >= 1 {
			return nil, fmt.Errorf("allocation policy: tier %d: threshold %.4f must be in (0, 1)", i, t.Threshold)
		}
		if t.ExtraMultiplier < 0 {
			return nil, fmt.Errorf("allocation policy: tier %d: extra multiplier must be >= 0", i)
		}
		if sorted[i].Symbol == "" {
			sorted[i].Symbol = baseSymbol
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Threshold > sorted[j].Threshold })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Threshold == sorted[i-1].Threshold {
			return nil, fmt.Errorf("allocation policy: duplicate threshold %.4f", sorted[i].Threshold)
		}
	}
	return &AllocationPolicy{base: baseSymbol, tiers: sorted}, nil
}

// Base returns the symbol purchased when no tier qualifies.
func (p *AllocationPolicy) Base() string { return p.base }

// Tiers returns the tiers in selection order (descending threshold).
func (p *AllocationPolicy) Tiers() []Tier { return p.tiers }

// Select maps the current drawdown fraction to exactly one decision: the
// first tier, scanning deepest threshold first, whose threshold is at or
// below the drawdown. No qualifying tier yields the base symbol with no
// extra purchase.
func (p *AllocationPolicy) Select(drawdown float64) Decision {
	for i, t := range p.tiers {
		if drawdown >= t.Threshold {
			return Decision{Symbol: t.Symbol, ExtraMultiplier: t.ExtraMultiplier, Tier: i}
		}
	}
	return Decision{Symbol: p.base, Tier: -1}
}
