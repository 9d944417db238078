package analysis

import (
	"sort"

	"dca-backtest/internal/model"
)

type RankedPotential struct {
	DipPotential
}

// RankByDipPotential computes potentials per symbol and sorts descending by
// deepest drawdown, the symbols where dip tiers have the most to work with.
func RankByDipPotential(bySymbol map[string]*model.PriceSeries) []RankedPotential {
	out := make([]RankedPotential, 0, len(bySymbol))
	for _, s := range bySymbol {
		p := ComputePotential(s)
		out = append(out, RankedPotential{DipPotential: p})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MaxDrawdown != out[j].MaxDrawdown {
			return out[i].MaxDrawdown > out[j].MaxDrawdown
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}
