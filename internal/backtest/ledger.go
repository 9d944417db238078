package backtest

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrInsufficientFunds is returned by Buy when the requested amount exceeds
// available cash. The engine clamps spend before calling, so a run never
// surfaces it; callers driving the ledger directly still get the hard check.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Lot is a discrete purchase: units bought at a per-unit cost basis.
// Lots are never merged; they accumulate per symbol in purchase order and are
// only cleared en masse by a full liquidation.
type Lot struct {
	Units     decimal.Decimal
	CostBasis decimal.Decimal
}

// Ledger owns cash and per-symbol lot lists. All mutation happens through
// its methods; it performs no I/O.
type Ledger struct {
	cash     decimal.Decimal
	holdings map[string][]Lot

	// wholeUnits floors purchases to whole shares, leaving the remainder in
	// cash. Off means fractional units.
	wholeUnits bool
}

func NewLedger(wholeUnits bool) *Ledger {
	return &Ledger{
		cash:       decimal.Zero,
		holdings:   map[string][]Lot{},
		wholeUnits: wholeUnits,
	}
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() decimal.Decimal { return l.cash }

// Deposit credits cash. Negative amounts are ignored.
func (l *Ledger) Deposit(amount decimal.Decimal) {
	if amount.IsNegative() {
		return
	}
	l.cash = l.cash.Add(amount)
}

// Buy spends amount of cash on the symbol at the given price and appends a
// lot. In whole-unit mode the spend is floored to whole shares; a spend too
// small for one share buys nothing and returns zero units.
func (l *Ledger) Buy(symbol string, amount, price decimal.Decimal) (decimal.Decimal, error) {
	if price.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("buy %s: price must be > 0", symbol)
	}
	if amount.Sign() <= 0 {
		return decimal.Zero, nil
	}
	if amount.GreaterThan(l.cash) {
		return decimal.Zero, fmt.Errorf("buy %s: amount %s exceeds cash %s: %w",
			symbol, amount.String(), l.cash.String(), ErrInsufficientFunds)
	}

	units := amount.Div(price)
	if l.wholeUnits {
		units = units.Floor()
		if units.Sign() <= 0 {
			return decimal.Zero, nil
		}
	}
	spend := units.Mul(price)
	// Div rounds at a fixed precision, so units*price can land one ulp above
	// amount. The debit never exceeds what was authorized, keeping cash >= 0.
	if spend.GreaterThan(amount) {
		spend = amount
	}

	l.cash = l.cash.Sub(spend)
	l.holdings[symbol] = append(l.holdings[symbol], Lot{Units: units, CostBasis: price})
	return units, nil
}

// SellAll liquidates every lot of the symbol at the given price, credits the
// proceeds to cash, and returns them. Holding nothing is a no-op.
func (l *Ledger) SellAll(symbol string, price decimal.Decimal) decimal.Decimal {
	units := l.UnitsHeld(symbol)
	if units.Sign() <= 0 {
		return decimal.Zero
	}
	proceeds := units.Mul(price)
	delete(l.holdings, symbol)
	l.cash = l.cash.Add(proceeds)
	return proceeds
}

// Reinvest converts a per-share dividend into additional units at the given
// price. Reinvested distributions stay fractional regardless of whole-unit
// mode and do not touch cash.
func (l *Ledger) Reinvest(symbol string, perShare, price decimal.Decimal) decimal.Decimal {
	if price.Sign() <= 0 || perShare.Sign() <= 0 {
		return decimal.Zero
	}
	held := l.UnitsHeld(symbol)
	if held.Sign() <= 0 {
		return decimal.Zero
	}
	income := held.Mul(perShare)
	units := income.Div(price)
	l.holdings[symbol] = append(l.holdings[symbol], Lot{Units: units, CostBasis: price})
	return units
}

// UnitsHeld sums lot units for the symbol; zero if none.
func (l *Ledger) UnitsHeld(symbol string) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range l.holdings[symbol] {
		total = total.Add(lot.Units)
	}
	return total
}

// Lots returns the symbol's lots in purchase order. Callers must not modify
// the slice.
func (l *Ledger) Lots(symbol string) []Lot { return l.holdings[symbol] }

// Symbols returns the symbols with at least one lot, sorted.
func (l *Ledger) Symbols() []string {
	out := make([]string, 0, len(l.holdings))
	for s := range l.holdings {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// MarkToMarket values all holdings at the supplied prices plus cash.
// A symbol with no price marks at zero, matching how the source data treats
// instruments that are not yet listed.
func (l *Ledger) MarkToMarket(prices map[string]float64) decimal.Decimal {
	total := l.cash
	for symbol := range l.holdings {
		px, ok := prices[symbol]
		if !ok || px <= 0 {
			continue
		}
		total = total.Add(l.UnitsHeld(symbol).Mul(decimal.NewFromFloat(px)))
	}
	return total
}
