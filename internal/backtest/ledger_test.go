package backtest

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestLedger_BuyAppendsLots(t *testing.T) {
	l := NewLedger(false)
	l.Deposit(d(1000))

	units, err := l.Buy("SPY", d(400), d(100))
	if err != nil {
		t.Fatalf("first buy: %v", err)
	}
	if !units.Equal(d(4)) {
		t.Errorf("units = %s, want 4", units)
	}
	if _, err := l.Buy("SPY", d(600), d(120)); err != nil {
		t.Fatalf("second buy: %v", err)
	}

	if got := len(l.Lots("SPY")); got != 2 {
		t.Errorf("lots = %d, want 2 (never merged)", got)
	}
	if got := l.UnitsHeld("SPY"); !got.Equal(d(9)) {
		t.Errorf("units held = %s, want 9", got)
	}
	if l.Cash().Sign() != 0 {
		t.Errorf("cash = %s, want 0", l.Cash())
	}
}

func TestLedger_BuyRejectsOverspend(t *testing.T) {
	l := NewLedger(false)
	l.Deposit(d(100))

	if _, err := l.Buy("SPY", d(101), d(10)); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("err = %v, want ErrInsufficientFunds", err)
	}
	if !l.Cash().Equal(d(100)) {
		t.Errorf("cash changed on failed buy: %s", l.Cash())
	}
	if _, err := l.Buy("SPY", d(100), d(0)); err == nil {
		t.Error("zero price accepted")
	}
}

func TestLedger_BuyRoundingNeverOverdraws(t *testing.T) {
	// 780/92 has no finite decimal expansion; the quotient rounds up at the
	// division precision and units*price overshoots 780 by one ulp. The full
	// cash balance must still come out exactly zero, never negative.
	l := NewLedger(false)
	l.Deposit(d(780))

	units, err := l.Buy("SPY", d(780), d(92))
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if units.Sign() <= 0 {
		t.Fatalf("units = %s, want > 0", units)
	}
	if !l.Cash().IsZero() {
		t.Errorf("cash after full-balance buy = %s, want 0", l.Cash())
	}

	// Awkward quotients must never drive cash below zero either.
	for _, tt := range []struct{ amount, price float64 }{
		{1000, 3}, {890, 92}, {1, 7}, {999.99, 33.33},
	} {
		l := NewLedger(false)
		l.Deposit(d(tt.amount))
		if _, err := l.Buy("SPY", d(tt.amount), d(tt.price)); err != nil {
			t.Fatalf("buy %v at %v: %v", tt.amount, tt.price, err)
		}
		if l.Cash().IsNegative() {
			t.Errorf("buy %v at %v left cash %s", tt.amount, tt.price, l.Cash())
		}
	}
}

func TestLedger_WholeUnitsFloor(t *testing.T) {
	l := NewLedger(true)
	l.Deposit(d(1000))

	units, err := l.Buy("SPY", d(1000), d(300))
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if !units.Equal(d(3)) {
		t.Errorf("units = %s, want 3", units)
	}
	if !l.Cash().Equal(d(100)) {
		t.Errorf("remainder cash = %s, want 100", l.Cash())
	}

	// A spend below one share's price buys nothing and keeps the cash.
	units, err = l.Buy("SPY", d(100), d(300))
	if err != nil {
		t.Fatalf("small buy: %v", err)
	}
	if units.Sign() != 0 {
		t.Errorf("units = %s, want 0", units)
	}
	if !l.Cash().Equal(d(100)) {
		t.Errorf("cash = %s, want 100", l.Cash())
	}
}

func TestLedger_SellAllRoundTrip(t *testing.T) {
	l := NewLedger(false)
	l.Deposit(d(3000))
	if _, err := l.Buy("SPY", d(1000), d(100)); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Buy("SPY", d(2000), d(100)); err != nil {
		t.Fatal(err)
	}
	before := l.UnitsHeld("SPY")

	proceeds := l.SellAll("SPY", d(100))
	if !proceeds.Equal(d(3000)) {
		t.Errorf("proceeds = %s, want 3000", proceeds)
	}
	if l.UnitsHeld("SPY").Sign() != 0 {
		t.Errorf("units after sell = %s, want 0", l.UnitsHeld("SPY"))
	}
	if len(l.Symbols()) != 0 {
		t.Errorf("symbols after sell = %v, want none", l.Symbols())
	}

	// Repurchasing the same cash at the same price restores the position.
	units, err := l.Buy("SPY", proceeds, d(100))
	if err != nil {
		t.Fatalf("repurchase: %v", err)
	}
	if !units.Equal(before) {
		t.Errorf("round-trip units = %s, want %s", units, before)
	}

	if got := l.SellAll("MSFT", d(50)); got.Sign() != 0 {
		t.Errorf("selling an unheld symbol returned %s, want 0", got)
	}
}

func TestLedger_ReinvestStaysFractional(t *testing.T) {
	l := NewLedger(true)
	l.Deposit(d(1000))
	if _, err := l.Buy("SPY", d(1000), d(100)); err != nil {
		t.Fatal(err)
	}

	// $5/share on 10 shares at close 100: 0.5 units even in whole-unit mode.
	units := l.Reinvest("SPY", d(5), d(100))
	if !units.Equal(d(0.5)) {
		t.Errorf("reinvested units = %s, want 0.5", units)
	}
	if l.Cash().Sign() != 0 {
		t.Errorf("reinvestment touched cash: %s", l.Cash())
	}
	if units := l.Reinvest("MSFT", d(5), d(100)); units.Sign() != 0 {
		t.Errorf("reinvesting into an unheld symbol returned %s units", units)
	}
}

func TestLedger_MarkToMarket(t *testing.T) {
	l := NewLedger(false)
	l.Deposit(d(500))
	ignoreErr := func(_ decimal.Decimal, err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	ignoreErr(l.Buy("SPY", d(200), d(100)))
	ignoreErr(l.Buy("QQQ", d(300), d(50)))

	total := l.MarkToMarket(map[string]float64{"SPY": 110, "QQQ": 40})
	// 2 units x 110 + 6 units x 40 + 0 cash.
	if !total.Equal(d(460)) {
		t.Errorf("mark = %s, want 460", total)
	}

	// A symbol without a price marks at zero.
	total = l.MarkToMarket(map[string]float64{"SPY": 110})
	if !total.Equal(d(220)) {
		t.Errorf("mark with missing price = %s, want 220", total)
	}
}
