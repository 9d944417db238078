package backtest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"dca-backtest/internal/model"
	"dca-backtest/internal/strategy"
)

// Config describes one strategy run. Everything here is validated up front
// by New; a constructed Engine cannot fail on configuration mid-run.
type Config struct {
	// BaseSymbol is the instrument bought when no drawdown tier qualifies
	// and the reference series for peak/drawdown tracking.
	BaseSymbol string

	// Weekday is the scheduled contribution day (a business day).
	Weekday time.Weekday

	// Contribution is the amount of new money injected per scheduled period.
	Contribution float64

	// Tiers route purchases (and add extra dip money) by drawdown depth.
	Tiers []strategy.Tier

	// SellThreshold, when non-zero, liquidates everything once the reference
	// price closes at or below peak*(1-SellThreshold). Cash is redeployed on
	// the repurchase crossing and, week by week, through the normal schedule.
	SellThreshold float64

	// WholeUnits floors every scheduled purchase to whole shares.
	WholeUnits bool

	// TrendFilter gates purchases behind the weekly Parabolic SAR stop of
	// the reference series: no buying while the close sits on or under it.
	TrendFilter bool

	// ResetPeakOnRecovery restarts the drawdown window at the repurchase
	// price when cash is redeployed after a liquidation, instead of carrying
	// the pre-crash peak into the new position.
	ResetPeakOnRecovery bool

	// Dividends holds optional per-symbol distributions to reinvest.
	Dividends map[string][]model.Dividend
}

// Engine replays a strategy over normalized price series. It is pure: no
// I/O, no clocks, no randomness, so the same inputs always produce the same
// Result.
type Engine struct {
	cfg          Config
	policy       *strategy.AllocationPolicy
	contribution decimal.Decimal
}

func New(cfg Config) (*Engine, error) {
	if cfg.Contribution <= 0 {
		return nil, fmt.Errorf("engine config: contribution must be > 0")
	}
	if cfg.SellThreshold < 0 || cfg.SellThreshold >= 1 {
		return nil, fmt.Errorf("engine config: sell threshold %.4f must be in [0, 1)", cfg.SellThreshold)
	}
	if cfg.Weekday == time.Saturday || cfg.Weekday == time.Sunday {
		return nil, fmt.Errorf("engine config: schedule weekday %s is not a business day", cfg.Weekday)
	}
	policy, err := strategy.NewAllocationPolicy(cfg.BaseSymbol, cfg.Tiers)
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	return &Engine{
		cfg:          cfg,
		policy:       policy,
		contribution: decimal.NewFromFloat(cfg.Contribution),
	}, nil
}

// Run walks the reference series period by period and returns the recorded
// time series, investment ledger, final holdings, and metrics. The prices
// map must contain a series for the base symbol and for every tier symbol
// that should ever be bought; a missing or gapped price only skips that
// period's purchase.
func (e *Engine) Run(prices map[string]*model.PriceSeries) (*Result, error) {
	ref, ok := prices[e.cfg.BaseSymbol]
	if !ok || ref == nil || ref.Len() == 0 {
		return nil, fmt.Errorf("engine: reference %s: %w", e.cfg.BaseSymbol, model.ErrNoData)
	}
	for sym, s := range prices {
		if s == nil || s.Len() == 0 {
			return nil, fmt.Errorf("engine: %s: %w", sym, model.ErrNoData)
		}
	}

	var stops []float64
	if e.cfg.TrendFilter {
		stops = strategy.WeeklyTrendStops(ref)
	}

	divs := make(map[string][]model.Dividend, len(e.cfg.Dividends))
	for sym, d := range e.cfg.Dividends {
		divs[sym] = model.SortDividends(d)
	}

	ledger := NewLedger(e.cfg.WholeUnits)
	tracker := NewDrawdownTracker()
	invested := decimal.Zero

	liquidated := false
	liquidationPrice := 0.0
	prevClose := 0.0

	res := &Result{
		Start:    ref.First().Date,
		End:      ref.Last().Date,
		Holdings: map[string]decimal.Decimal{},
	}

	for i, bar := range ref.Bars() {
		if bar.Date.Weekday() != e.cfg.Weekday {
			continue
		}
		refClose := bar.Close

		// (0) Reinvest distributions that went ex since the last period.
		e.reinvestDue(ledger, prices, divs, bar.Date, res)

		// (1) Drawdown bookkeeping.
		drawdown := tracker.Update(refClose)

		// (2) Liquidation, then repurchase, in that fixed order.
		if e.cfg.SellThreshold > 0 && !liquidated && refClose <= tracker.Peak()*(1-e.cfg.SellThreshold) {
			for _, sym := range ledger.Symbols() {
				px, ok := priceOn(prices, sym, bar.Date)
				if !ok {
					continue
				}
				units := ledger.UnitsHeld(sym)
				proceeds := ledger.SellAll(sym, decimal.NewFromFloat(px))
				res.Events = append(res.Events, Event{
					Date: bar.Date, Type: EventSell, Symbol: sym,
					Units: units, Price: decimal.NewFromFloat(px), Amount: proceeds,
				})
			}
			liquidated = true
			liquidationPrice = refClose
		}

		if liquidated && prevClose > 0 && prevClose < liquidationPrice && refClose >= liquidationPrice {
			if cash := ledger.Cash(); cash.Sign() > 0 {
				px := decimal.NewFromFloat(refClose)
				units, err := ledger.Buy(e.cfg.BaseSymbol, cash, px)
				if err != nil {
					return nil, fmt.Errorf("engine: repurchase on %s: %w", bar.Date.Format("2006-01-02"), err)
				}
				if units.Sign() > 0 {
					res.Events = append(res.Events, Event{
						Date: bar.Date, Type: EventRepurchase, Symbol: e.cfg.BaseSymbol,
						Units: units, Price: px, Amount: units.Mul(px),
					})
					liquidated = false
					if e.cfg.ResetPeakOnRecovery {
						// Drawdown measures from the re-entry price from
						// here on, including this period's tier selection.
						tracker.Reset(refClose)
						drawdown = 0
					}
				}
			}
		}

		// (3)+(4) Scheduled contribution and the period's purchase, unless
		// the trend filter has the reference under its stop.
		if stops == nil || refClose > stops[i] {
			if ledger.Cash().LessThan(e.contribution) {
				ledger.Deposit(e.contribution)
				invested = invested.Add(e.contribution)
			}
			decision := e.policy.Select(drawdown)
			extra := decimal.Zero
			if decision.ExtraMultiplier > 0 {
				extra = e.contribution.Mul(decimal.NewFromFloat(decision.ExtraMultiplier))
				ledger.Deposit(extra)
				invested = invested.Add(extra)
			}
			investable := decimal.Min(ledger.Cash(), e.contribution.Add(extra))
			if px, ok := priceOn(prices, decision.Symbol, bar.Date); ok {
				pd := decimal.NewFromFloat(px)
				units, err := ledger.Buy(decision.Symbol, investable, pd)
				if err != nil {
					return nil, fmt.Errorf("engine: buy on %s: %w", bar.Date.Format("2006-01-02"), err)
				}
				if units.Sign() > 0 {
					res.Events = append(res.Events, Event{
						Date: bar.Date, Type: EventBuy, Symbol: decision.Symbol,
						Units: units, Price: pd, Amount: units.Mul(pd),
					})
				}
			}
			// No price for the selected symbol: the purchase is skipped for
			// good and the period is recorded as a no-op below.
		}

		// (5) Record the period.
		res.Records = append(res.Records, PeriodRecord{
			Date:           bar.Date,
			PortfolioValue: ledger.MarkToMarket(pricesOn(prices, bar.Date)).InexactFloat64(),
			Invested:       invested.InexactFloat64(),
		})
		prevClose = refClose
	}

	for _, sym := range ledger.Symbols() {
		res.Holdings[sym] = ledger.UnitsHeld(sym)
	}
	res.Cash = ledger.Cash()
	res.TotalInvested = invested.InexactFloat64()
	if n := len(res.Records); n > 0 {
		res.FinalValue = res.Records[n-1].PortfolioValue
	} else {
		res.FinalValue = ledger.MarkToMarket(pricesOn(prices, res.End)).InexactFloat64()
	}

	// The annualization window spans the processed periods, not the raw
	// series, so a few stray bars before the first scheduled day do not
	// dilute CAGR.
	span := res.End.Sub(res.Start)
	if n := len(res.Records); n > 0 {
		span = res.Records[n-1].Date.Sub(res.Records[0].Date)
	}
	res.Years = span.Hours() / 24 / 365.25
	values := make([]float64, len(res.Records))
	for i, r := range res.Records {
		values[i] = r.PortfolioValue
	}
	res.MaxDrawdown = MaxDrawdown(values)
	res.ROI = ROI(res.TotalInvested, res.FinalValue)
	res.CAGR = CAGR(res.TotalInvested, res.FinalValue, res.Years)
	return res, nil
}

// reinvestDue processes all dividends dated up to and including date,
// buying back into the paying symbol at the ex-date close.
func (e *Engine) reinvestDue(ledger *Ledger, prices map[string]*model.PriceSeries, divs map[string][]model.Dividend, date time.Time, res *Result) {
	for sym, pending := range divs {
		n := 0
		for _, d := range pending {
			if d.Date.After(date) {
				break
			}
			n++
			px, ok := priceOn(prices, sym, d.Date)
			if !ok {
				continue // no valid close on the ex-date, distribution is dropped
			}
			perShare := decimal.NewFromFloat(d.PerShare)
			pd := decimal.NewFromFloat(px)
			units := ledger.Reinvest(sym, perShare, pd)
			if units.Sign() > 0 {
				res.Events = append(res.Events, Event{
					Date: d.Date, Type: EventDividend, Symbol: sym,
					Units: units, Price: pd, Amount: units.Mul(pd),
				})
			}
		}
		if n > 0 {
			divs[sym] = pending[n:]
		}
	}
}

func priceOn(prices map[string]*model.PriceSeries, symbol string, date time.Time) (float64, bool) {
	s, ok := prices[symbol]
	if !ok || s == nil {
		return 0, false
	}
	return s.CloseOn(date)
}

func pricesOn(prices map[string]*model.PriceSeries, date time.Time) map[string]float64 {
	out := make(map[string]float64, len(prices))
	for sym, s := range prices {
		if px, ok := s.CloseOn(date); ok {
			out[sym] = px
		}
	}
	return out
}
