package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dca-backtest/internal/api/models"
	"dca-backtest/internal/backtest"
	"dca-backtest/internal/config"
	"dca-backtest/internal/data"
	"dca-backtest/internal/model"
	"dca-backtest/internal/recorder"
	"dca-backtest/internal/strategy"
)

// BacktestHandler handles backtest-related requests
type BacktestHandler struct {
	provider data.Provider
	recorder recorder.Recorder
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(provider data.Provider, rec recorder.Recorder) *BacktestHandler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &BacktestHandler{provider: provider, recorder: rec}
}

// RunBacktest handles POST /api/v1/backtest
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var req models.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	cfg, err := buildEngineConfig(req.DataSource.Symbol, req.Strategy)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_CONFIG",
				Message: err.Error(),
			},
		})
		return
	}

	prices, err := h.loadPrices(c.Request.Context(), req.DataSource, cfg.Tiers)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "DATA_FETCH_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	if req.DataSource.Dividends {
		divs, err := h.loadDividends(c.Request.Context(), req.DataSource)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "DATA_FETCH_ERROR",
					Message: err.Error(),
				},
			})
			return
		}
		cfg.Dividends = divs
	}

	eng, err := backtest.New(cfg)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_CONFIG",
				Message: err.Error(),
			},
		})
		return
	}
	result, err := eng.Run(prices)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "BACKTEST_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	if _, err := h.recorder.RecordRun(&recorder.RunRecord{
		Name:       req.Strategy.Name,
		BaseSymbol: req.DataSource.Symbol,
		Result:     result,
	}); err != nil {
		log.Printf("[WARN] recording run: %v", err)
	}

	c.JSON(http.StatusOK, buildResponse(result, req.Options))
}

// CompareBacktests handles POST /api/v1/backtest/compare
func (h *BacktestHandler) CompareBacktests(c *gin.Context) {
	var req models.CompareBacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}
	if len(req.Variations) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: "at least one variation is required",
			},
		})
		return
	}

	// Build every config first so one fetch serves all variations.
	cfgs := make([]backtest.Config, len(req.Variations))
	var allTiers []strategy.Tier
	for i, v := range req.Variations {
		cfg, err := buildEngineConfig(req.DataSource.Symbol, v.Strategy)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "INVALID_CONFIG",
					Message: fmt.Sprintf("variation %q: %s", v.Name, err.Error()),
				},
			})
			return
		}
		cfgs[i] = cfg
		allTiers = append(allTiers, cfg.Tiers...)
	}

	prices, err := h.loadPrices(c.Request.Context(), req.DataSource, allTiers)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "DATA_FETCH_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	var divs map[string][]model.Dividend
	if req.DataSource.Dividends {
		divs, err = h.loadDividends(c.Request.Context(), req.DataSource)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "DATA_FETCH_ERROR",
					Message: err.Error(),
				},
			})
			return
		}
	}

	resp := models.CompareBacktestResponse{
		Comparison: make([]models.ComparisonResult, 0, len(req.Variations)),
	}
	for i, v := range req.Variations {
		cfg := cfgs[i]
		cfg.Dividends = divs
		eng, err := backtest.New(cfg)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "INVALID_CONFIG",
					Message: fmt.Sprintf("variation %q: %s", v.Name, err.Error()),
				},
			})
			return
		}
		result, err := eng.Run(prices)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "BACKTEST_ERROR",
					Message: fmt.Sprintf("variation %q: %s", v.Name, err.Error()),
				},
			})
			return
		}
		resp.Comparison = append(resp.Comparison, models.ComparisonResult{
			Name:    v.Name,
			Summary: buildSummary(result),
		})
	}
	c.JSON(http.StatusOK, resp)
}

// loadPrices fetches and normalizes the base series plus every tier symbol.
func (h *BacktestHandler) loadPrices(ctx context.Context, ds models.DataSourceConfig, tiers []strategy.Tier) (map[string]*model.PriceSeries, error) {
	start, end, err := parseWindow(ds)
	if err != nil {
		return nil, err
	}

	symbols := map[string]bool{ds.Symbol: true}
	for _, t := range tiers {
		if t.Symbol != "" {
			symbols[t.Symbol] = true
		}
	}

	prices := make(map[string]*model.PriceSeries, len(symbols))
	for sym := range symbols {
		raw, err := h.provider.FetchDaily(ctx, sym, start, end)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sym, err)
		}
		s, err := model.Normalize(sym, raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sym, err)
		}
		prices[sym] = s
	}
	return prices, nil
}

func (h *BacktestHandler) loadDividends(ctx context.Context, ds models.DataSourceConfig) (map[string][]model.Dividend, error) {
	start, end, err := parseWindow(ds)
	if err != nil {
		return nil, err
	}
	divs, err := h.provider.FetchDividends(ctx, ds.Symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s dividends: %w", ds.Symbol, err)
	}
	return map[string][]model.Dividend{ds.Symbol: divs}, nil
}

func parseWindow(ds models.DataSourceConfig) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", ds.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date: %w", err)
	}
	end, err := time.Parse("2006-01-02", ds.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date %s before start_date %s", ds.EndDate, ds.StartDate)
	}
	return start, end, nil
}

func buildEngineConfig(symbol string, s models.StrategyConfig) (backtest.Config, error) {
	weekday := s.Weekday
	if weekday == "" {
		weekday = "friday"
	}
	wd, err := config.ParseWeekday(weekday)
	if err != nil {
		return backtest.Config{}, err
	}
	tiers := make([]strategy.Tier, len(s.Tiers))
	for i, t := range s.Tiers {
		tiers[i] = strategy.Tier{
			Threshold:       t.Threshold,
			Symbol:          t.Symbol,
			ExtraMultiplier: t.ExtraMultiplier,
		}
	}
	return backtest.Config{
		BaseSymbol:          symbol,
		Weekday:             wd,
		Contribution:        s.Contribution,
		Tiers:               tiers,
		SellThreshold:       s.SellThreshold,
		WholeUnits:          s.WholeUnits,
		TrendFilter:         s.TrendFilter,
		ResetPeakOnRecovery: s.ResetPeakOnRecovery,
	}, nil
}

func buildSummary(res *backtest.Result) models.BacktestSummary {
	holdings := make(map[string]string, len(res.Holdings))
	for sym, units := range res.Holdings {
		holdings[sym] = units.StringFixed(6)
	}
	return models.BacktestSummary{
		TotalInvested: res.TotalInvested,
		FinalValue:    res.FinalValue,
		Profit:        res.FinalValue - res.TotalInvested,
		ROI:           res.ROI,
		CAGR:          res.CAGR,
		MaxDrawdown:   res.MaxDrawdown,
		Cash:          res.Cash.StringFixed(2),
		Holdings:      holdings,
		TotalPeriods:  len(res.Records),
		BacktestWindow: models.TimeWindow{
			Start: res.Start,
			End:   res.End,
			Years: res.Years,
		},
	}
}

func buildResponse(res *backtest.Result, opts models.BacktestOptions) models.BacktestResponse {
	resp := models.BacktestResponse{
		Status:  "completed",
		Summary: buildSummary(res),
	}
	if opts.IncludeRecords {
		resp.Records = make([]models.PeriodRow, len(res.Records))
		for i, r := range res.Records {
			resp.Records[i] = models.PeriodRow{
				Date:           r.Date.Format("2006-01-02"),
				PortfolioValue: r.PortfolioValue,
				Invested:       r.Invested,
			}
		}
	}
	if opts.IncludeEvents {
		resp.Events = make([]models.EventRow, len(res.Events))
		for i, e := range res.Events {
			resp.Events[i] = models.EventRow{
				Date:   e.Date.Format("2006-01-02"),
				Type:   string(e.Type),
				Symbol: e.Symbol,
				Units:  e.Units.String(),
				Price:  e.Price.String(),
				Amount: e.Amount.String(),
			}
		}
	}
	return resp
}
