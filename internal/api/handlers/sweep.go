package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dca-backtest/internal/api/models"
	"dca-backtest/internal/data"
	"dca-backtest/internal/sweep"
)

// SweepHandler handles tier-threshold sweep requests
type SweepHandler struct {
	provider data.Provider
}

// NewSweepHandler creates a new sweep handler
func NewSweepHandler(provider data.Provider) *SweepHandler {
	return &SweepHandler{provider: provider}
}

// RunSweep handles POST /api/v1/sweep
func (h *SweepHandler) RunSweep(c *gin.Context) {
	var req models.SweepRequest
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

	// The fetch covers every tier symbol; sweeping only moves thresholds.
	bh := &BacktestHandler{provider: h.provider}
	prices, err := bh.loadPrices(c.Request.Context(), req.DataSource, cfg.Tiers)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "DATA_FETCH_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	points, err := sweep.Run(sweep.Options{
		Config:  cfg,
		Shallow: req.Shallow,
		Deep:    req.Deep,
	}, prices)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "SWEEP_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	limit := req.Limit
	if limit <= 0 || limit > len(points) {
		limit = len(points)
	}
	resp := models.SweepResponse{Points: make([]models.SweepPointRow, limit)}
	for i := 0; i < limit; i++ {
		p := points[i]
		resp.Points[i] = models.SweepPointRow{
			Rank:          i + 1,
			Shallow:       p.Shallow,
			Deep:          p.Deep,
			TotalInvested: p.TotalInvested,
			FinalValue:    p.FinalValue,
			ROI:           p.ROI,
			CAGR:          p.CAGR,
			MaxDrawdown:   p.MaxDrawdown,
		}
	}
	c.JSON(http.StatusOK, resp)
}
