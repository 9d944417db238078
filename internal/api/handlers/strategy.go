package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"dca-backtest/internal/api/models"
)

// StrategyHandler handles strategy-related requests
type StrategyHandler struct{}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler() *StrategyHandler {
	return &StrategyHandler{}
}

// ListStrategies handles GET /api/v1/strategies
func (h *StrategyHandler) ListStrategies(c *gin.Context) {
	log.Printf("StrategyHandler: ListStrategies called")
	strategies := []models.StrategyInfo{
		{
			Name:        "dca",
			Description: "Plain dollar-cost averaging. Buys the base symbol with a fixed contribution on the scheduled weekday.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "contribution",
					Type:        "float",
					Description: "Amount of new money invested per scheduled period",
				},
				{
					Name:        "weekday",
					Type:        "string",
					Description: "Scheduled contribution day (monday..friday)",
					Default:     "friday",
				},
				{
					Name:        "whole_units",
					Type:        "bool",
					Description: "Floor every purchase to whole shares, keeping the remainder in cash",
					Default:     false,
				},
			},
		},
		{
			Name:        "dip",
			Description: "DCA plus extra money at drawdown tiers. Each tier scales the base contribution by its extra_multiplier while the drawdown qualifies.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "tiers",
					Type:        "list",
					Description: "Drawdown tiers: threshold (fraction under peak) and extra_multiplier",
				},
			},
		},
		{
			Name:        "rotation",
			Description: "DCA that rotates purchases into alternate (typically leveraged) symbols at drawdown tiers without adding extra money.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "tiers",
					Type:        "list",
					Description: "Drawdown tiers: threshold and the symbol bought while it qualifies",
				},
			},
		},
		{
			Name:        "sell-rotate",
			Description: "Rotation with a liquidation stop: everything is sold once price falls sell_threshold under its peak, and all cash redeploys when price crosses back over the liquidation price from below.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "sell_threshold",
					Type:        "float",
					Description: "Drawdown fraction that triggers the full liquidation",
				},
				{
					Name:        "reset_peak_on_recovery",
					Type:        "bool",
					Description: "Restart the drawdown window at the current price once the prior peak is recovered while liquidated",
					Default:     false,
				},
			},
		},
		{
			Name:        "trend-filter",
			Description: "Any of the above gated by the weekly Parabolic SAR: purchases are suppressed while the close sits on or under the stop.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "trend_filter",
					Type:        "bool",
					Description: "Enable the weekly Parabolic SAR buy gate",
					Default:     false,
				},
			},
		},
	}

	c.JSON(http.StatusOK, gin.H{"strategies": strategies})
}
