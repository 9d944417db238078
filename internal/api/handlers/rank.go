package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/api/models"
	"dca-backtest/internal/data"
	"dca-backtest/internal/model"
)

// RankHandler handles symbol ranking requests
type RankHandler struct {
	provider data.Provider
}

// NewRankHandler creates a new rank handler
func NewRankHandler(provider data.Provider) *RankHandler {
	return &RankHandler{provider: provider}
}

// RankSymbols handles GET /api/v1/rank
func (h *RankHandler) RankSymbols(c *gin.Context) {
	var req models.RankRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err == nil {
		var end time.Time
		end, err = time.Parse("2006-01-02", req.EndDate)
		if err == nil && end.Before(start) {
			err = fmt.Errorf("end_date %s before start_date %s", req.EndDate, req.StartDate)
		}
		if err == nil {
			h.rank(c, req, start, end)
			return
		}
	}
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		},
	})
}

func (h *RankHandler) rank(c *gin.Context, req models.RankRequest, start, end time.Time) {
	bySymbol := map[string]*model.PriceSeries{}
	for _, sym := range strings.Split(req.Symbols, ",") {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		raw, err := h.provider.FetchDaily(c.Request.Context(), sym, start, end)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "DATA_FETCH_ERROR",
					Message: fmt.Sprintf("%s: %s", sym, err.Error()),
				},
			})
			return
		}
		s, err := model.Normalize(sym, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "DATA_FETCH_ERROR",
					Message: fmt.Sprintf("%s: %s", sym, err.Error()),
				},
			})
			return
		}
		bySymbol[sym] = s
	}
	if len(bySymbol) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: "no symbols given",
			},
		})
		return
	}

	ranked := analysis.RankByDipPotential(bySymbol)
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > len(ranked) {
		limit = len(ranked)
	}

	resp := models.RankResponse{Rankings: make([]models.Ranking, limit)}
	for i := 0; i < limit; i++ {
		p := ranked[i]
		resp.Rankings[i] = models.Ranking{
			Rank:               i + 1,
			Symbol:             p.Symbol,
			Count:              p.Count,
			MinClose:           p.MinClose,
			MaxClose:           p.MaxClose,
			SpreadP95P05:       p.SpreadP95P05,
			MaxDrawdown:        p.MaxDrawdown,
			UnderwaterFraction: p.UnderwaterFraction,
		}
	}
	c.JSON(http.StatusOK, resp)
}
