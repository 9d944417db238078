package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dca-backtest/internal/api/models"
)

// ErrorHandler recovers from handler panics and turns them into a uniform
// INTERNAL_ERROR response.
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		message := "An unexpected error occurred"
		if err, ok := recovered.(string); ok {
			message = err
		} else if err, ok := recovered.(error); ok {
			message = err.Error()
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: message,
			},
		})
		c.Abort()
	})
}
