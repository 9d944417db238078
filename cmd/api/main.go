package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"dca-backtest/internal/api/handlers"
	"dca-backtest/internal/api/middleware"
	"dca-backtest/internal/data"
	"dca-backtest/internal/recorder"
)

func main() {
	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	// Shared data provider: Yahoo behind an optional on-disk cache.
	cache, err := data.NewCache(os.Getenv("API_CACHE_DIR"))
	if err != nil {
		log.Fatalf("Failed to open price cache: %v", err)
	}
	provider := &data.CachingProvider{Provider: data.NewYahooClient(), Cache: cache}

	// Optional run history database.
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if dbPath := os.Getenv("API_DATABASE"); dbPath != "" {
		rec, err = recorder.NewSQLiteRecorder(dbPath)
		if err != nil {
			log.Fatalf("Failed to open run database: %v", err)
		}
		defer rec.Close()
	}

	// Set up Gin router
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Apply middleware
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	// Initialize handlers
	backtestHandler := handlers.NewBacktestHandler(provider, rec)
	sweepHandler := handlers.NewSweepHandler(provider)
	strategyHandler := handlers.NewStrategyHandler()
	rankHandler := handlers.NewRankHandler(provider)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/backtest", backtestHandler.RunBacktest)
		api.POST("/backtest/compare", backtestHandler.CompareBacktests)
		api.POST("/sweep", sweepHandler.RunSweep)

		api.GET("/strategies", strategyHandler.ListStrategies)
		api.GET("/rank", rankHandler.RankSymbols)
	}

	// Start server
	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting API server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
