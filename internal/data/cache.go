package data

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"dca-backtest/internal/model"
)

// Cache stores fetched daily bars as CSV files on disk, keyed by symbol and
// date window. Historical bars never change, so entries have no TTL; a new
// window is simply a new file.
type Cache struct {
	dir string
}

// NewCache returns a cache rooted at dir, creating it if needed. An empty
// dir disables caching and returns nil.
func NewCache(dir string) (*Cache, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) path(symbol string, start, end time.Time) string {
	name := fmt.Sprintf("%s_%s_%s.csv", symbol, start.Format("20060102"), end.Format("20060102"))
	return filepath.Join(c.dir, name)
}

// Load returns cached bars for the window, or false on a miss.
func (c *Cache) Load(symbol string, start, end time.Time) ([]model.Bar, bool) {
	f, err := os.Open(c.path(symbol, start, end))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	bars, err := ReadBarsCSV(f)
	if err != nil || len(bars) == 0 {
		// A corrupt entry is treated as a miss; the next Store overwrites it.
		return nil, false
	}
	return bars, true
}

// Store writes bars for the window into the cache.
func (c *Cache) Store(symbol string, start, end time.Time, bars []model.Bar) error {
	f, err := os.Create(c.path(symbol, start, end))
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteBarsCSV(f, bars)
}

// CachingProvider fronts a Provider with an on-disk Cache. A nil cache
// passes straight through.
type CachingProvider struct {
	Provider Provider
	Cache    *Cache
}

func (p *CachingProvider) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	if p.Cache != nil {
		if bars, ok := p.Cache.Load(symbol, start, end); ok {
			return bars, nil
		}
	}
	bars, err := p.Provider.FetchDaily(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if p.Cache != nil {
		if err := p.Cache.Store(symbol, start, end, bars); err != nil {
			log.Printf("[WARN] caching %s bars: %v", symbol, err)
		}
	}
	return bars, nil
}

func (p *CachingProvider) FetchDividends(ctx context.Context, symbol string, start, end time.Time) ([]model.Dividend, error) {
	return p.Provider.FetchDividends(ctx, symbol, start, end)
}
