package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/backtest"
	"dca-backtest/internal/config"
	"dca-backtest/internal/data"
	"dca-backtest/internal/model"
	"dca-backtest/internal/recorder"
	"dca-backtest/internal/report"
	"dca-backtest/internal/sweep"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "backtest":
		cmdBacktest(os.Args[2:])
	case "sweep":
		cmdSweep(os.Args[2:])
	case "rank":
		cmdRank(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli backtest --config examples/config.yaml --out results/periods.csv")
	fmt.Println("  cli sweep --config examples/config.yaml --shallow 0.05,0.10,0.15 --deep 0.20,0.25,0.30")
	fmt.Println("  cli rank --symbols QQQ,SPY,SCHD --start 2015-01-01 --end 2024-12-31")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - backtest outputs a per-period CSV plus an events CSV of every buy/sell")
	fmt.Println("  - sweep grid-searches the two tier thresholds and ranks by ROI, CAGR, drawdown")
	fmt.Println("  - rank scores symbols by how much their history gives dip tiers to work with")
}

func cmdBacktest(args []string) {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	outPath := fs.String("out", "results/periods.csv", "Output CSV path for the period series")
	eventsPath := fs.String("events", "", "Optional output CSV path for the event ledger")
	_ = fs.Parse(args)

	if *cfgPath == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}
	ecfg, err := cfg.ToEngineConfig()
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	provider := newProvider(cfg.Data.CacheDir)
	prices, err := fetchPrices(ctx, provider, cfg, ecfg)
	if err != nil {
		panic(err)
	}

	ecfg.Dividends, err = loadDividends(cfg)
	if err != nil {
		panic(err)
	}

	eng, err := backtest.New(ecfg)
	if err != nil {
		panic(err)
	}
	res, err := eng.Run(prices)
	if err != nil {
		panic(err)
	}

	rec := newRecorder(cfg.Database)
	defer rec.Close()
	if _, err := rec.RecordRun(&recorder.RunRecord{
		Name:       cfg.Strategy.Name,
		BaseSymbol: cfg.Data.Symbol,
		Result:     res,
	}); err != nil {
		panic(err)
	}

	// ensure output dir exists
	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		panic(err)
	}
	if err := backtest.WritePeriodCSV(*outPath, res.Records); err != nil {
		panic(err)
	}
	fmt.Printf("Wrote %d rows to %s\n", len(res.Records), *outPath)

	if *eventsPath != "" {
		if err := os.MkdirAll(filepath.Dir(*eventsPath), 0o755); err != nil {
			panic(err)
		}
		if err := backtest.WriteEventsCSV(*eventsPath, res.Events); err != nil {
			panic(err)
		}
		fmt.Printf("Wrote %d events to %s\n", len(res.Events), *eventsPath)
	}

	if err := report.Write(os.Stdout, cfg.Strategy.Name, res); err != nil {
		panic(err)
	}
}

func cmdSweep(args []string) {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (strategy needs exactly two tiers)")
	shallowArg := fs.String("shallow", "0.05,0.10,0.15", "Comma-separated thresholds for the first tier")
	deepArg := fs.String("deep", "0.20,0.25,0.30", "Comma-separated thresholds for the second tier")
	outPath := fs.String("out", "", "Optional output CSV path for the full grid")
	top := fs.Int("top", 10, "How many combinations to print")
	workers := fs.Int("workers", 0, "Concurrent runs (0 = number of CPUs)")
	_ = fs.Parse(args)

	if *cfgPath == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}
	ecfg, err := cfg.ToEngineConfig()
	if err != nil {
		panic(err)
	}
	shallow, err := parseFloats(*shallowArg)
	if err != nil {
		panic(err)
	}
	deep, err := parseFloats(*deepArg)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	provider := newProvider(cfg.Data.CacheDir)
	prices, err := fetchPrices(ctx, provider, cfg, ecfg)
	if err != nil {
		panic(err)
	}

	points, err := sweep.Run(sweep.Options{
		Config:  ecfg,
		Shallow: shallow,
		Deep:    deep,
		Workers: *workers,
	}, prices)
	if err != nil {
		panic(err)
	}

	if *outPath != "" {
		if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
			panic(err)
		}
		if err := sweep.WriteCSV(*outPath, points); err != nil {
			panic(err)
		}
		fmt.Printf("Wrote %d combinations to %s\n", len(points), *outPath)
	}

	if err := report.WriteSweep(os.Stdout, points, *top); err != nil {
		panic(err)
	}
}

func cmdRank(args []string) {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	symbolsArg := fs.String("symbols", "", "Comma-separated symbols to rank")
	startArg := fs.String("start", "", "Start date (YYYY-MM-DD)")
	endArg := fs.String("end", "", "End date (YYYY-MM-DD, default today)")
	cacheDir := fs.String("cache", "", "Optional price cache directory")
	_ = fs.Parse(args)

	if *symbolsArg == "" || *startArg == "" {
		fmt.Println("--symbols and --start are required")
		os.Exit(2)
	}
	start, err := time.Parse("2006-01-02", *startArg)
	if err != nil {
		panic(err)
	}
	end := time.Now().UTC()
	if *endArg != "" {
		end, err = time.Parse("2006-01-02", *endArg)
		if err != nil {
			panic(err)
		}
	}

	ctx := context.Background()
	provider := newProvider(*cacheDir)
	bySymbol := map[string]*model.PriceSeries{}
	for _, sym := range strings.Split(*symbolsArg, ",") {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		raw, err := provider.FetchDaily(ctx, sym, start, end)
		if err != nil {
			panic(err)
		}
		s, err := model.Normalize(sym, raw)
		if err != nil {
			panic(err)
		}
		bySymbol[sym] = s
	}

	ranked := analysis.RankByDipPotential(bySymbol)
	fmt.Printf("%-4s %-8s %-8s %-12s %-12s %-10s %-12s\n",
		"rank", "symbol", "count", "maxdd%", "underwater%", "p95-p05", "min/max")
	for i, r := range ranked {
		fmt.Printf("%-4d %-8s %-8d %-12.2f %-12.2f %-10.2f %-5.1f/%-5.1f\n",
			i+1,
			r.Symbol,
			r.Count,
			r.MaxDrawdown*100,
			r.UnderwaterFraction*100,
			r.SpreadP95P05,
			r.MinClose,
			r.MaxClose,
		)
	}
}

func newProvider(cacheDir string) data.Provider {
	cache, err := data.NewCache(cacheDir)
	if err != nil {
		panic(err)
	}
	return &data.CachingProvider{Provider: data.NewYahooClient(), Cache: cache}
}

func newRecorder(dbPath string) recorder.Recorder {
	if dbPath == "" {
		return recorder.NewNoopRecorder()
	}
	rec, err := recorder.NewSQLiteRecorder(dbPath)
	if err != nil {
		panic(err)
	}
	return rec
}

// fetchPrices loads the base series plus every tier symbol over the
// configured window.
func fetchPrices(ctx context.Context, provider data.Provider, cfg *config.Config, ecfg backtest.Config) (map[string]*model.PriceSeries, error) {
	start, end, err := cfg.Range()
	if err != nil {
		return nil, err
	}
	if start.IsZero() {
		start = time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	symbols := map[string]bool{ecfg.BaseSymbol: true}
	for _, t := range ecfg.Tiers {
		if t.Symbol != "" {
			symbols[t.Symbol] = true
		}
	}

	prices := make(map[string]*model.PriceSeries, len(symbols))
	for sym := range symbols {
		raw, err := provider.FetchDaily(ctx, sym, start, end)
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

func loadDividends(cfg *config.Config) (map[string][]model.Dividend, error) {
	if len(cfg.Data.DividendFiles) == 0 {
		return nil, nil
	}
	out := make(map[string][]model.Dividend, len(cfg.Data.DividendFiles))
	for sym, path := range cfg.Data.DividendFiles {
		divs, err := data.LoadDividendsCSV(path)
		if err != nil {
			return nil, fmt.Errorf("dividends for %s: %w", sym, err)
		}
		out[sym] = divs
	}
	return out, nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing threshold %q: %w", p, err)
		}
		out = append(out, f)
	}
	return out, nil
}
