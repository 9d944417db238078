// Package sweep runs a strategy over a grid of drawdown-tier thresholds and
// ranks the combinations, the batch counterpart of a single engine run.
package sweep

import (
	"encoding/csv"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"dca-backtest/internal/backtest"
	"dca-backtest/internal/model"
)

// Options describes one threshold sweep. Config is a template whose tiers
// must number exactly two; each grid point replaces their thresholds with a
// (shallow, deep) pair, keeping the template's symbols and multipliers.
type Options struct {
	Config backtest.Config

	// Shallow and Deep are the candidate thresholds for the first and
	// second tier. Pairs where shallow >= deep are skipped, a shallower
	// tier over a deeper one is the same strategy with dead config.
	Shallow []float64
	Deep    []float64

	// Workers caps concurrent engine runs; <= 0 means GOMAXPROCS.
	Workers int
}

// Point is one grid combination and the metrics its run produced.
type Point struct {
	Shallow float64
	Deep    float64

	TotalInvested float64
	FinalValue    float64
	ROI           float64
	CAGR          float64
	MaxDrawdown   float64
}

// Better reports whether a outranks b: higher ROI first, then higher CAGR,
// then the shallower portfolio drawdown.
func Better(a, b Point) bool {
	if a.ROI != b.ROI {
		return a.ROI > b.ROI
	}
	if a.CAGR != b.CAGR {
		return a.CAGR > b.CAGR
	}
	return a.MaxDrawdown < b.MaxDrawdown
}

// Run executes every qualifying grid point against the same price data and
// returns the points sorted best-first. The series are read-only, so runs
// proceed in parallel.
func Run(opts Options, prices map[string]*model.PriceSeries) ([]Point, error) {
	if len(opts.Config.Tiers) != 2 {
		return nil, fmt.Errorf("sweep: template config must have exactly 2 tiers, got %d", len(opts.Config.Tiers))
	}
	if len(opts.Shallow) == 0 || len(opts.Deep) == 0 {
		return nil, fmt.Errorf("sweep: empty threshold grid")
	}

	type pair struct{ shallow, deep float64 }
	var jobs []pair
	for _, s := range opts.Shallow {
		for _, d := range opts.Deep {
			if s >= d {
				continue
			}
			jobs = append(jobs, pair{shallow: s, deep: d})
		}
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("sweep: no grid point has shallow < deep")
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	jobCh := make(chan pair)
	points := make([]Point, 0, len(jobs))

	var mu sync.Mutex
	var firstErr error
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				pt, err := runPoint(opts.Config, j.shallow, j.deep, prices)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
				} else {
					points = append(points, pt)
				}
				mu.Unlock()
			}
		}()
	}
	for _, j := range jobs {
		jobCh <- j
	}
	close(jobCh)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	sort.Slice(points, func(i, j int) bool {
		a, b := points[i], points[j]
		if Better(a, b) {
			return true
		}
		if Better(b, a) {
			return false
		}
		// Metric ties order by grid position so output is reproducible.
		if a.Shallow != b.Shallow {
			return a.Shallow < b.Shallow
		}
		return a.Deep < b.Deep
	})
	return points, nil
}

func runPoint(template backtest.Config, shallow, deep float64, prices map[string]*model.PriceSeries) (Point, error) {
	cfg := template
	cfg.Tiers = append(cfg.Tiers[:0:0], template.Tiers...)
	cfg.Tiers[0].Threshold = shallow
	cfg.Tiers[1].Threshold = deep

	eng, err := backtest.New(cfg)
	if err != nil {
		return Point{}, fmt.Errorf("sweep point (%.2f, %.2f): %w", shallow, deep, err)
	}
	res, err := eng.Run(prices)
	if err != nil {
		return Point{}, fmt.Errorf("sweep point (%.2f, %.2f): %w", shallow, deep, err)
	}
	return Point{
		Shallow:       shallow,
		Deep:          deep,
		TotalInvested: res.TotalInvested,
		FinalValue:    res.FinalValue,
		ROI:           res.ROI,
		CAGR:          res.CAGR,
		MaxDrawdown:   res.MaxDrawdown,
	}, nil
}

// WriteCSV writes the sorted grid, one row per combination.
func WriteCSV(path string, points []Point) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"shallow", "deep", "total_invested", "final_value", "roi", "cagr", "max_drawdown"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, p := range points {
		row := []string{
			strconv.FormatFloat(p.Shallow, 'f', 4, 64),
			strconv.FormatFloat(p.Deep, 'f', 4, 64),
			strconv.FormatFloat(p.TotalInvested, 'f', 2, 64),
			strconv.FormatFloat(p.FinalValue, 'f', 2, 64),
			strconv.FormatFloat(p.ROI, 'f', 6, 64),
			strconv.FormatFloat(p.CAGR, 'f', 6, 64),
			strconv.FormatFloat(p.MaxDrawdown, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
