package recorder

import (
	"dca-backtest/internal/backtest"
)

// RunRecord holds everything persisted for one completed simulation.
type RunRecord struct {
	Name       string
	BaseSymbol string
	Result     *backtest.Result
}

// Recorder persists completed runs for later comparison.
type Recorder interface {
	RecordRun(rec *RunRecord) (int64, error)
	Close() error
}
