package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists runs and their time series to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so concurrent readers can inspect results mid-write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at     INTEGER NOT NULL,
			name           TEXT,
			base_symbol    TEXT NOT NULL,
			start_date     TEXT NOT NULL,
			end_date       TEXT NOT NULL,
			total_invested REAL,
			final_value    REAL,
			cash           REAL,
			roi            REAL,
			cagr           REAL,
			max_drawdown   REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,

		`CREATE TABLE IF NOT EXISTS period_records (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id          INTEGER NOT NULL REFERENCES runs(id),
			date            TEXT NOT NULL,
			portfolio_value REAL,
			invested        REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_period_run ON period_records(run_id)`,

		`CREATE TABLE IF NOT EXISTS events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     INTEGER NOT NULL REFERENCES runs(id),
			date       TEXT NOT NULL,
			event_type TEXT NOT NULL,
			symbol     TEXT NOT NULL,
			units      TEXT,
			price      TEXT,
			amount     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun inserts the run summary plus its full time series and event
// ledger in one transaction and returns the run's row id.
func (r *SQLiteRecorder) RecordRun(rec *RunRecord) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := rec.Result
	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	ins, err := tx.Exec(`INSERT INTO runs
		(created_at, name, base_symbol, start_date, end_date,
		 total_invested, final_value, cash, roi, cagr, max_drawdown)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.Name, rec.BaseSymbol,
		res.Start.Format("2006-01-02"), res.End.Format("2006-01-02"),
		res.TotalInvested, res.FinalValue, res.Cash.InexactFloat64(),
		res.ROI, res.CAGR, res.MaxDrawdown,
	)
	if err != nil {
		return 0, err
	}
	runID, err := ins.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, p := range res.Records {
		if _, err := tx.Exec(`INSERT INTO period_records
			(run_id, date, portfolio_value, invested) VALUES (?,?,?,?)`,
			runID, p.Date.Format("2006-01-02"), p.PortfolioValue, p.Invested,
		); err != nil {
			return 0, err
		}
	}
	for _, e := range res.Events {
		if _, err := tx.Exec(`INSERT INTO events
			(run_id, date, event_type, symbol, units, price, amount)
			VALUES (?,?,?,?,?,?,?)`,
			runID, e.Date.Format("2006-01-02"), string(e.Type), e.Symbol,
			e.Units.String(), e.Price.String(), e.Amount.String(),
		); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
