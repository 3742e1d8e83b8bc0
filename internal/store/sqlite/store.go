// Package sqlite persists named price series and a journal of completed
// backtest runs.
package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"quant-enginev1/internal/model"
)

// Store wraps a single SQLite database holding price series and the
// backtest run journal. Writes are serialized through a mutex; the
// connection pool is capped for single-writer WAL usage.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Open opens (or creates) the database, enables WAL mode, and applies
// the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", dbPath)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS price_bars (
			series  TEXT    NOT NULL,
			date    INTEGER NOT NULL,
			open    REAL    NOT NULL,
			high    REAL    NOT NULL,
			low     REAL    NOT NULL,
			close   REAL    NOT NULL,
			volume  INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (series, date)
		);

		CREATE TABLE IF NOT EXISTS backtest_runs (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			strategy         TEXT NOT NULL,
			params           TEXT NOT NULL,
			initial_capital  REAL NOT NULL,
			final_capital    REAL NOT NULL,
			total_return_pct REAL NOT NULL,
			trade_count      INTEGER NOT NULL,
			result           TEXT NOT NULL,
			created_at       DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_strategy ON backtest_runs(strategy);
	`)
	return err
}

// SaveSeries stores a named series, replacing any existing bars with the
// same (series, date) key. One transaction per call.
func (s *Store) SaveSeries(name string, series model.PriceSeries) error {
	if err := series.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO price_bars (series, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	for i := range series {
		b := &series[i]
		if _, err := stmt.Exec(name, b.Date.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert bar: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}

	log.Printf("[sqlite] saved series %q (%d bars)", name, len(series))
	return nil
}

// LoadSeries reads a named series ordered by date ascending.
// Returns model.ErrEmptySeries if the name is unknown.
func (s *Store) LoadSeries(name string) (model.PriceSeries, error) {
	rows, err := s.db.Query(`
		SELECT date, open, high, low, close, volume
		FROM price_bars
		WHERE series = ?
		ORDER BY date ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("sqlite query price_bars: %w", err)
	}
	defer rows.Close()

	var series model.PriceSeries
	for rows.Next() {
		var bar model.PriceBar
		var dateUnix int64
		if err := rows.Scan(&dateUnix, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan price_bars: %w", err)
		}
		bar.Date = time.Unix(dateUnix, 0).UTC()
		series = append(series, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("series %q: %w", name, model.ErrEmptySeries)
	}
	return series, nil
}

// ListSeries returns the stored series names with their bar counts.
func (s *Store) ListSeries() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT series, COUNT(*) FROM price_bars GROUP BY series ORDER BY series`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query series list: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("sqlite scan series list: %w", err)
		}
		out[name] = count
	}
	return out, rows.Err()
}

// RunRecord is one row of the backtest run journal.
type RunRecord struct {
	ID             int64     `json:"id"`
	Strategy       string    `json:"strategy"`
	Params         string    `json:"params"` // JSON-encoded strategy params
	InitialCapital float64   `json:"initial_capital"`
	FinalCapital   float64   `json:"final_capital"`
	TotalReturnPct float64   `json:"total_return_pct"`
	TradeCount     int       `json:"trade_count"`
	Result         string    `json:"result"` // full JSON-encoded result
	CreatedAt      time.Time `json:"created_at"`
}

// RecordRun persists a completed backtest run to the journal.
func (s *Store) RecordRun(rec RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO backtest_runs (strategy, params, initial_capital, final_capital, total_return_pct, trade_count, result)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.Strategy, rec.Params, rec.InitialCapital, rec.FinalCapital,
		rec.TotalReturnPct, rec.TradeCount, rec.Result)
	if err != nil {
		return fmt.Errorf("sqlite insert run: %w", err)
	}
	return nil
}

// RecentRuns returns the newest journal rows, most recent first.
// The full result JSON is included; callers trim as needed.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, strategy, params, initial_capital, final_capital, total_return_pct, trade_count, result, created_at
		FROM backtest_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query runs: %w", err)
	}
	defer rows.Close()

	var recs []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.ID, &rec.Strategy, &rec.Params, &rec.InitialCapital,
			&rec.FinalCapital, &rec.TotalReturnPct, &rec.TradeCount, &rec.Result, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite scan runs: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
