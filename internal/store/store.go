// Package store appends run records to a SQLite database. The table is
// append-only: one row per run, keyed by an autoincrement run id, with
// the full parameter document and the headline metrics.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mowerlab/gridcover/internal/sim"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at       TEXT NOT NULL,
	seed             INTEGER NOT NULL,
	params           TEXT NOT NULL,
	stop_reason      TEXT NOT NULL,
	covered_percent  REAL NOT NULL,
	covered_cells    INTEGER NOT NULL,
	blocked_cells    INTEGER NOT NULL,
	total_cells      INTEGER NOT NULL,
	distance         REAL NOT NULL,
	bounces          INTEGER NOT NULL,
	simulated_secs   REAL NOT NULL,
	steps            INTEGER NOT NULL,
	charge_count     INTEGER NOT NULL
);`

// Store is an open run-history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database %s: %v", sim.ErrIO, path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: initialising database %s: %v", sim.ErrIO, path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertRun appends one run record and returns its run id. params is
// the TOML document of the effective options.
func (s *Store) InsertRun(params string, res *sim.Result) (int64, error) {
	out, err := s.db.Exec(`
		INSERT INTO runs (
			created_at, seed, params, stop_reason,
			covered_percent, covered_cells, blocked_cells, total_cells,
			distance, bounces, simulated_secs, steps, charge_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339),
		res.Seed, params, res.StopReason,
		res.CoveredPercent, res.CoveredCells, res.BlockedCells, res.TotalCells,
		res.Distance, res.Bounces, res.SimSeconds, res.Steps, res.ChargeCount,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: inserting run: %v", sim.ErrIO, err)
	}
	id, err := out.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: reading run id: %v", sim.ErrIO, err)
	}
	return id, nil
}

// RunCount returns the number of stored runs.
func (s *Store) RunCount() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting runs: %v", sim.ErrIO, err)
	}
	return n, nil
}
