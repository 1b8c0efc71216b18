// Package storage provides SQLite-based persistence for recorded spin paths
// and spin history.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/tui-roulette/internal/paths"
)

// Store manages the SQLite database connection.
// It implements paths.Repository.
type Store struct {
	db *sql.DB
}

// Ensure Store implements paths.Repository
var _ paths.Repository = (*Store)(nil)

// SpinEntry is one row of spin history.
type SpinEntry struct {
	ID            int64
	SpinID        string
	WinningNumber int
	LandedNumber  int
	Mismatch      bool
	Source        string // Where the path came from: server, recorded, solved, approximate
	Path          paths.Path
	Ticks         int
	Balance       decimal.Decimal
	CreatedAt     time.Time
}

// SpinStats aggregates the spin history.
type SpinStats struct {
	Spins      int
	Mismatches int
	LastSpin   time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// SSH sessions share the file; one writer at a time avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS paths (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			landing_number INTEGER NOT NULL,
			initial_angle REAL NOT NULL,
			initial_velocity REAL NOT NULL,
			outer_phase_frames INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_paths_number ON paths(landing_number, id DESC);

		CREATE TABLE IF NOT EXISTS spins (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			spin_id TEXT NOT NULL UNIQUE,
			winning_number INTEGER NOT NULL,
			landed_number INTEGER NOT NULL,
			mismatch INTEGER NOT NULL DEFAULT 0,
			source TEXT NOT NULL,
			initial_angle REAL NOT NULL,
			initial_velocity REAL NOT NULL,
			outer_phase_frames INTEGER NOT NULL,
			ticks INTEGER NOT NULL DEFAULT 0,
			balance TEXT NOT NULL DEFAULT '0',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_spins_mismatch ON spins(mismatch);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the most recently recorded path for number.
func (s *Store) Get(ctx context.Context, number int) (paths.Path, bool, error) {
	var p paths.Path
	err := s.db.QueryRowContext(ctx,
		`SELECT initial_angle, initial_velocity, outer_phase_frames
		 FROM paths
		 WHERE landing_number = ?
		 ORDER BY id DESC
		 LIMIT 1`,
		number,
	).Scan(&p.InitialAngle, &p.InitialVelocity, &p.OuterPhaseFrames)

	if errors.Is(err, sql.ErrNoRows) {
		return paths.Path{}, false, nil
	}
	if err != nil {
		return paths.Path{}, false, fmt.Errorf("storage: cannot query path: %w", err)
	}
	return p, true, nil
}

// Put appends a path record.
func (s *Store) Put(ctx context.Context, rec paths.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO paths (landing_number, initial_angle, initial_velocity, outer_phase_frames)
		 VALUES (?, ?, ?, ?)`,
		rec.LandingNumber, rec.InitialAngle, rec.InitialVelocity, rec.OuterPhaseFrames,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save path: %w", err)
	}
	return nil
}

// All returns every path record in insertion order.
func (s *Store) All(ctx context.Context) ([]paths.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT landing_number, initial_angle, initial_velocity, outer_phase_frames
		 FROM paths
		 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query paths: %w", err)
	}
	defer rows.Close()

	var records []paths.Record
	for rows.Next() {
		var r paths.Record
		if err := rows.Scan(&r.LandingNumber, &r.InitialAngle, &r.InitialVelocity, &r.OuterPhaseFrames); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return records, nil
}

// PathCounts returns how many paths are recorded per landing number.
// Numbers without any record are absent from the map.
func (s *Store) PathCounts(ctx context.Context) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT landing_number, COUNT(*) FROM paths GROUP BY landing_number`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot count paths: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var number, n int
		if err := rows.Scan(&number, &n); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		counts[number] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return counts, nil
}

// SaveSpin records a finished spin.
// Returns the ID of the inserted record.
func (s *Store) SaveSpin(ctx context.Context, e SpinEntry) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO spins
		 (spin_id, winning_number, landed_number, mismatch, source,
		  initial_angle, initial_velocity, outer_phase_frames, ticks, balance)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SpinID,
		e.WinningNumber,
		e.LandedNumber,
		e.Mismatch,
		e.Source,
		e.Path.InitialAngle,
		e.Path.InitialVelocity,
		e.Path.OuterPhaseFrames,
		e.Ticks,
		e.Balance.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save spin: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// RecentSpins retrieves the most recent spins, newest first.
func (s *Store) RecentSpins(ctx context.Context, limit int) ([]SpinEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, spin_id, winning_number, landed_number, mismatch, source,
		        initial_angle, initial_velocity, outer_phase_frames, ticks, balance, created_at
		 FROM spins
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query spins: %w", err)
	}
	defer rows.Close()

	var entries []SpinEntry
	for rows.Next() {
		var e SpinEntry
		var balance string
		var createdAt any
		if err := rows.Scan(
			&e.ID,
			&e.SpinID,
			&e.WinningNumber,
			&e.LandedNumber,
			&e.Mismatch,
			&e.Source,
			&e.Path.InitialAngle,
			&e.Path.InitialVelocity,
			&e.Path.OuterPhaseFrames,
			&e.Ticks,
			&balance,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}

		e.Balance, err = decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("storage: bad balance %q for spin %s: %w", balance, e.SpinID, err)
		}
		e.CreatedAt = parseTimestamp(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return entries, nil
}

// Stats aggregates the whole spin history.
func (s *Store) Stats(ctx context.Context) (*SpinStats, error) {
	stats := &SpinStats{}

	var lastSpin any
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(mismatch), 0), MAX(created_at) FROM spins`,
	).Scan(&stats.Spins, &stats.Mismatches, &lastSpin)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get spin stats: %w", err)
	}
	stats.LastSpin = parseTimestamp(lastSpin)

	return stats, nil
}

// parseTimestamp handles the driver returning either time.Time or text.
func parseTimestamp(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
