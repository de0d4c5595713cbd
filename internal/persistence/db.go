// Package persistence provides a SQLite run journal: one row per run, plus
// the events and daily tallies it produced. World state is never read back.
package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/der-cain/npc-town/internal/engine"
)

// DB wraps a SQLite connection for the run journal.
type DB struct {
	conn *sqlx.DB
}

// Run is one recorded simulation run.
type Run struct {
	ID         string     `db:"id"`
	Seed       int64      `db:"seed"`
	Config     string     `db:"config"`
	StartedAt  time.Time  `db:"started_at"`
	FinishedAt *time.Time `db:"finished_at"`
	Days       int        `db:"days"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		config TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		days INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		day INTEGER NOT NULL,
		clock TEXT NOT NULL,
		agent INTEGER NOT NULL,
		role TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_stats (
		run_id TEXT NOT NULL REFERENCES runs(id),
		day INTEGER NOT NULL,
		harvested INTEGER NOT NULL,
		pressed INTEGER NOT NULL,
		sold INTEGER NOT NULL,
		revenue INTEGER NOT NULL,
		customers INTEGER NOT NULL,
		spoiled INTEGER NOT NULL,
		PRIMARY KEY (run_id, day)
	);

	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, day);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// StartRun records a new run and returns its ID.
func (db *DB) StartRun(seed int64, config string) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, seed, config, started_at) VALUES (?, ?, ?, ?)",
		id, seed, config, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	slog.Info("journal run started", "run", id, "seed", seed)
	return id, nil
}

// FinishRun stamps the run with its end time and day count.
func (db *DB) FinishRun(runID string, days int) error {
	res, err := db.conn.Exec(
		"UPDATE runs SET finished_at = ?, days = ? WHERE id = ?",
		time.Now().UTC(), days, runID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// SaveEvents appends events to the run.
func (db *DB) SaveEvents(runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO events
		(run_id, day, clock, agent, role, category, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(runID, e.Day, e.Time, e.Agent, e.Role, e.Category, e.Description); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	return tx.Commit()
}

// SaveDay writes one day's tally, replacing any earlier row for that day.
func (db *DB) SaveDay(runID string, s engine.DayStats) error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO daily_stats
		(run_id, day, harvested, pressed, sold, revenue, customers, spoiled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, s.Day, s.Harvested, s.Pressed, s.Sold, s.Revenue, s.Customers, s.Spoiled,
	)
	if err != nil {
		return fmt.Errorf("save day %d: %w", s.Day, err)
	}
	return nil
}

// RecordDay saves a closed day and its events in one call, the shape
// Simulation.OnDay expects.
func (db *DB) RecordDay(runID string, s engine.DayStats, events []engine.Event) error {
	if err := db.SaveEvents(runID, events); err != nil {
		return err
	}
	return db.SaveDay(runID, s)
}

// GetRun looks up a run by ID.
func (db *DB) GetRun(runID string) (Run, error) {
	var r Run
	err := db.conn.Get(&r, "SELECT id, seed, config, started_at, finished_at, days FROM runs WHERE id = ?", runID)
	return r, err
}

// Runs lists every recorded run, newest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, "SELECT id, seed, config, started_at, finished_at, days FROM runs ORDER BY started_at DESC")
	return runs, err
}

// Days returns a run's daily tallies in day order.
func (db *DB) Days(runID string) ([]engine.DayStats, error) {
	var days []engine.DayStats
	err := db.conn.Select(&days,
		`SELECT day, harvested, pressed, sold, revenue, customers, spoiled
		 FROM daily_stats WHERE run_id = ? ORDER BY day`,
		runID,
	)
	return days, err
}

// RecentEvents returns the most recent N events of a run, newest first.
func (db *DB) RecentEvents(runID string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		`SELECT day, clock, agent, role, category, description
		 FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?`,
		runID, limit,
	)
	return events, err
}
