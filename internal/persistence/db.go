// Package persistence provides a SQLite catalog of generation runs: what was
// generated, with which parameters, and how large the result was.
package persistence

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection for the run catalog.
type DB struct {
	conn *sqlx.DB
}

// Run is one recorded generation.
type Run struct {
	ID          string    `db:"id" json:"id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	Rows        int       `db:"grid_rows" json:"rows"`
	Cols        int       `db:"grid_cols" json:"cols"`
	Agents      int       `db:"agents" json:"agents"`
	Wumpi       int       `db:"wumpi" json:"wumpi"`
	Reliability float64   `db:"reliability" json:"reliability"`
	Discount    float64   `db:"discount" json:"discount"`
	Actions     string    `db:"actions" json:"actions"` // Comma-separated action labels

	States       int    `db:"states" json:"states"`
	JointActions int    `db:"joint_actions" json:"joint_actions"`
	Observations int    `db:"observations" json:"observations"`
	Transitions  int    `db:"transitions" json:"transitions"`
	Bytes        int64  `db:"bytes" json:"bytes"`
	Path         string `db:"path" json:"path"`
	DurationMS   int64  `db:"duration_ms" json:"duration_ms"`
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
		created_at TIMESTAMP NOT NULL,
		grid_rows INTEGER NOT NULL,
		grid_cols INTEGER NOT NULL,
		agents INTEGER NOT NULL,
		wumpi INTEGER NOT NULL,
		reliability REAL NOT NULL,
		discount REAL NOT NULL,
		actions TEXT NOT NULL,
		states INTEGER NOT NULL,
		joint_actions INTEGER NOT NULL,
		observations INTEGER NOT NULL,
		transitions INTEGER NOT NULL,
		bytes INTEGER NOT NULL,
		path TEXT NOT NULL,
		duration_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RecordRun stores r, assigning an ID and timestamp when they are unset.
func (db *DB) RecordRun(r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.NamedExec(`INSERT INTO runs
		(id, created_at, grid_rows, grid_cols, agents, wumpi, reliability, discount, actions,
		 states, joint_actions, observations, transitions, bytes, path, duration_ms)
		VALUES (:id, :created_at, :grid_rows, :grid_cols, :agents, :wumpi, :reliability, :discount, :actions,
		 :states, :joint_actions, :observations, :transitions, :bytes, :path, :duration_ms)`, r)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}
	slog.Debug("run recorded", "id", r.ID, "path", r.Path)
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (db *DB) RecentRuns(limit int) ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs,
		"SELECT * FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	return runs, err
}

// GetRun looks a run up by ID or by a unique ID prefix.
func (db *DB) GetRun(id string) (Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, "SELECT * FROM runs WHERE id LIKE ? LIMIT 2", strings.ReplaceAll(id, "%", "")+"%")
	if err != nil {
		return Run{}, err
	}
	switch len(runs) {
	case 0:
		return Run{}, fmt.Errorf("run %q not found", id)
	case 1:
		return runs[0], nil
	}
	return Run{}, fmt.Errorf("run prefix %q is ambiguous", id)
}

