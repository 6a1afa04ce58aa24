// Package journal records path runs and wall-follow sessions in SQLite.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cjeanneret/RoboGo/internal/debug"
)

// OutcomeRunning marks a run that has not finished (or never will, after a crash).
const OutcomeRunning = "running"

// ErrUnknownRun is returned by Finish for an id Begin never returned.
var ErrUnknownRun = errors.New("unknown run")

const schema = `CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	path_id     INTEGER NOT NULL DEFAULT 0,
	speed       INTEGER NOT NULL DEFAULT 0,
	steps       INTEGER NOT NULL DEFAULT 0,
	obstacles   INTEGER NOT NULL DEFAULT 0,
	outcome     TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER
)`

// Run is one journaled path run or wall-follow session.
type Run struct {
	ID         string
	Kind       string
	PathID     int
	Speed      int
	Steps      int // path moves done, or wall-follow controller steps
	Obstacles  int // obstacle flags on a path, dead-angle recoveries in wall-follow
	Outcome    string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
}

// Duration returns how long the run lasted, or 0 while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Journal wraps a connection to the journal database.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the journal database at path.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	// a single writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}
	debug.Verbose("Journal opened: %s", path)
	return &Journal{db: db, now: time.Now}, nil
}

// Begin records the start of a run and returns its id.
func (j *Journal) Begin(kind string, pathID, speed int) (string, error) {
	id := uuid.NewString()
	_, err := j.db.Exec(`INSERT INTO runs (id, kind, path_id, speed, outcome, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, kind, pathID, speed, OutcomeRunning, j.now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("journal: begin %s: %w", kind, err)
	}
	debug.Verbose("Journal: run %s begun (%s, path %d, speed %d)", id, kind, pathID, speed)
	return id, nil
}

// Finish records the end of run id.
func (j *Journal) Finish(id string, steps, obstacles int, outcome string) error {
	res, err := j.db.Exec(`UPDATE runs SET steps = ?, obstacles = ?, outcome = ?, finished_at = ?
		WHERE id = ?`,
		steps, obstacles, outcome, j.now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("journal: finish %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("journal: finish %s: %w", id, ErrUnknownRun)
	}
	return nil
}

// Recent returns up to n runs, newest first.
func (j *Journal) Recent(n int) ([]Run, error) {
	rows, err := j.db.Query(`SELECT id, kind, path_id, speed, steps, obstacles, outcome,
		started_at, COALESCE(finished_at, 0)
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		if err := rows.Scan(&r.ID, &r.Kind, &r.PathID, &r.Speed, &r.Steps, &r.Obstacles,
			&r.Outcome, &started, &finished); err != nil {
			return nil, err
		}
		r.StartedAt = time.UnixMilli(started)
		if finished != 0 {
			r.FinishedAt = time.UnixMilli(finished)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (j *Journal) Close() error {
	return j.db.Close()
}
