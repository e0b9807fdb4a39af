// Package report stores preload run results in a SQLite database.
package report

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/agentic-research/assetcache/internal/cache"
	"github.com/agentic-research/assetcache/internal/preload"
)

var ErrRunNotFound = errors.New("run not found")

// Run is one preload run as seen by the CLI.
type Run struct {
	ID       string
	Manifest string
	Started  time.Time
	Finished time.Time
	State    preload.State
	Stats    cache.Stats
	Memory   cache.Memory
}

// NewRun stamps a run with a fresh ID and the current time.
func NewRun(manifest string) Run {
	return Run{
		ID:       uuid.NewString(),
		Manifest: manifest,
		Started:  time.Now(),
	}
}

// Summary is the stored aggregate of a run.
type Summary struct {
	ID          string
	Manifest    string
	Duration    time.Duration
	Progress    float64
	Preloaded   int
	Failed      int
	Hits        uint64
	Misses      uint64
	EstimatedMB float64
}

// Writer appends runs to a SQLite file.
type Writer struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates dbPath if needed and initializes the schema.
func Open(dbPath string) (*Writer, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		manifest TEXT NOT NULL,
		started INTEGER NOT NULL,
		finished INTEGER NOT NULL,
		progress REAL NOT NULL,
		loaded INTEGER NOT NULL,
		cached INTEGER NOT NULL,
		hits INTEGER NOT NULL,
		misses INTEGER NOT NULL,
		vertices INTEGER NOT NULL,
		textures INTEGER NOT NULL,
		estimated_mb REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS failures (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		name TEXT,
		path TEXT NOT NULL,
		error TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	) WITHOUT ROWID;

	CREATE TABLE IF NOT EXISTS preloaded (
		run_id TEXT NOT NULL,
		path TEXT NOT NULL,
		PRIMARY KEY (run_id, path)
	) WITHOUT ROWID;
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Writer{db: db}, nil
}

// Record writes r in a single transaction.
func (w *Writer) Record(r Run) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	tx, err := w.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO runs (id, manifest, started, finished, progress, loaded, cached, hits, misses, vertices, textures, estimated_mb)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Manifest, r.Started.UnixNano(), r.Finished.UnixNano(), r.State.Progress,
		r.Stats.TotalLoaded, r.Stats.TotalCached, r.Stats.Hits, r.Stats.Misses,
		r.Memory.VertexCount, r.Memory.TextureCount, r.Memory.EstimatedMB)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}

	stmtFail, err := tx.Prepare(`INSERT INTO failures (run_id, seq, name, path, error) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmtFail.Close() }()
	for i, f := range r.State.Errors {
		if _, err := stmtFail.Exec(r.ID, i, f.Name, f.Path, f.Error); err != nil {
			return fmt.Errorf("insert failure %s: %w", f.Path, err)
		}
	}

	stmtOK, err := tx.Prepare(`INSERT OR IGNORE INTO preloaded (run_id, path) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmtOK.Close() }()
	for _, p := range r.State.Preloaded {
		if _, err := stmtOK.Exec(r.ID, p); err != nil {
			return fmt.Errorf("insert preloaded %s: %w", p, err)
		}
	}

	return tx.Commit()
}

// Failures returns the failures of a run in the order they happened.
func (w *Writer) Failures(runID string) ([]preload.Failure, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := w.db.Query(`SELECT name, path, error FROM failures WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []preload.Failure
	for rows.Next() {
		var f preload.Failure
		var name sql.NullString
		if err := rows.Scan(&name, &f.Path, &f.Error); err != nil {
			return nil, err
		}
		f.Name = name.String
		out = append(out, f)
	}
	return out, rows.Err()
}

// Summary reads back the aggregate row of a run.
func (w *Writer) Summary(runID string) (Summary, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var (
		s                 Summary
		started, finished int64
	)
	err := w.db.QueryRow(`
		SELECT r.id, r.manifest, r.started, r.finished, r.progress, r.hits, r.misses, r.estimated_mb,
			(SELECT COUNT(*) FROM preloaded p WHERE p.run_id = r.id),
			(SELECT COUNT(*) FROM failures f WHERE f.run_id = r.id)
		FROM runs r WHERE r.id = ?`, runID).Scan(
		&s.ID, &s.Manifest, &started, &finished, &s.Progress, &s.Hits, &s.Misses, &s.EstimatedMB,
		&s.Preloaded, &s.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return Summary{}, err
	}
	s.Duration = time.Duration(finished - started)
	return s, nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
