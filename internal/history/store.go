package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stencilworks/stencil/internal/logger"
)

var log = logger.ForComponent("history")

type Run struct {
	ID                int64     `json:"id"`
	Project           string    `json:"project"`
	Target            string    `json:"target"`
	Features          []string  `json:"features"`
	Status            string    `json:"status"`
	Error             string    `json:"error,omitempty"`
	FilesCopied       int       `json:"filesCopied"`
	InjectionsApplied int       `json:"injectionsApplied"`
	StartedAt         time.Time `json:"startedAt"`
	DurationMS        int64     `json:"durationMs"`
}

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Store keeps a local record of past composition runs.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, err
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project TEXT NOT NULL,
		target TEXT NOT NULL,
		features TEXT,
		status TEXT NOT NULL,
		error TEXT,
		files_copied INTEGER DEFAULT 0,
		injections_applied INTEGER DEFAULT 0,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) Record(run Run) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	featuresJSON, err := json.Marshal(run.Features)
	if err != nil {
		return 0, err
	}

	result, err := s.db.Exec(
		"INSERT INTO runs (project, target, features, status, error, files_copied, injections_applied, started_at, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		run.Project, run.Target, string(featuresJSON), run.Status, run.Error,
		run.FilesCopied, run.InjectionsApplied, run.StartedAt.UTC(), run.DurationMS,
	)
	if err != nil {
		return 0, err
	}

	return result.LastInsertId()
}

func (s *Store) Recent(limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		"SELECT id, project, target, features, status, error, files_copied, injections_applied, started_at, duration_ms FROM runs ORDER BY started_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var featuresJSON sql.NullString
		var errText sql.NullString

		err := rows.Scan(
			&run.ID, &run.Project, &run.Target, &featuresJSON, &run.Status, &errText,
			&run.FilesCopied, &run.InjectionsApplied, &run.StartedAt, &run.DurationMS,
		)
		if err != nil {
			return nil, err
		}

		if featuresJSON.Valid {
			if err := json.Unmarshal([]byte(featuresJSON.String), &run.Features); err != nil {
				run.Features = []string{}
			}
		}
		if errText.Valid {
			run.Error = errText.String
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (s *Store) Get(id int64) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(
		"SELECT id, project, target, features, status, error, files_copied, injections_applied, started_at, duration_ms FROM runs WHERE id = ?",
		id,
	)

	var run Run
	var featuresJSON sql.NullString
	var errText sql.NullString

	err := row.Scan(
		&run.ID, &run.Project, &run.Target, &featuresJSON, &run.Status, &errText,
		&run.FilesCopied, &run.InjectionsApplied, &run.StartedAt, &run.DurationMS,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", id)
	}
	if err != nil {
		return nil, err
	}

	if featuresJSON.Valid {
		if err := json.Unmarshal([]byte(featuresJSON.String), &run.Features); err != nil {
			run.Features = []string{}
		}
	}
	if errText.Valid {
		run.Error = errText.String
	}

	return &run, nil
}

func (s *Store) Close() error {
	// Checkpoint failure is not critical; the DB closes normally anyway.
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		log.Debug("wal checkpoint failed", "error", err)
	}
	return s.db.Close()
}
