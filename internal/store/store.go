package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const (
	tableProgress    = "question_progress"
	tableExamCurrent = "exam_current"
	tableExamHistory = "exam_history"
	tableLLMRequest  = "llm_request_events"
)

// Store is the SQLite backend. Statements are built with the ent SQL
// builder and executed through the ent driver.
type Store struct {
	db  *sql.DB
	drv *entsql.Driver
	seq *sequenceCounter
}

var _ Backend = (*Store)(nil)

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and creates missing tables.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	if err := migrate(context.Background(), drv); err != nil {
		drv.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	seq, err := newSequenceCounter(db)
	if err != nil {
		drv.Close()
		return nil, err
	}

	return &Store{db: db, drv: drv, seq: seq}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.drv.Close()
}

// ProgressRepo returns a ProgressRepo backed by this store.
func (s *Store) ProgressRepo() ProgressRepo {
	return &progressRepo{drv: s.drv}
}

// ExamRepo returns an ExamRepo backed by this store.
func (s *Store) ExamRepo() ExamRepo {
	return &examRepo{drv: s.drv}
}

// EventRepo returns an EventRepo backed by this store.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{drv: s.drv, seq: s.seq}
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// schema is the DDL for every table except global_sequence, which the
// sequence counter owns. The ent builder has no CREATE TABLE support.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS ` + tableProgress + ` (
		question_id      INTEGER PRIMARY KEY,
		attempts         INTEGER NOT NULL DEFAULT 0,
		correct_attempts INTEGER NOT NULL DEFAULT 0,
		last_attempted   INTEGER,
		time_spent       INTEGER NOT NULL DEFAULT 0,
		status           TEXT NOT NULL DEFAULT 'new',
		bookmarked       INTEGER NOT NULL DEFAULT 0,
		note             TEXT NOT NULL DEFAULT '',
		mastered_at      INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS ` + tableExamCurrent + ` (
		slot       INTEGER PRIMARY KEY CHECK (slot = 1),
		id         TEXT NOT NULL,
		type       TEXT NOT NULL,
		status     TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at   INTEGER,
		payload    BLOB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ` + tableExamHistory + ` (
		id         TEXT PRIMARY KEY,
		type       TEXT NOT NULL,
		status     TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at   INTEGER,
		payload    BLOB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ` + tableLLMRequest + ` (
		sequence      INTEGER PRIMARY KEY,
		timestamp     INTEGER NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		latency_ms    INTEGER NOT NULL,
		success       INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_exam_history_started ON ` + tableExamHistory + ` (started_at)`,
}

// migrate creates the tables if they do not exist yet.
func migrate(ctx context.Context, drv *entsql.Driver) error {
	for _, ddl := range schema {
		if err := drv.Exec(ctx, ddl, []any{}, nil); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// exec builds and runs a statement.
func exec(ctx context.Context, drv *entsql.Driver, q entsql.Querier) error {
	query, args := q.Query()
	return drv.Exec(ctx, query, args, nil)
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. SAPPREP_DB environment variable
// 2. $XDG_DATA_HOME/sapprep/sapprep.db
// 3. ~/.local/share/sapprep/sapprep.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("SAPPREP_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome, err := DataDir()
	if err != nil {
		return "", err
	}
	p := filepath.Join(dataHome, "sapprep.db")
	return p, EnsureDir(p)
}

// DataDir returns the application data directory.
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "sapprep"), nil
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func toMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func fromMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
