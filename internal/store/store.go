// Package store persists review run history in a single SQLite file:
// one row per run plus its findings, alerts, and the removed-boilerplate
// audit log, so past reviews stay queryable after their artifacts are
// archived.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.specwarden/specwarden.db"

// Run is one recorded review invocation.
type Run struct {
	ID                int64
	RunUUID           string
	StartedAt         time.Time
	Model             string
	DryRun            bool
	FileCount         int
	AggregateTokens   int
	SoftExceeded      bool
	HardExceeded      bool
	CapacityRemaining int
	FindingCount      int
	AlertCount        int
	Summary           string
}

// RunFile is one file's pipeline stats within a run.
type RunFile struct {
	Position     int
	FileName     string
	TokenCount   int
	RemovedCount int
	AlertCount   int
}

// FindingRow is one persisted model finding.
type FindingRow struct {
	Severity        string
	FileName        string
	Section         string
	Issue           string
	ActionType      string
	ExistingText    string
	ReplacementText string
	CodeReference   string
}

// SpanRow is one persisted removed span or alert.
type SpanRow struct {
	FileName    string
	RuleID      string
	Category    string
	Start       int
	End         int
	MatchedText string
	Context     string
}

// RunDetail is a run with its dependent rows.
type RunDetail struct {
	Run      Run
	Files    []RunFile
	Findings []FindingRow
	Alerts   []SpanRow
	Removed  []SpanRow
}

// Store defines the run-history interface.
type Store interface {
	RecordRun(ctx context.Context, detail *RunDetail) (int64, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	GetRun(ctx context.Context, id int64) (*RunDetail, error)
	Close() error
}

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// Config holds configuration for Open.
type Config struct {
	DBPath string
}

// Open creates or opens the run-history database. Pass ":memory:" for
// in-memory databases (testing).
func Open(cfg Config) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = ExpandPath(DefaultDBPath)
	}

	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db, dbPath: cfg.DBPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_uuid TEXT NOT NULL UNIQUE,
	started_at TEXT NOT NULL,
	model TEXT NOT NULL DEFAULT '',
	dry_run INTEGER NOT NULL DEFAULT 0,
	file_count INTEGER NOT NULL,
	aggregate_tokens INTEGER NOT NULL,
	soft_exceeded INTEGER NOT NULL,
	hard_exceeded INTEGER NOT NULL,
	capacity_remaining INTEGER NOT NULL,
	finding_count INTEGER NOT NULL DEFAULT 0,
	alert_count INTEGER NOT NULL DEFAULT 0,
	summary TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS run_files (
	run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	file_name TEXT NOT NULL,
	token_count INTEGER NOT NULL,
	removed_count INTEGER NOT NULL,
	alert_count INTEGER NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS findings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	severity TEXT NOT NULL,
	file_name TEXT NOT NULL,
	section TEXT NOT NULL DEFAULT '',
	issue TEXT NOT NULL,
	action_type TEXT NOT NULL DEFAULT '',
	existing_text TEXT NOT NULL DEFAULT '',
	replacement_text TEXT NOT NULL DEFAULT '',
	code_reference TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS alerts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	file_name TEXT NOT NULL,
	rule_id TEXT NOT NULL,
	category TEXT NOT NULL,
	start_off INTEGER NOT NULL,
	end_off INTEGER NOT NULL,
	matched_text TEXT NOT NULL,
	context TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS removed_spans (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	file_name TEXT NOT NULL,
	rule_id TEXT NOT NULL,
	category TEXT NOT NULL,
	start_off INTEGER NOT NULL,
	end_off INTEGER NOT NULL,
	matched_text TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
CREATE INDEX IF NOT EXISTS idx_alerts_run ON alerts(run_id);
CREATE INDEX IF NOT EXISTS idx_removed_run ON removed_spans(run_id);
`
	_, err := s.db.Exec(schema)
	return err
}

// ExpandPath expands a leading ~ to the user home directory.
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
