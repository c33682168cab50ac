package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/bandwalk/internal/querysql"
)

//go:embed schema.sql
var schemaSQL string

// migration upgrades an event log written by an older bandwalk to version.
// Each statement must be safe to run against a log that already has it.
type migration struct {
	version int
	name    string
	stmt    string
}

// migrations run in order against logs whose user_version is below theirs.
// A fresh log starts at version 0 and runs all of them.
var migrations = []migration{
	{
		version: 1,
		name:    "index runs by report",
		stmt:    `CREATE INDEX IF NOT EXISTS idx_runs_report_name ON runs(report_name, id)`,
	},
}

// currentSchemaVersion is the user_version of a fully migrated event log.
var currentSchemaVersion = migrations[len(migrations)-1].version

// Settings every connection to an event log runs with. Runs are written by
// one process and read back by trace and replay, so WAL lets readers see a
// consistent log while a run is being recorded.
var pragmas = []struct{ name, value string }{
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
	{"busy_timeout", "5000"},
	{"foreign_keys", "ON"},
}

// Store is the durable event log: one row per run plus its ordered event
// records, which replay and trace read back by step.
type Store struct {
	db       *sql.DB
	compiler *querysql.SQLCompiler
}

// Open opens the event log at path, creating it when missing, and brings
// its schema up to date. Opening the same log again is a no-op for the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to event log %s: %w", path, err)
	}

	// A run writes its events in one transaction; a single connection keeps
	// SQLite from reporting SQLITE_BUSY between writer and readers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := configure(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, compiler: querysql.NewSQLCompiler()}, nil
}

// Close releases the event log. Closing a zero Store is allowed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the connection for tests that tamper with stored runs.
func (s *Store) DB() *sql.DB {
	return s.db
}

func configure(db *sql.DB) error {
	for _, p := range pragmas {
		stmt := fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("configure event log: %q: %w", stmt, err)
		}
	}
	return nil
}

// migrate creates the runs and events tables and applies every migration
// newer than the log's user_version.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create event log schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read event log version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate event log to v%d (%s): %w", m.version, m.name, err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("record event log version: %w", err)
	}
	return nil
}

// verifyPragma reports whether pragma name reads back as want.
func (s *Store) verifyPragma(name, want string) error {
	var got string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&got); err != nil {
		return fmt.Errorf("read pragma %s: %w", name, err)
	}
	if got != want {
		return fmt.Errorf("pragma %s = %q, want %q", name, got, want)
	}
	return nil
}
