// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/ringsense/ringsense/internal/store"
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

// Compile-time interface checks.
var (
	_ store.Store      = (*Store)(nil)
	_ store.EntryStore = (*entryStore)(nil)
	_ store.AuditStore = (*auditStore)(nil)
)

// Store implements store.Store backed by a single SQLite database.
type Store struct {
	db      *sql.DB
	entries *entryStore
	audit   *auditStore
}

// NewStore opens (or creates) a SQLite database at dbPath and initialises
// the config_entries and audit_log tables.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, rserr.Wrapf(err, rserr.CodeStoreDatabaseFailure, "opening ringsense db %s", dbPath)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, rserr.Wrapf(err, rserr.CodeStoreDatabaseFailure, "pinging ringsense db %s", dbPath)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, rserr.Wrapf(err, rserr.CodeStoreDatabaseFailure, "migrating ringsense db %s", dbPath)
	}

	return &Store{
		db:      db,
		entries: &entryStore{db: db},
		audit:   &auditStore{db: db},
	}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS config_entries (
	id         TEXT PRIMARY KEY,
	domain     TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	data       TEXT NOT NULL DEFAULT '{}',
	options    TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_config_entries_domain ON config_entries(domain);

CREATE TABLE IF NOT EXISTS audit_log (
	id        TEXT PRIMARY KEY,
	timestamp TEXT NOT NULL,
	action    TEXT NOT NULL DEFAULT '',
	actor     TEXT NOT NULL DEFAULT '',
	entry_id  TEXT NOT NULL DEFAULT '',
	details   TEXT NOT NULL DEFAULT '{}',
	result    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_log_entry     ON audit_log(entry_id);
`
	_, err := db.Exec(ddl)
	return err
}

// Entries returns the EntryStore sub-store.
func (s *Store) Entries() store.EntryStore { return s.entries }

// AuditLog returns the AuditStore sub-store.
func (s *Store) AuditLog() store.AuditStore { return s.audit }

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// isUniqueViolation reports whether err is a SQLite UNIQUE/PRIMARY KEY
// constraint failure.
func isUniqueViolation(err error) bool {
	var sqlErr sqlite3.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	return sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqlErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// timeLayout is RFC3339 with fixed-width nanoseconds so stored values sort
// lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime serialises a time.Time for storage.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// ParseTime deserialises a time string stored in the database.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
