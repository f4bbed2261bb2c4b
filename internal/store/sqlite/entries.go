// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/ringsense/ringsense/internal/store"
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

type entryStore struct {
	db *sql.DB
}

const entryColumns = `id, domain, title, data, options, created_at, updated_at`

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *entryStore) Create(ctx context.Context, entry *store.ConfigEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = entry.CreatedAt
	}

	data, err := encodeMap(entry.Data)
	if err != nil {
		return err
	}
	options, err := encodeMap(entry.Options)
	if err != nil {
		return err
	}

	const q = `INSERT INTO config_entries (` + entryColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, q,
		entry.ID, entry.Domain, entry.Title, data, options,
		formatTime(entry.CreatedAt), formatTime(entry.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return rserr.Wrap(store.ErrConflict, rserr.CodeStoreEntryConflict,
				"config entry for domain "+entry.Domain+" already exists", rserr.FieldEntryID(entry.ID))
		}
		return rserr.Wrapf(err, rserr.CodeStoreDatabaseFailure, "inserting config entry %s", entry.ID)
	}
	return nil
}

func (s *entryStore) Get(ctx context.Context, id string) (*store.ConfigEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM config_entries WHERE id = ?`
	e, err := scanEntry(s.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, rserr.Wrap(store.ErrNotFound, rserr.CodeStoreEntryNotFound, "config entry "+id, rserr.FieldEntryID(id))
	}
	if err != nil {
		return nil, rserr.Wrapf(err, rserr.CodeStoreDatabaseFailure, "getting config entry %s", id)
	}
	return e, nil
}

func (s *entryStore) GetByDomain(ctx context.Context, domain string) (*store.ConfigEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM config_entries WHERE domain = ?`
	e, err := scanEntry(s.db.QueryRowContext(ctx, q, domain))
	if err == sql.ErrNoRows {
		return nil, rserr.Wrap(store.ErrNotFound, rserr.CodeStoreEntryNotFound, "config entry for domain "+domain)
	}
	if err != nil {
		return nil, rserr.Wrapf(err, rserr.CodeStoreDatabaseFailure, "getting config entry for domain %s", domain)
	}
	return e, nil
}

func (s *entryStore) UpdateData(ctx context.Context, id, title string, data map[string]string) error {
	encoded, err := encodeMap(data)
	if err != nil {
		return err
	}
	const q = `UPDATE config_entries SET title = ?, data = ?, updated_at = ? WHERE id = ?`
	return s.exec(ctx, id, q, title, encoded, formatTime(time.Now()), id)
}

func (s *entryStore) ReplaceData(ctx context.Context, id, title string, data map[string]string) error {
	encoded, err := encodeMap(data)
	if err != nil {
		return err
	}
	const q = `UPDATE config_entries SET title = ?, data = ?, options = '{}', updated_at = ? WHERE id = ?`
	return s.exec(ctx, id, q, title, encoded, formatTime(time.Now()), id)
}

func (s *entryStore) UpdateOptions(ctx context.Context, id string, options map[string]string) error {
	encoded, err := encodeMap(options)
	if err != nil {
		return err
	}
	const q = `UPDATE config_entries SET options = ?, updated_at = ? WHERE id = ?`
	return s.exec(ctx, id, q, encoded, formatTime(time.Now()), id)
}

func (s *entryStore) List(ctx context.Context, opts store.ListOpts) ([]*store.ConfigEntry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	const q = `SELECT ` + entryColumns + ` FROM config_entries ORDER BY created_at ASC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, limit, opts.Offset)
	if err != nil {
		return nil, rserr.Wrapf(err, rserr.CodeStoreDatabaseFailure, "listing config entries")
	}
	defer rows.Close() //nolint:errcheck // error on read-path close is not actionable

	var entries []*store.ConfigEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, rserr.Wrapf(err, rserr.CodeStoreDatabaseFailure, "scanning config entry row")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, rserr.Wrapf(err, rserr.CodeStoreDatabaseFailure, "iterating config entries")
	}
	return entries, nil
}

func (s *entryStore) Delete(ctx context.Context, id string) error {
	return s.exec(ctx, id, `DELETE FROM config_entries WHERE id = ?`, id)
}

// exec runs a single-row write and maps "no rows affected" to not found.
func (s *entryStore) exec(ctx context.Context, id, q string, args ...any) error {
	result, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return rserr.Wrapf(err, rserr.CodeStoreDatabaseFailure, "writing config entry %s", id)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return rserr.Wrapf(err, rserr.CodeStoreDatabaseFailure, "checking rows for config entry %s", id)
	}
	if rows == 0 {
		return rserr.Wrap(store.ErrNotFound, rserr.CodeStoreEntryNotFound, "config entry "+id, rserr.FieldEntryID(id))
	}
	return nil
}

func scanEntry(row rowScanner) (*store.ConfigEntry, error) {
	var (
		e                    store.ConfigEntry
		data, options        string
		createdAt, updatedAt string
	)
	if err := row.Scan(&e.ID, &e.Domain, &e.Title, &data, &options, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if e.Data, err = decodeMap(data); err != nil {
		return nil, err
	}
	if e.Options, err = decodeMap(options); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = ParseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func encodeMap(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", rserr.Wrapf(err, rserr.CodeStoreInvalidInput, "marshalling entry map")
	}
	return string(b), nil
}

func decodeMap(s string) (map[string]string, error) {
	m := map[string]string{}
	if s == "" || s == "{}" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}
