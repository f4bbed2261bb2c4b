// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ringsense/ringsense/internal/store"
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

type auditStore struct {
	db *sql.DB
}

func (s *auditStore) Append(ctx context.Context, entry *store.AuditEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	details := "{}"
	if entry.Details != nil {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return rserr.Wrapf(err, rserr.CodeStoreInvalidInput, "marshalling audit details")
		}
		details = string(b)
	}

	const q = `INSERT INTO audit_log (id, timestamp, action, actor, entry_id, details, result)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		entry.ID, formatTime(entry.Timestamp), entry.Action, entry.Actor,
		entry.EntryID, details, entry.Result,
	)
	if err != nil {
		return rserr.Wrapf(err, rserr.CodeStoreDatabaseFailure, "appending audit entry %s", entry.ID)
	}
	return nil
}

func (s *auditStore) Query(ctx context.Context, filter store.AuditFilter) ([]*store.AuditEntry, error) {
	var qb strings.Builder
	qb.WriteString(`SELECT id, timestamp, action, actor, entry_id, details, result FROM audit_log`)

	var conditions []string
	var args []any

	if filter.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, filter.Action)
	}
	if filter.EntryID != "" {
		conditions = append(conditions, "entry_id = ?")
		args = append(args, filter.EntryID)
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, formatTime(filter.From))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "timestamp < ?")
		args = append(args, formatTime(filter.To))
	}

	if len(conditions) > 0 {
		qb.WriteString(" WHERE ")
		qb.WriteString(strings.Join(conditions, " AND "))
	}

	qb.WriteString(" ORDER BY timestamp ASC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	qb.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, rserr.Wrapf(err, rserr.CodeStoreDatabaseFailure, "querying audit log")
	}
	defer rows.Close() //nolint:errcheck // error on read-path close is not actionable

	var entries []*store.AuditEntry
	for rows.Next() {
		var e store.AuditEntry
		var ts, detailsJSON string
		if err := rows.Scan(&e.ID, &ts, &e.Action, &e.Actor, &e.EntryID, &detailsJSON, &e.Result); err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}
		var err error
		e.Timestamp, err = ParseTime(ts)
		if err != nil {
			return nil, fmt.Errorf("parsing audit entry %s timestamp: %w", e.ID, err)
		}
		if detailsJSON != "" && detailsJSON != "{}" {
			if err := json.Unmarshal([]byte(detailsJSON), &e.Details); err != nil {
				return nil, fmt.Errorf("unmarshalling audit details: %w", err)
			}
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, rserr.Wrapf(err, rserr.CodeStoreDatabaseFailure, "iterating audit entries")
	}
	return entries, nil
}
