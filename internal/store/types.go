// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package store

import "time"

// ConfigEntry is a persisted integration configuration: the record the
// credential flow writes and integration setup reads.
type ConfigEntry struct {
	ID        string
	Domain    string
	Title     string
	Data      map[string]string
	Options   map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuditEntry records a change made to a config entry. Details never carry
// credential values.
type AuditEntry struct {
	ID        string
	Timestamp time.Time
	Action    string
	Actor     string
	EntryID   string
	Details   map[string]any
	Result    string
}

// Audit actions written by the credential flow.
const (
	AuditActionEntryCreate        = "entry.create"
	AuditActionEntryUpdateData    = "entry.update_data"
	AuditActionEntryUpdateOptions = "entry.update_options"
	AuditActionEntryDelete        = "entry.delete"
)

// AuditFilter specifies criteria for querying audit entries.
type AuditFilter struct {
	Action  string
	EntryID string
	From    time.Time
	To      time.Time
	Limit   int
	Offset  int
}

// ListOpts provides pagination parameters for list operations.
type ListOpts struct {
	Limit  int
	Offset int
}
