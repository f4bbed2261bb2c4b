// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package store

import "context"

// Store is the persistence root: config entries plus their audit trail.
type Store interface {
	Entries() EntryStore
	AuditLog() AuditStore
	Close() error
}

// EntryStore manages config entries. At most one entry exists per domain.
type EntryStore interface {
	Create(ctx context.Context, entry *ConfigEntry) error
	Get(ctx context.Context, id string) (*ConfigEntry, error)
	GetByDomain(ctx context.Context, domain string) (*ConfigEntry, error)
	UpdateData(ctx context.Context, id, title string, data map[string]string) error
	// ReplaceData sets title and data and clears options in one write.
	ReplaceData(ctx context.Context, id, title string, data map[string]string) error
	UpdateOptions(ctx context.Context, id string, options map[string]string) error
	List(ctx context.Context, opts ListOpts) ([]*ConfigEntry, error)
	Delete(ctx context.Context, id string) error
}

// AuditStore manages the audit log.
type AuditStore interface {
	Append(ctx context.Context, entry *AuditEntry) error
	Query(ctx context.Context, filter AuditFilter) ([]*AuditEntry, error)
}
