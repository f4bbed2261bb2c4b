// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package store

import (
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

// Validate checks that the ConfigEntry has all required fields set.
func (e ConfigEntry) Validate() error {
	if e.ID == "" {
		return rserr.New(rserr.CodeStoreInvalidInput, "config entry: ID is required")
	}
	if e.Domain == "" {
		return rserr.New(rserr.CodeStoreInvalidInput, "config entry: Domain is required")
	}
	if e.CreatedAt.IsZero() {
		return rserr.New(rserr.CodeStoreInvalidInput, "config entry: CreatedAt is required")
	}
	return nil
}

// Validate checks that the AuditEntry has all required fields set.
func (a AuditEntry) Validate() error {
	if a.ID == "" {
		return rserr.New(rserr.CodeStoreInvalidInput, "audit entry: ID is required")
	}
	if a.Action == "" {
		return rserr.New(rserr.CodeStoreInvalidInput, "audit entry: Action is required")
	}
	if a.Timestamp.IsZero() {
		return rserr.New(rserr.CodeStoreInvalidInput, "audit entry: Timestamp is required")
	}
	return nil
}
