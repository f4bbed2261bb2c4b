// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package store

import "errors"

// Sentinel errors for store operations. Backends wrap them in coded errors
// so callers can use either errors.Is or rserr classification.
var (
	// ErrNotFound indicates the requested entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a unique constraint was violated, e.g. a second
	// entry for the same domain.
	ErrConflict = errors.New("conflict")
)
