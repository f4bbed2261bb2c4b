// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

// Package entity defines the contract every polled sensor exposes to the
// host: an identity, a state snapshot and an on-demand refresh.
package entity

import (
	"context"
	"maps"
	"time"
)

// Entity is a sensor whose state the host can read and refresh.
type Entity interface {
	// Name is the human-readable entity name.
	Name() string
	// UniqueID is stable across restarts and unique within the host.
	UniqueID() string
	// State returns a copy of the current state.
	State() State
	// Update refreshes the state. Failures talking to the data source are
	// reflected in State rather than returned; a non-nil error means the
	// update could not be attempted at all.
	Update(ctx context.Context) error
}

// State is a point-in-time entity snapshot.
type State struct {
	Available   bool           `json:"available"`
	Value       *float64       `json:"value"`
	Attributes  map[string]any `json:"attributes"`
	Stale       bool           `json:"stale"`
	LastUpdated time.Time      `json:"last_updated"`
	LastError   string         `json:"last_error,omitempty"`
}

// Clone returns a copy whose Value and top-level Attributes map are not
// shared with s.
func (s State) Clone() State {
	out := s
	if s.Value != nil {
		v := *s.Value
		out.Value = &v
	}
	if s.Attributes != nil {
		out.Attributes = maps.Clone(s.Attributes)
	}
	return out
}
