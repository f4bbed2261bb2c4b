// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package health

import "time"

// Metrics exposes the poll health of a single entity for operator
// visibility. All fields are point-in-time snapshots safe to serialize.
type Metrics struct {
	PollCount           int64      `json:"poll_count"`
	FailureCount        int64      `json:"failure_count"`
	ConsecutiveFailures int64      `json:"consecutive_failures"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	LastFailureAt       *time.Time `json:"last_failure_at,omitempty"`
	Available           bool       `json:"available"`
}
