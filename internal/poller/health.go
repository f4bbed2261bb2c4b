// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package poller

import (
	"sync"
	"time"

	"github.com/ringsense/ringsense/pkg/health"
)

// HealthTracker counts poll outcomes for one poller. Only transport and
// HTTP failures count as failures; an extraction problem on a 200 response
// still means the upstream was reachable.
type HealthTracker struct {
	mu                  sync.RWMutex
	available           bool
	pollCount           int64
	failureCount        int64
	consecutiveFailures int64
	lastSuccessAt       time.Time
	lastFailureAt       time.Time
	nowFunc             func() time.Time
}

// NewHealthTracker returns a tracker that starts available.
func NewHealthTracker() *HealthTracker {
	return &HealthTracker{
		available: true,
		nowFunc:   time.Now,
	}
}

// RecordSuccess marks the upstream reachable and resets the failure streak.
func (h *HealthTracker) RecordSuccess() {
	h.mu.Lock()
	h.available = true
	h.pollCount++
	h.consecutiveFailures = 0
	h.lastSuccessAt = h.nowFunc()
	h.mu.Unlock()
}

// RecordFailure marks the upstream unreachable.
func (h *HealthTracker) RecordFailure() {
	h.mu.Lock()
	h.available = false
	h.pollCount++
	h.failureCount++
	h.consecutiveFailures++
	h.lastFailureAt = h.nowFunc()
	h.mu.Unlock()
}

// SetNowFunc overrides the time source (for testing).
func (h *HealthTracker) SetNowFunc(fn func() time.Time) {
	h.mu.Lock()
	h.nowFunc = fn
	h.mu.Unlock()
}

// Metrics returns a snapshot that holds no references to tracker state.
func (h *HealthTracker) Metrics() health.Metrics {
	h.mu.RLock()
	defer h.mu.RUnlock()

	m := health.Metrics{
		PollCount:           h.pollCount,
		FailureCount:        h.failureCount,
		ConsecutiveFailures: h.consecutiveFailures,
		Available:           h.available,
	}
	if !h.lastSuccessAt.IsZero() {
		t := h.lastSuccessAt
		m.LastSuccessAt = &t
	}
	if !h.lastFailureAt.IsZero() {
		t := h.lastFailureAt
		m.LastFailureAt = &t
	}
	return m
}
