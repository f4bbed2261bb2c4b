// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

// Package scheduler drives periodic entity updates with gocron.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/ringsense/ringsense/internal/entity"
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

// DefaultInterval is the polling interval used when none is configured.
const DefaultInterval = 30 * time.Second

// Scheduler runs one duration job per entity. Jobs are singletons: a slow
// update is never overlapped by the next run of the same entity.
type Scheduler struct {
	cron     gocron.Scheduler
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	jobs map[string]uuid.UUID
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the update interval.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithTimeout bounds each update. Zero means the interval.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

// WithLogger overrides slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a stopped scheduler.
func New(opts ...Option) (*Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, rserr.Wrap(err, rserr.CodeSchedulerStartFailure, "creating scheduler")
	}

	s := &Scheduler{
		cron:     cron,
		interval: DefaultInterval,
		logger:   slog.Default(),
		jobs:     make(map[string]uuid.UUID),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.timeout <= 0 || s.timeout > s.interval {
		s.timeout = s.interval
	}
	s.logger = s.logger.With("component", "scheduler")
	return s, nil
}

// Interval returns the configured update interval.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", "interval", s.interval, "jobs", s.Len())
	s.cron.Start()
}

// Shutdown stops all jobs and waits for running updates to return.
func (s *Scheduler) Shutdown() error {
	s.logger.Info("shutting down scheduler")
	if err := s.cron.Shutdown(); err != nil {
		return rserr.Wrap(err, rserr.CodeSchedulerJobFailure, "shutting down scheduler")
	}
	return nil
}

// Len returns the number of scheduled entities.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// EntityAdded schedules periodic updates for e, replacing any job already
// registered under the same unique ID.
func (s *Scheduler) EntityAdded(e entity.Entity) error {
	id := e.UniqueID()
	s.EntityRemoved(id)

	job, err := s.cron.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.run(e) }),
		gocron.WithName(id),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return rserr.Wrap(err, rserr.CodeSchedulerJobFailure, "scheduling entity "+id)
	}

	s.mu.Lock()
	s.jobs[id] = job.ID()
	s.mu.Unlock()

	s.logger.Debug("scheduled entity", "entity", id, "job_id", job.ID())
	return nil
}

// EntityRemoved cancels the job for uniqueID, if any.
func (s *Scheduler) EntityRemoved(uniqueID string) {
	s.mu.Lock()
	jobID, ok := s.jobs[uniqueID]
	delete(s.jobs, uniqueID)
	s.mu.Unlock()
	if !ok {
		return
	}

	if err := s.cron.RemoveJob(jobID); err != nil {
		s.logger.Warn("removing job failed", "entity", uniqueID, "error", err)
	}
}

func (s *Scheduler) run(e entity.Entity) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := e.Update(ctx); err != nil {
		s.logger.Warn("entity update failed", "entity", e.UniqueID(), "error", err)
	}
}
