// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ringsense/ringsense/internal/entity"
	"github.com/ringsense/ringsense/internal/oura"
	rserr "github.com/ringsense/ringsense/pkg/errors"
	"github.com/ringsense/ringsense/pkg/health"
)

// Fetcher retrieves one collection document. *oura.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, category oura.Category, token string) (oura.Document, error)
}

// Result classifies the outcome of one poll.
type Result string

const (
	ResultOK             Result = "ok"
	ResultTransportError Result = "transport_error"
	ResultUpstreamError  Result = "upstream_error"
	ResultExtractError   Result = "extract_error"
)

// Observer is notified after every poll, outside the poller's lock.
type Observer interface {
	ObservePoll(category oura.Category, result Result, state entity.State, elapsed time.Duration)
}

// Compile-time interface check.
var _ entity.Entity = (*Poller)(nil)

// Poller publishes the score of one metric category as entity state.
//
// Failure policy: a transport failure or a non-200 status marks the entity
// unavailable and keeps the previous value and attributes. A 200 response
// always replaces the attributes; if no score can be extracted the value is
// cleared and the state is flagged stale while staying available.
type Poller struct {
	category oura.Category
	token    string
	fetcher  Fetcher
	observer Observer
	health   *HealthTracker
	logger   *slog.Logger
	nowFunc  func() time.Time

	mu    sync.RWMutex
	state entity.State
}

// Option configures a Poller.
type Option func(*Poller)

// WithObserver registers a poll observer.
func WithObserver(o Observer) Option {
	return func(p *Poller) { p.observer = o }
}

// WithLogger overrides slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithNowFunc overrides the time source (for testing).
func WithNowFunc(fn func() time.Time) Option {
	return func(p *Poller) {
		p.nowFunc = fn
		p.health.SetNowFunc(fn)
	}
}

// New returns a poller for category that authenticates with token. The
// initial state is available with no value.
func New(category oura.Category, token string, fetcher Fetcher, opts ...Option) (*Poller, error) {
	if !category.Valid() {
		return nil, rserr.Errorf(rserr.CodeOuraCategoryInvalid, "unknown metric category %q", string(category))
	}
	if fetcher == nil {
		return nil, rserr.New(rserr.CodeIntegrationSetupInvalid, "poller requires a fetcher")
	}

	p := &Poller{
		category: category,
		token:    token,
		fetcher:  fetcher,
		health:   NewHealthTracker(),
		logger:   slog.Default(),
		nowFunc:  time.Now,
		state: entity.State{
			Available:  true,
			Attributes: map[string]any{},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("category", string(category))
	return p, nil
}

// Category returns the metric category the poller publishes.
func (p *Poller) Category() oura.Category { return p.category }

// Name implements entity.Entity.
func (p *Poller) Name() string { return "Oura Ring " + p.category.Title() }

// UniqueID implements entity.Entity.
func (p *Poller) UniqueID() string { return "oura_ring_" + string(p.category) }

// State implements entity.Entity.
func (p *Poller) State() entity.State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.Clone()
}

// Health returns the poller's health counters.
func (p *Poller) Health() health.Metrics {
	return p.health.Metrics()
}

// Update implements entity.Entity. Upstream failures are absorbed into the
// state; only a context that is already done is returned as an error.
func (p *Poller) Update(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := p.nowFunc()
	doc, err := p.fetcher.Fetch(ctx, p.category, p.token)
	result := p.apply(doc, err)
	elapsed := p.nowFunc().Sub(start)

	if p.observer != nil {
		p.observer.ObservePoll(p.category, result, p.State(), elapsed)
	}
	return nil
}

func (p *Poller) apply(doc oura.Document, fetchErr error) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.LastUpdated = p.nowFunc()

	if fetchErr != nil {
		p.health.RecordFailure()
		p.state.Available = false
		p.state.LastError = fetchErr.Error()

		if rserr.HasCode(fetchErr, rserr.CodeOuraTransportFailure) {
			p.logger.Error("error fetching Oura Ring data", "error", fetchErr)
			return ResultTransportError
		}
		p.logger.Error("failed to fetch Oura data",
			"status", oura.StatusOf(fetchErr),
			"error", fetchErr,
		)
		return ResultUpstreamError
	}

	p.health.RecordSuccess()
	p.state.Available = true
	p.state.Attributes = map[string]any(doc)

	value, err := oura.ExtractScore(doc)
	if err != nil {
		p.logger.Error("error extracting state from Oura Ring data",
			"error", err,
			"fields", rserr.FieldsOf(err),
		)
		p.state.Value = nil
		p.state.Stale = true
		p.state.LastError = err.Error()
		return ResultExtractError
	}

	p.state.Value = value
	p.state.Stale = false
	p.state.LastError = ""
	return ResultOK
}
