// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package integration

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/ringsense/ringsense/internal/entity"
	"github.com/ringsense/ringsense/internal/flow"
	"github.com/ringsense/ringsense/internal/store"
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

// Hook is told when entities join or leave the platform. The scheduler
// implements it to start and stop periodic updates.
type Hook interface {
	EntityAdded(e entity.Entity) error
	EntityRemoved(uniqueID string)
}

// Platform is the in-process entity registry. Entities are keyed by unique
// ID and grouped by the config entry that created them.
type Platform struct {
	integration *Integration
	logger      *slog.Logger

	mu       sync.RWMutex
	entities map[string]entity.Entity
	byEntry  map[string][]string
	hooks    []Hook

	// entryLocks serialise Load/Reload/Remove per entry; applied holds the
	// newest flow event sequence handled for each entry. Both guarded by mu.
	entryLocks map[string]*sync.Mutex
	applied    map[string]uint64
}

// NewPlatform returns an empty registry that sets entries up through in.
func NewPlatform(in *Integration, logger *slog.Logger) *Platform {
	if logger == nil {
		logger = slog.Default()
	}
	return &Platform{
		integration: in,
		logger:      logger,
		entities:    make(map[string]entity.Entity),
		byEntry:     make(map[string][]string),
		entryLocks:  make(map[string]*sync.Mutex),
		applied:     make(map[string]uint64),
	}
}

// AddHook registers h for future add/remove events.
func (p *Platform) AddHook(h Hook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, h)
}

// AddEntities returns the AddEntitiesFunc for entryID.
func (p *Platform) AddEntities(entryID string) AddEntitiesFunc {
	return func(ctx context.Context, entities []entity.Entity, updateBeforeAdd bool) {
		if updateBeforeAdd {
			for _, e := range entities {
				if err := e.Update(ctx); err != nil {
					p.logger.Warn("initial update failed", "entity", e.UniqueID(), "error", err)
				}
			}
		}

		p.mu.Lock()
		owned := p.byEntry[entryID]
		for _, e := range entities {
			id := e.UniqueID()
			if _, dup := p.entities[id]; dup {
				p.logger.Warn("replacing entity with duplicate unique id", "entity", id)
			}
			p.entities[id] = e
			if !slices.Contains(owned, id) {
				owned = append(owned, id)
			}
		}
		p.byEntry[entryID] = owned
		hooks := append([]Hook(nil), p.hooks...)
		p.mu.Unlock()

		for _, e := range entities {
			for _, h := range hooks {
				if err := h.EntityAdded(e); err != nil {
					p.logger.Error("entity hook failed", "entity", e.UniqueID(), "error", err)
				}
			}
		}
	}
}

// Load sets entry up and registers its entities.
func (p *Platform) Load(ctx context.Context, entry *store.ConfigEntry) error {
	unlock := p.lockEntry(entry.ID)
	defer unlock()
	return p.load(ctx, entry)
}

// Reload replaces the entities of entry with freshly built ones, picking up
// a changed token.
func (p *Platform) Reload(ctx context.Context, entry *store.ConfigEntry) error {
	unlock := p.lockEntry(entry.ID)
	defer unlock()
	return p.reload(ctx, entry)
}

// Remove unregisters every entity created for entryID.
func (p *Platform) Remove(entryID string) {
	unlock := p.lockEntry(entryID)
	defer unlock()
	p.remove(entryID)
}

func (p *Platform) lockEntry(entryID string) (unlock func()) {
	p.mu.Lock()
	l, ok := p.entryLocks[entryID]
	if !ok {
		l = &sync.Mutex{}
		p.entryLocks[entryID] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (p *Platform) load(ctx context.Context, entry *store.ConfigEntry) error {
	return p.integration.Setup(ctx, entry, p.AddEntities(entry.ID))
}

func (p *Platform) reload(ctx context.Context, entry *store.ConfigEntry) error {
	p.remove(entry.ID)
	return p.load(ctx, entry)
}

func (p *Platform) remove(entryID string) {
	p.mu.Lock()
	ids := p.byEntry[entryID]
	delete(p.byEntry, entryID)
	for _, id := range ids {
		delete(p.entities, id)
	}
	hooks := append([]Hook(nil), p.hooks...)
	p.mu.Unlock()

	for _, id := range ids {
		for _, h := range hooks {
			h.EntityRemoved(id)
		}
	}
}

// Entities returns all registered entities sorted by unique ID.
func (p *Platform) Entities() []entity.Entity {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]entity.Entity, 0, len(p.entities))
	for _, e := range p.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UniqueID() < out[j].UniqueID() })
	return out
}

// Get returns the entity registered under uniqueID.
func (p *Platform) Get(uniqueID string) (entity.Entity, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	e, ok := p.entities[uniqueID]
	if !ok {
		return nil, rserr.Errorf(rserr.CodeIntegrationEntityNotFound, "entity %q not found", uniqueID)
	}
	return e, nil
}

// HandleEntryEvent keeps the registry in step with credential flow writes.
// It is registered with flow.Manager.OnEntryUpdated. Events for one entry
// are applied one at a time, and an event older than one already applied
// is dropped.
func (p *Platform) HandleEntryEvent(ctx context.Context, ev flow.Event) {
	unlock := p.lockEntry(ev.Entry.ID)
	defer unlock()

	if ev.Seq != 0 {
		p.mu.Lock()
		last := p.applied[ev.Entry.ID]
		if ev.Seq > last {
			p.applied[ev.Entry.ID] = ev.Seq
		}
		p.mu.Unlock()
		if ev.Seq <= last {
			p.logger.Debug("dropping superseded entry event",
				"entry_id", ev.Entry.ID, "seq", ev.Seq, "applied", last)
			return
		}
	}

	switch ev.Kind {
	case flow.EventRemoved:
		p.remove(ev.Entry.ID)
	case flow.EventCreated, flow.EventUpdated:
		if err := p.reload(ctx, ev.Entry); err != nil {
			p.logger.Error("reloading entry failed", "entry_id", ev.Entry.ID, "error", err)
		}
	}
}
