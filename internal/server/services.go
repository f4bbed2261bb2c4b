// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package server

import (
	"context"

	"github.com/ringsense/ringsense/internal/entity"
	"github.com/ringsense/ringsense/internal/flow"
	"github.com/ringsense/ringsense/internal/store"
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

// EntityRegistry lists and looks up live entities. *integration.Platform
// satisfies it.
type EntityRegistry interface {
	Entities() []entity.Entity
	Get(uniqueID string) (entity.Entity, error)
}

// FlowRunner runs credential flow steps. *flow.Manager satisfies it.
type FlowRunner interface {
	StartSetup(ctx context.Context, in *flow.Input) (*flow.Result, error)
	StartOptionsEdit(ctx context.Context, entryID string, in *flow.Input) (*flow.Result, error)
	RemoveEntry(ctx context.Context, entryID string) error
}

// EntryLister lists stored config entries. store.EntryStore satisfies it.
type EntryLister interface {
	List(ctx context.Context, opts store.ListOpts) ([]*store.ConfigEntry, error)
}

// Services holds the dependencies injected into route handlers.
type Services struct {
	entities EntityRegistry
	flows    FlowRunner
	entries  EntryLister
}

// NewServices validates that every dependency is present.
func NewServices(entities EntityRegistry, flows FlowRunner, entries EntryLister) (*Services, error) {
	if entities == nil {
		return nil, rserr.New(rserr.CodeServerConfigInvalid, "entity registry is required")
	}
	if flows == nil {
		return nil, rserr.New(rserr.CodeServerConfigInvalid, "flow runner is required")
	}
	if entries == nil {
		return nil, rserr.New(rserr.CodeServerConfigInvalid, "entry lister is required")
	}
	return &Services{entities: entities, flows: flows, entries: entries}, nil
}
