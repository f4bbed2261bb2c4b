// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

// Package integration binds a stored config entry to its metric pollers.
package integration

import (
	"context"

	"github.com/ringsense/ringsense/internal/entity"
	"github.com/ringsense/ringsense/internal/flow"
	"github.com/ringsense/ringsense/internal/oura"
	"github.com/ringsense/ringsense/internal/poller"
	"github.com/ringsense/ringsense/internal/store"
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

// AddEntitiesFunc registers entities with the host. When updateBeforeAdd is
// true each entity is polled once before it becomes visible.
type AddEntitiesFunc func(ctx context.Context, entities []entity.Entity, updateBeforeAdd bool)

// Integration builds pollers for config entries.
type Integration struct {
	fetcher poller.Fetcher
	opts    []poller.Option
}

// New returns an Integration whose pollers fetch through fetcher and are
// constructed with opts.
func New(fetcher poller.Fetcher, opts ...poller.Option) *Integration {
	return &Integration{fetcher: fetcher, opts: opts}
}

// Setup constructs one poller per metric category for entry and hands all
// of them to add in a single call. The entry must carry an access_token in
// its data; an options-level token takes precedence once set.
func (i *Integration) Setup(ctx context.Context, entry *store.ConfigEntry, add AddEntitiesFunc) error {
	if entry == nil {
		return rserr.New(rserr.CodeIntegrationSetupInvalid, "no config entry")
	}
	if _, ok := entry.Data[flow.FieldAccessToken]; !ok {
		return rserr.New(rserr.CodeIntegrationSetupInvalid, "config entry has no access_token",
			rserr.FieldEntryID(entry.ID))
	}
	token := flow.CurrentToken(entry)

	cats := oura.Categories()
	entities := make([]entity.Entity, 0, len(cats))
	for _, c := range cats {
		p, err := poller.New(c, token, i.fetcher, i.opts...)
		if err != nil {
			return rserr.With(err, rserr.FieldEntryID(entry.ID))
		}
		entities = append(entities, p)
	}

	add(ctx, entities, true)
	return nil
}
