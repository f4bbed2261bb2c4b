// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package flow_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringsense/ringsense/internal/flow"
	"github.com/ringsense/ringsense/internal/store"
	"github.com/ringsense/ringsense/internal/store/sqlite"
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

func newManager(t *testing.T) (*flow.Manager, store.Store) {
	t.Helper()
	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "flow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return flow.NewManager(st), st
}

func token(s string) *flow.Input { return &flow.Input{AccessToken: &s} }

func TestStartSetup_RendersForm(t *testing.T) {
	m, _ := newManager(t)

	res, err := m.StartSetup(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, flow.ResultTypeForm, res.Type)
	assert.Equal(t, flow.StepUser, res.StepID)
	require.Len(t, res.Fields, 1)
	assert.Equal(t, flow.FieldAccessToken, res.Fields[0].Name)
	assert.Equal(t, "string", res.Fields[0].Type)
	assert.True(t, res.Fields[0].Required)
	assert.Empty(t, res.Fields[0].Default)
}

func TestStartSetup_CreatesSingleEntry(t *testing.T) {
	ctx := context.Background()
	m, st := newManager(t)

	res, err := m.StartSetup(ctx, token("abc123"))
	require.NoError(t, err)
	assert.Equal(t, flow.ResultTypeCreateEntry, res.Type)
	assert.Equal(t, "Oura Ring", res.Title)
	assert.Equal(t, map[string]string{"access_token": "abc123"}, res.Data)

	entries, err := st.Entries().List(ctx, store.ListOpts{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.EntryID, entries[0].ID)
	assert.Equal(t, "Oura Ring", entries[0].Title)
	assert.Equal(t, flow.Domain, entries[0].Domain)
	assert.Equal(t, "abc123", entries[0].Data["access_token"])
}

func TestStartSetup_ResubmitOverwrites(t *testing.T) {
	ctx := context.Background()
	m, st := newManager(t)

	first, err := m.StartSetup(ctx, token("one"))
	require.NoError(t, err)
	second, err := m.StartSetup(ctx, token("two"))
	require.NoError(t, err)
	assert.Equal(t, first.EntryID, second.EntryID)

	entries, err := st.Entries().List(ctx, store.ListOpts{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "two", entries[0].Data["access_token"])
}

func TestStartSetup_AfterOptionsEdit(t *testing.T) {
	ctx := context.Background()
	m, st := newManager(t)

	setup, err := m.StartSetup(ctx, token("one"))
	require.NoError(t, err)
	_, err = m.StartOptionsEdit(ctx, setup.EntryID, token("two"))
	require.NoError(t, err)

	var notified *store.ConfigEntry
	m.OnEntryUpdated(func(_ context.Context, ev flow.Event) { notified = ev.Entry })

	_, err = m.StartSetup(ctx, token("three"))
	require.NoError(t, err)

	entry, err := st.Entries().Get(ctx, setup.EntryID)
	require.NoError(t, err)
	assert.Equal(t, "three", entry.Data["access_token"])
	assert.Empty(t, entry.Options)
	assert.Equal(t, "three", flow.CurrentToken(entry))

	require.NotNil(t, notified)
	assert.Equal(t, "three", flow.CurrentToken(notified))

	form, err := m.StartOptionsEdit(ctx, setup.EntryID, nil)
	require.NoError(t, err)
	assert.Equal(t, "three", form.Fields[0].Default)
}

func TestEventSeqIncreases(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	var seqs []uint64
	m.OnEntryUpdated(func(_ context.Context, ev flow.Event) { seqs = append(seqs, ev.Seq) })

	setup, err := m.StartSetup(ctx, token("a"))
	require.NoError(t, err)
	_, err = m.StartOptionsEdit(ctx, setup.EntryID, token("b"))
	require.NoError(t, err)
	require.NoError(t, m.RemoveEntry(ctx, setup.EntryID))

	require.Len(t, seqs, 3)
	assert.Less(t, seqs[0], seqs[1])
	assert.Less(t, seqs[1], seqs[2])
}

func TestStartSetup_EmptyTokenAccepted(t *testing.T) {
	m, _ := newManager(t)
	res, err := m.StartSetup(context.Background(), token(""))
	require.NoError(t, err)
	assert.Equal(t, "", res.Data["access_token"])
}

func TestStartSetup_MissingKeyRejected(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.StartSetup(context.Background(), &flow.Input{})
	require.Error(t, err)
	assert.True(t, rserr.HasCode(err, rserr.CodeFlowInputInvalid))
	assert.True(t, rserr.IsInvalidInput(err))
}

func TestStartOptionsEdit_OverwritesWithoutSecondEntry(t *testing.T) {
	ctx := context.Background()
	m, st := newManager(t)

	setup, err := m.StartSetup(ctx, token("abc123"))
	require.NoError(t, err)

	form, err := m.StartOptionsEdit(ctx, setup.EntryID, nil)
	require.NoError(t, err)
	assert.Equal(t, flow.ResultTypeForm, form.Type)
	assert.Equal(t, flow.StepInit, form.StepID)
	require.Len(t, form.Fields, 1)
	assert.Equal(t, "abc123", form.Fields[0].Default)

	res, err := m.StartOptionsEdit(ctx, setup.EntryID, token("xyz789"))
	require.NoError(t, err)
	assert.Equal(t, flow.ResultTypeCreateEntry, res.Type)
	assert.Equal(t, "", res.Title)
	assert.Equal(t, map[string]string{"access_token": "xyz789"}, res.Data)

	entries, err := st.Entries().List(ctx, store.ListOpts{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "xyz789", entries[0].Options["access_token"])
	assert.Equal(t, "xyz789", flow.CurrentToken(entries[0]))

	form, err = m.StartOptionsEdit(ctx, setup.EntryID, nil)
	require.NoError(t, err)
	assert.Equal(t, "xyz789", form.Fields[0].Default)
}

func TestStartOptionsEdit_UnknownEntry(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.StartOptionsEdit(context.Background(), "nope", nil)
	require.Error(t, err)
	assert.True(t, rserr.IsNotFound(err))
}

func TestListenersAndAudit(t *testing.T) {
	ctx := flow.WithActor(context.Background(), "cli")
	m, st := newManager(t)

	var events []flow.EventKind
	m.OnEntryUpdated(func(_ context.Context, ev flow.Event) {
		events = append(events, ev.Kind)
	})

	setup, err := m.StartSetup(ctx, token("a"))
	require.NoError(t, err)
	_, err = m.StartSetup(ctx, token("b"))
	require.NoError(t, err)
	_, err = m.StartOptionsEdit(ctx, setup.EntryID, token("c"))
	require.NoError(t, err)
	require.NoError(t, m.RemoveEntry(ctx, setup.EntryID))

	assert.Equal(t, []flow.EventKind{
		flow.EventCreated, flow.EventUpdated, flow.EventUpdated, flow.EventRemoved,
	}, events)

	audit, err := st.AuditLog().Query(ctx, store.AuditFilter{EntryID: setup.EntryID})
	require.NoError(t, err)
	require.Len(t, audit, 4)
	assert.Equal(t, store.AuditActionEntryCreate, audit[0].Action)
	assert.Equal(t, store.AuditActionEntryUpdateData, audit[1].Action)
	assert.Equal(t, store.AuditActionEntryUpdateOptions, audit[2].Action)
	assert.Equal(t, store.AuditActionEntryDelete, audit[3].Action)
	for _, a := range audit {
		assert.Equal(t, "cli", a.Actor)
		for _, v := range a.Details {
			assert.NotContains(t, []any{"a", "b", "c"}, v)
		}
	}

	assert.True(t, rserr.IsNotFound(m.RemoveEntry(ctx, setup.EntryID)))
}

func TestInputFromMap(t *testing.T) {
	in, err := flow.InputFromMap(map[string]any{"access_token": "tok"})
	require.NoError(t, err)
	require.NotNil(t, in.AccessToken)
	assert.Equal(t, "tok", *in.AccessToken)

	_, err = flow.InputFromMap(map[string]any{})
	assert.True(t, rserr.HasCode(err, rserr.CodeFlowInputInvalid))

	_, err = flow.InputFromMap(map[string]any{"access_token": 42.0})
	assert.True(t, rserr.HasCode(err, rserr.CodeFlowInputInvalid))
}

func TestActorDefault(t *testing.T) {
	assert.Equal(t, "system", flow.ActorFrom(context.Background()))
}
