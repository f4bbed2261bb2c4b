// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringsense/ringsense/internal/store"
	"github.com/ringsense/ringsense/internal/store/sqlite"
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

func newEntry(id string) *store.ConfigEntry {
	return &store.ConfigEntry{
		ID:        id,
		Domain:    "oura_ring",
		Title:     "Oura Ring",
		Data:      map[string]string{"access_token": "tok"},
		CreatedAt: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestEntryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	entries := openStore(t).Entries()

	require.NoError(t, entries.Create(ctx, newEntry("e1")))

	got, err := entries.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "oura_ring", got.Domain)
	assert.Equal(t, "Oura Ring", got.Title)
	assert.Equal(t, map[string]string{"access_token": "tok"}, got.Data)
	assert.Empty(t, got.Options)
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)

	byDomain, err := entries.GetByDomain(ctx, "oura_ring")
	require.NoError(t, err)
	assert.Equal(t, "e1", byDomain.ID)
}

func TestEntryStore_OneEntryPerDomain(t *testing.T) {
	ctx := context.Background()
	entries := openStore(t).Entries()

	require.NoError(t, entries.Create(ctx, newEntry("e1")))
	err := entries.Create(ctx, newEntry("e2"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrConflict))
	assert.True(t, rserr.IsConflict(err))
}

func TestEntryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	entries := openStore(t).Entries()

	_, err := entries.Get(ctx, "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))
	assert.True(t, rserr.IsNotFound(err))

	_, err = entries.GetByDomain(ctx, "oura_ring")
	assert.True(t, rserr.IsNotFound(err))

	assert.True(t, rserr.IsNotFound(entries.UpdateOptions(ctx, "missing", nil)))
	assert.True(t, rserr.IsNotFound(entries.Delete(ctx, "missing")))
}

func TestEntryStore_Updates(t *testing.T) {
	ctx := context.Background()
	entries := openStore(t).Entries()
	require.NoError(t, entries.Create(ctx, newEntry("e1")))

	require.NoError(t, entries.UpdateData(ctx, "e1", "Oura Ring", map[string]string{"access_token": "new"}))
	require.NoError(t, entries.UpdateOptions(ctx, "e1", map[string]string{"access_token": "opt"}))

	got, err := entries.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Data["access_token"])
	assert.Equal(t, "opt", got.Options["access_token"])
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestEntryStore_ReplaceDataClearsOptions(t *testing.T) {
	ctx := context.Background()
	entries := openStore(t).Entries()
	require.NoError(t, entries.Create(ctx, newEntry("e1")))
	require.NoError(t, entries.UpdateOptions(ctx, "e1", map[string]string{"access_token": "opt"}))

	require.NoError(t, entries.ReplaceData(ctx, "e1", "Oura Ring", map[string]string{"access_token": "fresh"}))

	got, err := entries.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"access_token": "fresh"}, got.Data)
	assert.Empty(t, got.Options)

	assert.True(t, rserr.IsNotFound(entries.ReplaceData(ctx, "missing", "Oura Ring", nil)))
}

func TestEntryStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	entries := openStore(t).Entries()

	first := newEntry("e1")
	second := newEntry("e2")
	second.Domain = "other"
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	require.NoError(t, entries.Create(ctx, second))
	require.NoError(t, entries.Create(ctx, first))

	list, err := entries.List(ctx, store.ListOpts{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "e1", list[0].ID)

	require.NoError(t, entries.Delete(ctx, "e1"))
	list, err = entries.List(ctx, store.ListOpts{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "e2", list[0].ID)
}

func TestEntryStore_CreateValidates(t *testing.T) {
	err := openStore(t).Entries().Create(context.Background(), &store.ConfigEntry{ID: "x"})
	assert.True(t, rserr.IsInvalidInput(err))
}

func TestNewStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := testDBPath(t, "persist")

	s, err := sqlite.NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Entries().Create(ctx, newEntry("e1")))
	require.NoError(t, s.Close())

	s, err = sqlite.NewStore(path)
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	got, err := s.Entries().Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Data["access_token"])
}

func TestNewStore_OpenFailureIsCoded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-dir", "ringsense.db")

	_, err := sqlite.NewStore(path)
	require.Error(t, err)
	assert.True(t, rserr.HasCode(err, rserr.CodeStoreDatabaseFailure), "got %s", rserr.CodeOf(err))
}
