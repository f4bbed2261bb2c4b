// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package server_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringsense/ringsense/internal/server"
	"github.com/ringsense/ringsense/internal/store"
)

func TestRoutes_EntitiesEmptyBeforeSetup(t *testing.T) {
	s := newStack(t, server.Config{})

	w := s.do(t, http.MethodGet, "/api/v1/entities", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decodeBody(t, w)["entities"])

	w = s.do(t, http.MethodGet, "/api/v1/entities/oura_ring_sleep", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutes_SetupFlowCreatesEntities(t *testing.T) {
	s := newStack(t, server.Config{})

	w := s.do(t, http.MethodGet, "/api/v1/flows/setup", "")
	require.Equal(t, http.StatusOK, w.Code)
	form := decodeBody(t, w)
	assert.Equal(t, "form", form["type"])
	assert.Equal(t, "user", form["step_id"])

	w = s.do(t, http.MethodPost, "/api/v1/flows/setup", `{"access_token":"abc123"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decodeBody(t, w)
	assert.Equal(t, "create_entry", res["type"])
	assert.Equal(t, "Oura Ring", res["title"])
	assert.NotContains(t, w.Body.String(), "abc123")

	w = s.do(t, http.MethodGet, "/api/v1/entities", "")
	require.Equal(t, http.StatusOK, w.Code)
	entities := decodeBody(t, w)["entities"].([]any)
	require.Len(t, entities, 5)

	w = s.do(t, http.MethodGet, "/api/v1/entities/oura_ring_readiness", "")
	require.Equal(t, http.StatusOK, w.Code)
	e := decodeBody(t, w)
	assert.Equal(t, "Oura Ring Readiness", e["name"])
	assert.Equal(t, true, e["available"])
	assert.Equal(t, 87.0, e["value"])
	assert.NotNil(t, e["health"])
}

func TestRoutes_SetupRejectsMissingToken(t *testing.T) {
	s := newStack(t, server.Config{})

	w := s.do(t, http.MethodPost, "/api/v1/flows/setup", `{"token":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/flows/setup", `{"access_token":""}`)
	assert.Equal(t, http.StatusOK, w.Code, "empty tokens are accepted")
}

func TestRoutes_OptionsFlow(t *testing.T) {
	s := newStack(t, server.Config{})
	id := setupEntry(t, s, "abc123")

	w := s.do(t, http.MethodGet, "/api/v1/entries/"+id+"/options", "")
	require.Equal(t, http.StatusOK, w.Code)
	form := decodeBody(t, w)
	assert.Equal(t, "init", form["step_id"])
	fields := form["fields"].([]any)
	require.Len(t, fields, 1)
	assert.NotContains(t, fields[0].(map[string]any), "default")
	assert.NotContains(t, w.Body.String(), "abc123")

	w = s.do(t, http.MethodPost, "/api/v1/entries/"+id+"/options", `{"access_token":"xyz"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "", decodeBody(t, w)["title"])

	w = s.do(t, http.MethodGet, "/api/v1/entries", "")
	require.Equal(t, http.StatusOK, w.Code)
	entries := decodeBody(t, w)["entries"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, true, entries[0].(map[string]any)["has_options"])
	assert.NotContains(t, w.Body.String(), "xyz")

	w = s.do(t, http.MethodGet, "/api/v1/entries/missing/options", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutes_OptionsFormPrefillRequiresAuth(t *testing.T) {
	s := newStack(t, server.Config{Tokens: []string{"api-key"}})
	id := setupEntry(t, s, "abc123")

	w := s.do(t, http.MethodGet, "/api/v1/entries/"+id+"/options", "", "Authorization", "Bearer api-key")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fields := decodeBody(t, w)["fields"].([]any)
	require.Len(t, fields, 1)
	assert.Equal(t, "abc123", fields[0].(map[string]any)["default"])
}

func TestRoutes_UpdateEntity(t *testing.T) {
	s := newStack(t, server.Config{})
	setupEntry(t, s, "abc123")

	before, err := s.platform.Get("oura_ring_sleep")
	require.NoError(t, err)
	polls := before.State().LastUpdated

	w := s.do(t, http.MethodPost, "/api/v1/entities/oura_ring_sleep/update", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 87.0, decodeBody(t, w)["value"])

	after, err := s.platform.Get("oura_ring_sleep")
	require.NoError(t, err)
	assert.False(t, after.State().LastUpdated.Before(polls))

	w = s.do(t, http.MethodPost, "/api/v1/entities/nope/update", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutes_DeleteEntryRemovesEntities(t *testing.T) {
	s := newStack(t, server.Config{})
	id := setupEntry(t, s, "abc123")
	require.Len(t, s.platform.Entities(), 5)

	w := s.do(t, http.MethodDelete, "/api/v1/entries/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.Empty(t, s.platform.Entities())

	w = s.do(t, http.MethodDelete, "/api/v1/entries/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutes_Status(t *testing.T) {
	s := newStack(t, server.Config{Version: "0.3.0"})
	setupEntry(t, s, "abc123")

	w := s.do(t, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "0.3.0", body["version"])
	assert.Equal(t, 5.0, body["entities"])
	assert.Equal(t, 5.0, body["available"])
	assert.Equal(t, 1.0, body["entries"])
}

type failingEntries struct{}

func (failingEntries) List(context.Context, store.ListOpts) ([]*store.ConfigEntry, error) {
	return nil, context.DeadlineExceeded
}

func TestRoutes_InternalErrorsAreOpaque(t *testing.T) {
	s := newStack(t, server.Config{})
	svc, err := server.NewServices(s.platform, s.flows, failingEntries{})
	require.NoError(t, err)
	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"}, svc)
	require.NoError(t, err)
	s.srv = srv

	w := s.do(t, http.MethodGet, "/api/v1/entries", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "deadline")
}
