// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ringsense/ringsense/internal/flow"
	"github.com/ringsense/ringsense/internal/integration"
	"github.com/ringsense/ringsense/internal/oura"
	"github.com/ringsense/ringsense/internal/server"
	"github.com/ringsense/ringsense/internal/store/sqlite"
)

// stack is a fully wired server backed by a temp database and a fake Oura
// API that always returns a score of 87.
type stack struct {
	srv      *server.Server
	flows    *flow.Manager
	platform *integration.Platform
}

func newStack(t *testing.T, cfg server.Config) *stack {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"score":87}]}`))
	}))
	t.Cleanup(upstream.Close)

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	platform := integration.NewPlatform(integration.New(oura.NewClient(oura.WithBaseURL(upstream.URL))), nil)
	flows := flow.NewManager(st)
	flows.OnEntryUpdated(platform.HandleEntryEvent)

	svc, err := server.NewServices(platform, flows, st.Entries())
	require.NoError(t, err)

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:0"
	}
	srv, err := server.New(cfg, svc)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	return &stack{srv: srv, flows: flows, platform: platform}
}

// do sends a request through the handler and returns the recorder.
func (s *stack) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func setupEntry(t *testing.T, s *stack, token string) string {
	t.Helper()
	res, err := s.flows.StartSetup(context.Background(), &flow.Input{AccessToken: &token})
	require.NoError(t, err)
	return res.EntryID
}
