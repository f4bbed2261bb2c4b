// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/ringsense/ringsense/internal/config"
	"github.com/ringsense/ringsense/internal/store"
)

func init() {
	keyring.MockInit()
}

// executeCmd runs the root command with args against a fresh global viper
// and a throwaway home directory, returning combined output.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())

	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

// fakeOura serves a fixed score on every collection path and records the
// bearer tokens it saw.
type fakeOura struct {
	srv    *httptest.Server
	status int

	mu     sync.Mutex
	tokens []string
	paths  []string
}

func newFakeOura(t *testing.T) *fakeOura {
	t.Helper()
	f := &fakeOura{status: http.StatusOK}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.tokens = append(f.tokens, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		f.paths = append(f.paths, r.URL.Path)
		status := f.status
		f.mu.Unlock()

		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(`{"data":[{"score":87,"day":"2026-10-18"}],"next_token":null}`))
		}
	}))
	t.Cleanup(f.srv.Close)
	t.Setenv("RINGSENSE_OURA_BASE_URL", f.srv.URL)
	return f
}

func (f *fakeOura) setStatus(code int) {
	f.mu.Lock()
	f.status = code
	f.mu.Unlock()
}

func (f *fakeOura) seenTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tokens...)
}

// hostPort strips the scheme from an httptest URL.
func hostPort(srv *httptest.Server) string {
	return strings.TrimPrefix(srv.URL, "http://")
}

// testConfig returns a valid config pointing at baseURL.
func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Networking: config.NetworkingConfig{Listen: "127.0.0.1:0"},
		Storage:    config.StorageConfig{Backend: "sqlite"},
		Polling:    config.PollingConfig{Interval: time.Hour, Timeout: 5 * time.Second},
		Oura:       config.OuraConfig{BaseURL: baseURL},
		Logging:    config.LoggingConfig{Level: "info", Format: "text"},
	}
}

// readEntry opens the store in dataDir and returns the Oura Ring entry.
func readEntry(t *testing.T, dataDir string) *store.ConfigEntry {
	t.Helper()
	st, err := openStore(testConfig("https://api.ouraring.com"), dataDir)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	entries, err := st.Entries().List(context.Background(), store.ListOpts{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	return entries[0]
}

func (f *fakeOura) seenPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}
