// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/ringsense/ringsense/internal/config"
	"github.com/ringsense/ringsense/internal/flow"
	"github.com/ringsense/ringsense/internal/integration"
	"github.com/ringsense/ringsense/internal/metrics"
	"github.com/ringsense/ringsense/internal/oura"
	"github.com/ringsense/ringsense/internal/poller"
	"github.com/ringsense/ringsense/internal/scheduler"
	"github.com/ringsense/ringsense/internal/server"
	"github.com/ringsense/ringsense/internal/store"
	_ "github.com/ringsense/ringsense/internal/store/sqlite" // register sqlite backend
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

// Gateway holds all wired subsystems and manages their lifecycle.
type Gateway struct {
	Server    *server.Server
	Store     store.Store
	Flows     *flow.Manager
	Platform  *integration.Platform
	Scheduler *scheduler.Scheduler
	Metrics   *metrics.Collector

	seedToken string
}

// openStore makes sure dataDir exists and opens the configured backend in it.
func openStore(cfg *config.Config, dataDir string) (store.Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, rserr.Wrapf(err, rserr.CodeCLISetupFailure, "creating data directory %s", dataDir)
	}
	st, err := store.New(&store.StorageConfig{Backend: cfg.Storage.Backend}, dataDir)
	if err != nil {
		return nil, rserr.Wrap(err, rserr.CodeCLISetupFailure, "opening store")
	}
	return st, nil
}

// newOuraClient builds the API client described by cfg.
func newOuraClient(cfg *config.Config) *oura.Client {
	return oura.NewClient(
		oura.WithBaseURL(cfg.Oura.BaseURL),
		oura.WithTimeout(cfg.Polling.Timeout),
	)
}

// WireGateway creates all subsystems and wires them together. Nothing is
// polled until Start.
func WireGateway(cfg *config.Config, dataDir string) (*Gateway, error) {
	logger := slog.Default()

	st, err := openStore(cfg, dataDir)
	if err != nil {
		return nil, err
	}

	collector := metrics.New()
	in := integration.New(newOuraClient(cfg),
		poller.WithObserver(collector),
		poller.WithLogger(logger),
	)
	platform := integration.NewPlatform(in, logger)

	sched, err := scheduler.New(
		scheduler.WithInterval(cfg.Polling.Interval),
		scheduler.WithTimeout(cfg.Polling.Timeout),
		scheduler.WithLogger(logger),
	)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	platform.AddHook(sched)
	cleanup := func() {
		_ = sched.Shutdown()
		_ = st.Close()
	}

	flows := flow.NewManager(st, flow.WithLogger(logger))
	flows.OnEntryUpdated(platform.HandleEntryEvent)

	if len(cfg.Auth.Tokens) == 0 {
		slog.Warn("authentication disabled: no API tokens configured, all endpoints are unauthenticated")
	}

	services, err := server.NewServices(platform, flows, st.Entries())
	if err != nil {
		cleanup()
		return nil, rserr.Wrap(err, rserr.CodeCLISetupFailure, "creating services")
	}
	srv, err := server.New(server.Config{
		ListenAddr:  cfg.Networking.Listen,
		CORSOrigins: cfg.Networking.CORSOrigins,
		Tokens:      cfg.Auth.Tokens,
		Metrics:     collector.Handler(),
		Version:     version,
	}, services)
	if err != nil {
		cleanup()
		return nil, rserr.Wrap(err, rserr.CodeCLISetupFailure, "creating server")
	}

	return &Gateway{
		Server:    srv,
		Store:     st,
		Flows:     flows,
		Platform:  platform,
		Scheduler: sched,
		Metrics:   collector,
		seedToken: cfg.Oura.AccessToken,
	}, nil
}

// Load sets up every stored entry. When there is none and a token was
// configured, the entry is created from it as if the setup form had been
// submitted.
func (gw *Gateway) Load(ctx context.Context) error {
	entries, err := gw.Store.Entries().List(ctx, store.ListOpts{})
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		if gw.seedToken == "" {
			slog.Info("no Oura Ring entry yet, run 'ringsense setup' or set oura.access_token")
			return nil
		}
		token := gw.seedToken
		_, err := gw.Flows.StartSetup(flow.WithActor(ctx, "config"), &flow.Input{AccessToken: &token})
		return err
	}

	for _, entry := range entries {
		if entry.Domain != flow.Domain {
			continue
		}
		if err := gw.Platform.Load(ctx, entry); err != nil {
			slog.Error("setting up entry failed", "entry_id", entry.ID, "error", err)
		}
	}
	return nil
}

// Start loads entries, starts polling and serves HTTP until ctx is
// cancelled.
func (gw *Gateway) Start(ctx context.Context) error {
	if err := gw.Load(ctx); err != nil {
		return err
	}
	gw.Scheduler.Start()
	return gw.Server.Start(ctx)
}

// Close releases all resources held by the gateway.
func (gw *Gateway) Close() error {
	var errs []error
	if gw.Scheduler != nil {
		errs = append(errs, gw.Scheduler.Shutdown())
	}
	if gw.Server != nil {
		errs = append(errs, gw.Server.Close())
	}
	if gw.Store != nil {
		errs = append(errs, gw.Store.Close())
	}
	return errors.Join(errs...)
}
