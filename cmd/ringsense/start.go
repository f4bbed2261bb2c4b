// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start polling and serve the REST API",
		Long:  "Load configuration, set up the stored Oura Ring entry, poll every category on the configured interval and serve the REST API and /metrics.",
		Args:  cobra.NoArgs,
		RunE:  runStart,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	_ = viper.BindPFlag("networking.listen", cmd.Flags().Lookup("listen"))
	cmd.Flags().Duration("interval", 0, "override polling interval")
	_ = viper.BindPFlag("polling.interval", cmd.Flags().Lookup("interval"))

	return cmd
}

func runStart(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dataDir := resolveDataDir()

	gw, err := WireGateway(cfg, dataDir)
	if err != nil {
		return err
	}
	defer func() { _ = gw.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Starting ringsense on %s (data dir %s, polling every %s)\n",
		cfg.Networking.Listen, dataDir, cfg.Polling.Interval)

	return gw.Start(ctx)
}
