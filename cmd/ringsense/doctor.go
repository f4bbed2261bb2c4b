// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sys/unix"

	"github.com/ringsense/ringsense/internal/flow"
	"github.com/ringsense/ringsense/internal/secrets"
	"github.com/ringsense/ringsense/internal/store/sqlite"
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostics",
		Long:  "Check the binary, config file, keyring, database, gateway and free disk space.",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}

	cmd.Flags().String("address", defaultAddress, "gateway address to check")

	return cmd
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	ctx := cmd.Context()
	addr, _ := cmd.Flags().GetString("address")
	dataDir := resolveDataDir()

	checks := []struct {
		name string
		fn   func() string
	}{
		{"Binary", checkBinary},
		{"Platform", checkPlatform},
		{"Config", checkConfig},
		{"Keyring", checkKeyring},
		{"Database", func() string { return checkDatabase(ctx, dataDir) }},
		{"Gateway", func() string { return checkGateway(ctx, addr) }},
		{"Disk Space", func() string { return checkDiskSpace(dataDir) }},
	}

	for _, c := range checks {
		if _, err := fmt.Fprintf(w, "%-20s %s\n", c.name+":", c.fn()); err != nil {
			return err
		}
	}

	return nil
}

func checkBinary() string {
	return fmt.Sprintf("ringsense %s (%s/%s)", version, runtime.GOOS, runtime.GOARCH)
}

func checkPlatform() string {
	return fmt.Sprintf("%s/%s, Go %s", runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func checkConfig() string {
	cfgFile := viper.ConfigFileUsed()
	if _, err := loadConfig(); err != nil {
		return fmt.Sprintf("invalid: %s", err)
	}
	if cfgFile != "" {
		return fmt.Sprintf("loaded from %s", cfgFile)
	}
	return "using defaults (no config file found)"
}

func checkKeyring() string {
	keys, err := secretStoreFactory().Keys(secrets.Service)
	if err != nil {
		return fmt.Sprintf("unavailable: %s", err)
	}
	return fmt.Sprintf("%d secret(s) under %q", len(keys), secrets.Service)
}

func checkDatabase(ctx context.Context, dataDir string) string {
	path := filepath.Join(dataDir, sqlite.DBFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Sprintf("not created yet (%s)", path)
	}

	cfg, err := loadConfig()
	if err != nil {
		return "skipped: config is invalid"
	}
	st, err := openStore(cfg, dataDir)
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	defer func() { _ = st.Close() }()

	entry, err := st.Entries().GetByDomain(ctx, flow.Domain)
	switch {
	case rserr.IsNotFound(err):
		return fmt.Sprintf("%s, no Oura Ring entry (run 'ringsense setup')", path)
	case err != nil:
		return fmt.Sprintf("error: %s", err)
	case flow.CurrentToken(entry) == "":
		return fmt.Sprintf("%s, entry %s has an empty access token", path, entry.ID)
	}
	return fmt.Sprintf("%s, entry %s configured", path, entry.ID)
}

func checkGateway(ctx context.Context, addr string) string {
	gw := newGatewayClient(addr)
	var body statusBody
	if err := gw.getJSON(ctx, "/api/v1/status", &body); err != nil {
		if rserr.HasCode(err, rserr.CodeCLIGatewayNotRunning) {
			return fmt.Sprintf("not running at %s (run 'ringsense start')", addr)
		}
		return fmt.Sprintf("error: %s", err)
	}
	return fmt.Sprintf("%s at %s, %d/%d sensors available", body.Status, addr, body.Available, body.Entities)
}

func checkDiskSpace(dataDir string) string {
	path := dataDir
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Fall back to home directory if data dir doesn't exist yet.
		path, _ = os.UserHomeDir()
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return fmt.Sprintf("unable to check: %s", err)
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)
	return formatBytes(availBytes) + " available"
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(b uint64) string {
	const (
		gb = 1024 * 1024 * 1024
		mb = 1024 * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	default:
		return fmt.Sprintf("%d bytes", b)
	}
}
