// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ringsense/ringsense/internal/server"
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show gateway and sensor status",
		Long:  "Query a running gateway for its status and the current state of every sensor.",
		RunE:  runStatus,
	}

	cmd.Flags().String("address", defaultAddress, "gateway address to check")

	return cmd
}

type statusBody struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Entities      int     `json:"entities"`
	Available     int     `json:"available"`
	Entries       int     `json:"entries"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	gw := newGatewayClient(addr)
	var status statusBody
	if err := gw.getJSON(ctx, "/api/v1/status", &status); err != nil {
		if rserr.HasCode(err, rserr.CodeCLIGatewayNotRunning) {
			_, _ = fmt.Fprintf(out, "Gateway at %s is not running (connection refused)\n", addr)
			return nil
		}
		_, _ = fmt.Fprintf(out, "Gateway at %s: %s\n", addr, err)
		return nil
	}

	_, _ = fmt.Fprintf(out, "Gateway at %s: %s (version %s, up %.0fs)\n",
		addr, status.Status, status.Version, status.UptimeSeconds)
	_, _ = fmt.Fprintf(out, "Entries: %d  Sensors: %d (%d available)\n\n",
		status.Entries, status.Entities, status.Available)

	var list struct {
		Entities []server.EntityBody `json:"entities"`
	}
	if err := gw.getJSON(ctx, "/api/v1/entities", &list); err != nil {
		return err
	}
	return writeEntityTable(out, list.Entities)
}

func writeEntityTable(w io.Writer, entities []server.EntityBody) error {
	if len(entities) == 0 {
		_, err := fmt.Fprintln(w, "No sensors. Run 'ringsense setup' to add an access token.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tVALUE\tAVAILABLE\tUPDATED")
	for _, e := range entities {
		updated := "-"
		if e.LastUpdated != nil {
			updated = e.LastUpdated.Local().Format("2006-01-02 15:04:05")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", e.ID, e.Name, formatValue(e.Value, e.Stale), e.Available, updated)
	}
	return tw.Flush()
}

func formatValue(v *float64, stale bool) string {
	switch {
	case v != nil:
		return fmt.Sprintf("%g", *v)
	case stale:
		return "unknown (stale)"
	default:
		return "unknown"
	}
}
