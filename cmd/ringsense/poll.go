// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ringsense/ringsense/internal/config"
	"github.com/ringsense/ringsense/internal/flow"
	"github.com/ringsense/ringsense/internal/oura"
	"github.com/ringsense/ringsense/internal/poller"
	"github.com/ringsense/ringsense/internal/secrets"
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

func newPollCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Fetch every score once and print it",
		Long: "Run one update of each metric poller and print the resulting state. " +
			"The token comes from --token, then oura.access_token, then the stored entry.",
		Args: cobra.NoArgs,
		RunE: runPoll,
	}

	cmd.Flags().String("token", "", "access token, or a keyring://service/key reference")
	cmd.Flags().StringSlice("category", nil, "limit to these categories (sleep, activity, readiness, stress, sleep_time)")

	return cmd
}

func runPoll(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cats, err := pollCategories(cmd)
	if err != nil {
		return err
	}
	token, err := pollToken(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	client := newOuraClient(cfg)
	pollers := make([]*poller.Poller, 0, len(cats))
	for _, c := range cats {
		p, err := poller.New(c, token, client)
		if err != nil {
			return err
		}
		if err := p.Update(ctx); err != nil {
			return err
		}
		pollers = append(pollers, p)
	}

	return writePollTable(cmd.OutOrStdout(), pollers)
}

func pollCategories(cmd *cobra.Command) ([]oura.Category, error) {
	names, _ := cmd.Flags().GetStringSlice("category")
	if len(names) == 0 {
		return oura.Categories(), nil
	}
	cats := make([]oura.Category, 0, len(names))
	for _, n := range names {
		c, err := oura.ParseCategory(n)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, nil
}

// pollToken picks the token the way the gateway would: --token first, then
// the stored entry, then oura.access_token from config.
func pollToken(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (string, error) {
	if cmd.Flags().Changed("token") {
		raw, _ := cmd.Flags().GetString("token")
		return secrets.Resolve(secretStoreFactory(), raw)
	}

	st, err := openStore(cfg, resolveDataDir())
	if err != nil {
		return "", err
	}
	defer func() { _ = st.Close() }()

	entry, err := st.Entries().GetByDomain(ctx, flow.Domain)
	switch {
	case err == nil:
		return flow.CurrentToken(entry), nil
	case !rserr.IsNotFound(err):
		return "", err
	case cfg.Oura.AccessToken != "":
		return cfg.Oura.AccessToken, nil
	}
	return "", rserr.New(rserr.CodeCLIInputInvalid,
		"no access token: pass --token, run 'ringsense setup' or set oura.access_token")
}

func writePollTable(w io.Writer, pollers []*poller.Poller) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "CATEGORY\tVALUE\tAVAILABLE\tERROR")
	for _, p := range pollers {
		st := p.State()
		errText := "-"
		if st.LastError != "" {
			errText = st.LastError
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", p.Category(), formatValue(st.Value, st.Stale), st.Available, errText)
	}
	return tw.Flush()
}
