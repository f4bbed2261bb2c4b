// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/ringsense/ringsense/internal/flow"
	"github.com/ringsense/ringsense/internal/secrets"
	"github.com/ringsense/ringsense/internal/store"
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

// flowBackend runs credential flow steps either against a running gateway
// or directly against the local store.
type flowBackend interface {
	Setup(ctx context.Context, token string) (*flow.Result, error)
	OptionsForm(ctx context.Context, entryID string) (*flow.Result, error)
	Options(ctx context.Context, entryID, token string) (*flow.Result, error)
	FindEntry(ctx context.Context) (string, error)
	Close() error
}

func newSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Store the Oura personal access token",
		Long: "Create the Oura Ring config entry, or overwrite the token of the existing one. " +
			"Prompts for the token when --token is not given. The token is not validated.",
		Args: cobra.NoArgs,
		RunE: runSetup,
	}
	addFlowFlags(cmd)
	return cmd
}

func newOptionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options [entry-id]",
		Short: "Change the access token of the existing entry",
		Long: "Write a replacement access token to the options of the Oura Ring entry. " +
			"The options token takes precedence over the one given at setup.",
		Args: cobra.MaximumNArgs(1),
		RunE: runOptions,
	}
	addFlowFlags(cmd)
	return cmd
}

func addFlowFlags(cmd *cobra.Command) {
	cmd.Flags().String("token", "", "access token, or a keyring://service/key reference")
	cmd.Flags().String("address", defaultAddress, "gateway address; the local store is used when it is not running")
	cmd.Flags().Bool("local", false, "write to the local store without contacting the gateway")
}

func runSetup(cmd *cobra.Command, _ []string) error {
	ctx := flow.WithActor(cmd.Context(), "cli")
	backend, err := openFlowBackend(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	token, err := tokenFromFlagsOrPrompt(cmd, "Oura Ring setup", "Personal access token", "")
	if err != nil {
		return err
	}

	res, err := backend.Setup(ctx, token)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved %q (entry %s)\n", res.Title, res.EntryID)
	return err
}

func runOptions(cmd *cobra.Command, args []string) error {
	ctx := flow.WithActor(cmd.Context(), "cli")
	backend, err := openFlowBackend(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	var entryID string
	if len(args) == 1 {
		entryID = args[0]
	} else if entryID, err = backend.FindEntry(ctx); err != nil {
		return err
	}

	form, err := backend.OptionsForm(ctx, entryID)
	if err != nil {
		return err
	}
	var current string
	if len(form.Fields) > 0 {
		current = form.Fields[0].Default
	}

	token, err := tokenFromFlagsOrPrompt(cmd, "Oura Ring options", "Access token", current)
	if err != nil {
		return err
	}

	res, err := backend.Options(ctx, entryID, token)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated options of entry %s\n", res.EntryID)
	return err
}

// tokenFromFlagsOrPrompt returns --token when it was given, resolving
// keyring references, and prompts otherwise.
func tokenFromFlagsOrPrompt(cmd *cobra.Command, title, label, initial string) (string, error) {
	if cmd.Flags().Changed("token") {
		raw, _ := cmd.Flags().GetString("token")
		return secrets.Resolve(secretStoreFactory(), raw)
	}
	return promptSecret(cmd.InOrStdin(), cmd.OutOrStdout(), title, label, initial)
}

// openFlowBackend prefers a running gateway so its sensors reload at once,
// and falls back to the local store when nothing is listening.
func openFlowBackend(ctx context.Context, cmd *cobra.Command) (flowBackend, error) {
	if local, _ := cmd.Flags().GetBool("local"); !local {
		addr, _ := cmd.Flags().GetString("address")
		gw := newGatewayClient(addr)
		var status statusBody
		err := gw.getJSON(ctx, "/api/v1/status", &status)
		if err == nil {
			return &remoteFlows{gw: gw}, nil
		}
		if !rserr.HasCode(err, rserr.CodeCLIGatewayNotRunning) {
			return nil, err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := openStore(cfg, resolveDataDir())
	if err != nil {
		return nil, err
	}
	return &localFlows{st: st, mgr: flow.NewManager(st)}, nil
}

// --- local store ---

type localFlows struct {
	st  store.Store
	mgr *flow.Manager
}

func (l *localFlows) Setup(ctx context.Context, token string) (*flow.Result, error) {
	return l.mgr.StartSetup(ctx, &flow.Input{AccessToken: &token})
}

func (l *localFlows) OptionsForm(ctx context.Context, entryID string) (*flow.Result, error) {
	return l.mgr.StartOptionsEdit(ctx, entryID, nil)
}

func (l *localFlows) Options(ctx context.Context, entryID, token string) (*flow.Result, error) {
	return l.mgr.StartOptionsEdit(ctx, entryID, &flow.Input{AccessToken: &token})
}

func (l *localFlows) FindEntry(ctx context.Context) (string, error) {
	entry, err := l.st.Entries().GetByDomain(ctx, flow.Domain)
	if err != nil {
		if rserr.IsNotFound(err) {
			return "", rserr.New(rserr.CodeCLIInputInvalid, "no Oura Ring entry, run 'ringsense setup' first")
		}
		return "", err
	}
	return entry.ID, nil
}

func (l *localFlows) Close() error { return l.st.Close() }

// --- running gateway ---

type remoteFlows struct {
	gw *gatewayClient
}

func (r *remoteFlows) Setup(ctx context.Context, token string) (*flow.Result, error) {
	var res flow.Result
	body := map[string]string{flow.FieldAccessToken: token}
	if err := r.gw.postJSON(ctx, "/api/v1/flows/setup", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *remoteFlows) OptionsForm(ctx context.Context, entryID string) (*flow.Result, error) {
	var res flow.Result
	if err := r.gw.getJSON(ctx, optionsPath(entryID), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *remoteFlows) Options(ctx context.Context, entryID, token string) (*flow.Result, error) {
	var res flow.Result
	body := map[string]string{flow.FieldAccessToken: token}
	if err := r.gw.postJSON(ctx, optionsPath(entryID), body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *remoteFlows) FindEntry(ctx context.Context) (string, error) {
	var list struct {
		Entries []struct {
			ID     string `json:"id"`
			Domain string `json:"domain"`
		} `json:"entries"`
	}
	if err := r.gw.getJSON(ctx, "/api/v1/entries", &list); err != nil {
		return "", err
	}
	for _, e := range list.Entries {
		if e.Domain == flow.Domain {
			return e.ID, nil
		}
	}
	return "", rserr.New(rserr.CodeCLIInputInvalid, "no Oura Ring entry, run 'ringsense setup' first")
}

func (r *remoteFlows) Close() error { return nil }

func optionsPath(entryID string) string {
	return "/api/v1/entries/" + url.PathEscape(entryID) + "/options"
}
