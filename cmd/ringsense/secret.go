// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ringsense/ringsense/internal/secrets"
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

// secretStoreFactory creates a secrets.Store. It is a package-level variable
// so tests can substitute a mock implementation.
var secretStoreFactory = func() secrets.Store {
	return secrets.Keyring{}
}

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage secrets stored in the OS keyring",
		Long: "Store, list and delete secrets under the ringsense keyring service. " +
			"Reference a stored secret from the config as keyring://ringsense/<name>.",
	}

	cmd.AddCommand(
		newSecretSetCmd(),
		newSecretListCmd(),
		newSecretDeleteCmd(),
	)

	return cmd
}

func newSecretSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set [name]",
		Short: "Store a secret, prompting for its value",
		Long:  "Store a secret under name (default " + secrets.TokenKey + ") and print the config reference for it.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSecretSet,
	}
	cmd.Flags().String("value", "", "secret value; prompts when omitted")
	return cmd
}

func newSecretListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stored secret names",
		Args:  cobra.NoArgs,
		RunE:  runSecretList,
	}
}

func newSecretDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a secret by name",
		Args:  cobra.ExactArgs(1),
		RunE:  runSecretDelete,
	}
}

func runSecretSet(cmd *cobra.Command, args []string) error {
	name := secrets.TokenKey
	if len(args) == 1 {
		name = args[0]
	}

	value, _ := cmd.Flags().GetString("value")
	if !cmd.Flags().Changed("value") {
		var err error
		value, err = promptSecret(cmd.InOrStdin(), cmd.OutOrStdout(), "Store secret", name, "")
		if err != nil {
			return err
		}
	}
	if value == "" {
		return rserr.New(rserr.CodeSecretInvalidInput, "secret value must not be empty")
	}

	if err := secretStoreFactory().Set(secrets.Service, name, value); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stored secret: %s\nReference it as %s\n",
		name, secrets.Reference(secrets.Service, name))
	return nil
}

func runSecretList(cmd *cobra.Command, _ []string) error {
	keys, err := secretStoreFactory().Keys(secrets.Service)
	if err != nil {
		return rserr.Wrap(err, rserr.CodeSecretListFailure, "listing secrets")
	}

	out := cmd.OutOrStdout()
	if len(keys) == 0 {
		_, _ = fmt.Fprintln(out, "No secrets stored.")
		return nil
	}

	for _, k := range keys {
		_, _ = fmt.Fprintln(out, k)
	}
	return nil
}

func runSecretDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	if err := secretStoreFactory().Delete(secrets.Service, name); err != nil {
		if rserr.HasCode(err, rserr.CodeSecretNotFound) {
			return rserr.Errorf(rserr.CodeSecretNotFound, "secret %q not found", name)
		}
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted secret: %s\n", name)
	return nil
}
