// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ringsense/ringsense/internal/config"
	"github.com/ringsense/ringsense/internal/secrets"
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

// NewRootCmd creates the root ringsense command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ringsense",
		Short:         "Oura Ring scores as polled sensors",
		Long:          "ringsense polls the Oura cloud API for daily sleep, activity, readiness, stress and sleep-time scores and serves them over REST and Prometheus.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initViper(cmd)
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("data-dir", "", "path to data directory")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newStartCmd(),
		newSetupCmd(),
		newOptionsCmd(),
		newPollCmd(),
		newStatusCmd(),
		newSecretCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)

	return root
}

// initViper layers defaults, config file, RINGSENSE_* env and flags onto
// the global viper, then resolves keyring:// references and installs the
// configured slog handler.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return rserr.Wrapf(err, rserr.CodeConfigLoadReadFailure, "reading config file")
		}
	} else {
		// SetConfigType is left unset so viper never tries the bare name,
		// which would collide with a ./ringsense binary.
		v.SetConfigName("ringsense")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/ringsense")
		v.AddConfigPath("/etc/ringsense")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return rserr.Wrapf(err, rserr.CodeConfigLoadReadFailure, "reading config")
			}
			if path := config.BootstrapConfig(); path != "" {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return rserr.Wrapf(err, rserr.CodeConfigLoadReadFailure, "reading bootstrapped config")
				}
			}
		}
	}

	if used := v.ConfigFileUsed(); used != "" {
		config.WarnInsecurePermissions(used)
	}

	if err := v.BindPFlag("data_dir", cmd.Root().PersistentFlags().Lookup("data-dir")); err != nil {
		return rserr.Wrapf(err, rserr.CodeCLISetupFailure, "binding data-dir flag")
	}
	if err := v.BindPFlag("verbose", cmd.Root().PersistentFlags().Lookup("verbose")); err != nil {
		return rserr.Wrapf(err, rserr.CodeCLISetupFailure, "binding verbose flag")
	}

	secrets.ResolveViper(v, secretStoreFactory())

	logCfg := config.LoggingConfig{
		Level:  v.GetString("logging.level"),
		Format: v.GetString("logging.format"),
	}
	slog.SetDefault(logCfg.NewLogger(os.Stderr, v.GetBool("verbose")))

	return nil
}

// loadConfig decodes and validates the global viper state.
func loadConfig() (*config.Config, error) {
	return config.FromViper(viper.GetViper())
}

// resolveDataDir returns the data directory from viper or the default.
func resolveDataDir() string {
	if dir := viper.GetString("data_dir"); dir != "" {
		return dir
	}
	return config.DefaultDataDir()
}
