// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringsense/ringsense/internal/secrets"
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

func TestRootCommand_AllSubcommands(t *testing.T) {
	out, err := executeCmd(t, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"start", "setup", "options", "poll", "status", "secret", "doctor", "version"} {
		assert.Contains(t, out, sub, "missing subcommand %q", sub)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCmd(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ringsense dev")
	assert.Contains(t, out, "commit: unknown")
}

func TestInitViper_MissingConfigFile(t *testing.T) {
	_, err := executeCmd(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "version")
	require.Error(t, err)
	assert.True(t, rserr.HasCode(err, rserr.CodeConfigLoadReadFailure), "got %s", rserr.CodeOf(err))
}

func TestInitViper_BootstrapsDefaultConfig(t *testing.T) {
	_, err := executeCmd(t, "version")
	require.NoError(t, err)

	home := os.Getenv("HOME")
	path := filepath.Join(home, ".config", "ringsense", "ringsense.yaml")
	assert.FileExists(t, path)
	assert.Equal(t, path, viper.ConfigFileUsed())
	assert.Equal(t, "127.0.0.1:8787", viper.GetString("networking.listen"))
}

func TestInitViper_ExplicitFileAndEnvOverride(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "ringsense.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("polling:\n  interval: 5m\nlogging:\n  level: debug\n"), 0o600))
	t.Setenv("RINGSENSE_POLLING_TIMEOUT", "3s")

	_, err := executeCmd(t, "--config", cfgPath, "version")
	require.NoError(t, err)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "5m0s", cfg.Polling.Interval.String())
	assert.Equal(t, "3s", cfg.Polling.Timeout.String())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestInitViper_ResolvesKeyringReferences(t *testing.T) {
	require.NoError(t, secrets.Keyring{}.Set(secrets.Service, secrets.TokenKey, "from-keyring"))
	t.Cleanup(func() { _ = secrets.Keyring{}.Delete(secrets.Service, secrets.TokenKey) })

	cfgPath := filepath.Join(t.TempDir(), "ringsense.yaml")
	body := "oura:\n  access_token: \"" + secrets.Reference(secrets.Service, secrets.TokenKey) + "\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o600))

	_, err := executeCmd(t, "--config", cfgPath, "version")
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", viper.GetString("oura.access_token"))
}

func TestResolveDataDir(t *testing.T) {
	dir := t.TempDir()
	_, err := executeCmd(t, "--data-dir", dir, "version")
	require.NoError(t, err)
	assert.Equal(t, dir, resolveDataDir())

	viper.Reset()
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), ".local", "share", "ringsense"), resolveDataDir())
}
