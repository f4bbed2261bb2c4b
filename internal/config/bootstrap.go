// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package config

import (
	_ "embed"
	"log/slog"
	"os"
	"path/filepath"

	rserr "github.com/ringsense/ringsense/pkg/errors"
)

//go:embed ringsense.yaml.default
var DefaultConfigYAML []byte

// DefaultConfigPath returns ~/.config/ringsense/ringsense.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", rserr.Wrapf(err, rserr.CodeConfigLoadReadFailure, "resolving home directory")
	}
	return filepath.Join(home, ".config", "ringsense", "ringsense.yaml"), nil
}

// DefaultDataDir returns ~/.local/share/ringsense, falling back to
// ./.ringsense when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ringsense"
	}
	return filepath.Join(home, ".local", "share", "ringsense")
}

// BootstrapConfig writes the commented default config to the default path
// if nothing is there yet. It returns the path written, or "" when the file
// existed or could not be written.
func BootstrapConfig() string {
	cfgPath, err := DefaultConfigPath()
	if err != nil {
		slog.Debug("skipping config bootstrap", "error", err)
		return ""
	}
	return bootstrapAt(cfgPath)
}

func bootstrapAt(cfgPath string) string {
	if _, err := os.Stat(cfgPath); err == nil {
		return ""
	}

	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		slog.Debug("skipping config bootstrap: cannot create directory", "path", dir, "error", err)
		return ""
	}
	if err := os.WriteFile(cfgPath, DefaultConfigYAML, 0o600); err != nil {
		slog.Debug("skipping config bootstrap: cannot write config", "path", cfgPath, "error", err)
		return ""
	}

	slog.Info("created default config", "path", cfgPath)
	return cfgPath
}
