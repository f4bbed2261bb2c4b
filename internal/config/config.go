// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package config

import (
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	rserr "github.com/ringsense/ringsense/pkg/errors"
)

// EnvPrefix prefixes every environment override, e.g. RINGSENSE_POLLING_INTERVAL.
const EnvPrefix = "RINGSENSE"

// Config is the top-level ringsense configuration.
type Config struct {
	Networking NetworkingConfig `mapstructure:"networking"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Polling    PollingConfig    `mapstructure:"polling"`
	Oura       OuraConfig       `mapstructure:"oura"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	DataDir    string           `mapstructure:"data_dir"`
}

// NetworkingConfig controls the REST listener.
type NetworkingConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// AuthConfig lists bearer tokens accepted by the REST API. An empty list
// disables authentication.
type AuthConfig struct {
	Tokens []string `mapstructure:"tokens"`
}

// StorageConfig selects the storage backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

// PollingConfig controls how often and how long each category is polled.
type PollingConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// OuraConfig points at the Oura API. AccessToken seeds the config entry on
// start when none exists yet.
type OuraConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	AccessToken string `mapstructure:"access_token"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("networking.listen", "127.0.0.1:8787")
	v.SetDefault("networking.cors_origins", []string{})
	v.SetDefault("auth.tokens", []string{})
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("polling.interval", "30s")
	v.SetDefault("polling.timeout", "10s")
	v.SetDefault("oura.base_url", "https://api.ouraring.com")
	v.SetDefault("oura.access_token", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("data_dir", "")
}

// SetupEnv binds RINGSENSE_* environment variables, mapping "." to "_".
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from path (or defaults only when path is empty)
// with environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, rserr.Wrapf(err, rserr.CodeConfigLoadReadFailure, "reading config %s", path)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, rserr.Wrapf(err, rserr.CodeConfigParseInvalidFormat, "decoding config")
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, rserr.Wrapf(errors.Join(errs...), rserr.CodeConfigValidateInvalidValue, "validating config")
	}
	return &cfg, nil
}

// Validate collects every problem rather than stopping at the first.
func (c *Config) Validate() []error {
	var errs []error
	errs = append(errs, c.validateNetworking()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validatePolling()...)
	errs = append(errs, c.validateOura()...)
	errs = append(errs, c.validateLogging()...)
	return errs
}

func invalid(format string, args ...any) error {
	return rserr.Errorf(rserr.CodeConfigValidateInvalidValue, "config: "+format, args...)
}

func (c *Config) validateNetworking() []error {
	if c.Networking.Listen == "" {
		return []error{invalid("networking.listen must not be empty")}
	}

	_, portStr, err := net.SplitHostPort(c.Networking.Listen)
	if err != nil {
		return []error{invalid("networking.listen must be host:port, got %q", c.Networking.Listen)}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return []error{invalid("networking.listen port must be a number, got %q", portStr)}
	}
	if port < 1 || port > 65535 {
		return []error{invalid("networking.listen port must be between 1 and 65535, got %d", port)}
	}
	return nil
}

func (c *Config) validateStorage() []error {
	if c.Storage.Backend != "sqlite" {
		return []error{invalid("storage.backend must be one of [sqlite], got %q", c.Storage.Backend)}
	}
	return nil
}

func (c *Config) validatePolling() []error {
	var errs []error
	if c.Polling.Interval < time.Second {
		errs = append(errs, invalid("polling.interval must be at least 1s, got %s", c.Polling.Interval))
	}
	if c.Polling.Timeout <= 0 {
		errs = append(errs, invalid("polling.timeout must be positive, got %s", c.Polling.Timeout))
	}
	return errs
}

func (c *Config) validateOura() []error {
	u, err := url.Parse(c.Oura.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return []error{invalid("oura.base_url must be an absolute http(s) URL, got %q", c.Oura.BaseURL)}
	}
	return nil
}

func (c *Config) validateLogging() []error {
	var errs []error
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, invalid("logging.level must be one of [debug, info, warn, error], got %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, invalid("logging.format must be one of [text, json], got %q", c.Logging.Format))
	}
	return errs
}
