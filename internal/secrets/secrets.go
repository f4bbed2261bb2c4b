// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

// Package secrets keeps the Oura access token (and API auth tokens) out of
// the config file by storing them in the OS keyring.
package secrets

// Service is the keyring service every ringsense secret is stored under.
const Service = "ringsense"

// TokenKey is the conventional key for the Oura access token.
const TokenKey = "oura-access-token"

// Store is a keyring-like secret backend.
type Store interface {
	Set(service, key, value string) error
	// Get returns an error coded secret.get.not_found for missing keys.
	Get(service, key string) (string, error)
	Delete(service, key string) error
	// Keys lists the keys stored under service in insertion order.
	Keys(service string) ([]string, error)
}
