// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package secrets

import (
	"encoding/json"
	"errors"
	"log/slog"
	"slices"

	"github.com/zalando/go-keyring"

	rserr "github.com/ringsense/ringsense/pkg/errors"
)

// indexKey holds a JSON array of the key names stored for a service.
// go-keyring cannot enumerate entries on its own.
const indexKey = "::index"

var _ Store = Keyring{}

// Keyring stores secrets with zalando/go-keyring: Keychain on macOS,
// secret-service on Linux, Credential Manager on Windows.
type Keyring struct{}

func (Keyring) Set(service, key, value string) error {
	if err := checkName(service, key); err != nil {
		return err
	}
	if err := keyring.Set(service, key, value); err != nil {
		return rserr.Wrapf(err, rserr.CodeSecretStoreFailure, "storing %s/%s", service, key)
	}

	keys, err := loadIndex(service)
	if err != nil {
		return err
	}
	if slices.Contains(keys, key) {
		return nil
	}
	return saveIndex(service, append(keys, key))
}

func (Keyring) Get(service, key string) (string, error) {
	if err := checkName(service, key); err != nil {
		return "", err
	}
	val, err := keyring.Get(service, key)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return "", rserr.Errorf(rserr.CodeSecretNotFound, "secret %s/%s not found", service, key)
	case err != nil:
		return "", rserr.Wrapf(err, rserr.CodeSecretStoreFailure, "reading %s/%s", service, key)
	}
	return val, nil
}

func (Keyring) Delete(service, key string) error {
	if err := checkName(service, key); err != nil {
		return err
	}
	err := keyring.Delete(service, key)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return rserr.Errorf(rserr.CodeSecretNotFound, "secret %s/%s not found", service, key)
	case err != nil:
		return rserr.Wrapf(err, rserr.CodeSecretDeleteFailure, "deleting %s/%s", service, key)
	}

	keys, err := loadIndex(service)
	if err != nil {
		return err
	}
	return saveIndex(service, slices.DeleteFunc(keys, func(k string) bool { return k == key }))
}

func (Keyring) Keys(service string) ([]string, error) {
	if service == "" {
		return nil, rserr.New(rserr.CodeSecretInvalidInput, "service must not be empty")
	}
	return loadIndex(service)
}

func checkName(service, key string) error {
	switch {
	case service == "":
		return rserr.New(rserr.CodeSecretInvalidInput, "service must not be empty")
	case key == "":
		return rserr.New(rserr.CodeSecretInvalidInput, "key must not be empty")
	case key == indexKey:
		return rserr.Errorf(rserr.CodeSecretInvalidInput, "key %q is reserved", key)
	}
	return nil
}

func loadIndex(service string) ([]string, error) {
	raw, err := keyring.Get(service, indexKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, rserr.Wrapf(err, rserr.CodeSecretListFailure, "reading key index for %s", service)
	}

	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, rserr.Wrapf(err, rserr.CodeSecretListFailure, "decoding key index for %s", service)
	}
	return keys, nil
}

func saveIndex(service string, keys []string) error {
	if len(keys) == 0 {
		if err := keyring.Delete(service, indexKey); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			slog.Debug("removing empty key index", "service", service, "error", err)
		}
		return nil
	}

	b, err := json.Marshal(keys)
	if err != nil {
		return rserr.Wrapf(err, rserr.CodeSecretListFailure, "encoding key index for %s", service)
	}
	if err := keyring.Set(service, indexKey, string(b)); err != nil {
		return rserr.Wrapf(err, rserr.CodeSecretListFailure, "writing key index for %s", service)
	}
	return nil
}
