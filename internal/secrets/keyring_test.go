// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package secrets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/ringsense/ringsense/internal/secrets"
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

func init() {
	keyring.MockInit()
}

func TestKeyring_SetGetDelete(t *testing.T) {
	var ks secrets.Keyring
	svc := "test-set-get"

	require.NoError(t, ks.Set(svc, secrets.TokenKey, "tok-1"))
	got, err := ks.Get(svc, secrets.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)

	require.NoError(t, ks.Set(svc, secrets.TokenKey, "tok-2"))
	got, err = ks.Get(svc, secrets.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got)

	require.NoError(t, ks.Delete(svc, secrets.TokenKey))
	_, err = ks.Get(svc, secrets.TokenKey)
	assert.True(t, rserr.HasCode(err, rserr.CodeSecretNotFound))
	assert.True(t, rserr.IsNotFound(err))
}

func TestKeyring_NotFound(t *testing.T) {
	var ks secrets.Keyring

	_, err := ks.Get("test-missing", "nope")
	assert.True(t, rserr.HasCode(err, rserr.CodeSecretNotFound))

	err = ks.Delete("test-missing", "nope")
	assert.True(t, rserr.HasCode(err, rserr.CodeSecretNotFound))
}

func TestKeyring_Keys(t *testing.T) {
	var ks secrets.Keyring
	svc := "test-keys"

	keys, err := ks.Keys(svc)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, ks.Set(svc, "a", "1"))
	require.NoError(t, ks.Set(svc, "b", "2"))
	require.NoError(t, ks.Set(svc, "a", "3"))

	keys, err = ks.Keys(svc)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, ks.Delete(svc, "a"))
	keys, err = ks.Keys(svc)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)

	require.NoError(t, ks.Delete(svc, "b"))
	keys, err = ks.Keys(svc)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestKeyring_InvalidNames(t *testing.T) {
	var ks secrets.Keyring

	for name, call := range map[string]func() error{
		"empty service": func() error { return ks.Set("", "k", "v") },
		"empty key":     func() error { _, err := ks.Get("svc", ""); return err },
		"reserved key":  func() error { return ks.Set("svc", "::index", "v") },
		"keys service":  func() error { _, err := ks.Keys(""); return err },
	} {
		t.Run(name, func(t *testing.T) {
			err := call()
			assert.True(t, rserr.HasCode(err, rserr.CodeSecretInvalidInput), "got %v", err)
		})
	}
}
