// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringsense/ringsense/internal/secrets"
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

// mockSecretStore is an in-memory secrets.Store for testing.
type mockSecretStore struct {
	data map[string]string
	keys []string
}

func useMockSecretStore(t *testing.T) *mockSecretStore {
	t.Helper()
	m := &mockSecretStore{data: make(map[string]string)}
	old := secretStoreFactory
	secretStoreFactory = func() secrets.Store { return m }
	t.Cleanup(func() { secretStoreFactory = old })
	return m
}

func (m *mockSecretStore) Set(_, key, value string) error {
	if _, ok := m.data[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.data[key] = value
	return nil
}

func (m *mockSecretStore) Get(_, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", rserr.Errorf(rserr.CodeSecretNotFound, "not found")
	}
	return v, nil
}

func (m *mockSecretStore) Delete(_, key string) error {
	if _, ok := m.data[key]; !ok {
		return rserr.Errorf(rserr.CodeSecretNotFound, "not found")
	}
	delete(m.data, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockSecretStore) Keys(_ string) ([]string, error) {
	return append([]string(nil), m.keys...), nil
}

func TestSecretSet_WithValue(t *testing.T) {
	m := useMockSecretStore(t)

	out, err := executeCmd(t, "secret", "set", "--value", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", m.data[secrets.TokenKey])
	assert.Contains(t, out, "keyring://ringsense/oura-access-token")
	assert.NotContains(t, out, "s3cret")
}

func TestSecretSet_NamedAndPrompted(t *testing.T) {
	m := useMockSecretStore(t)
	stubPrompt(t, "typed")

	_, err := executeCmd(t, "secret", "set", "api-token")
	require.NoError(t, err)
	assert.Equal(t, "typed", m.data["api-token"])
}

func TestSecretSet_EmptyValue(t *testing.T) {
	useMockSecretStore(t)

	_, err := executeCmd(t, "secret", "set", "--value", "")
	require.Error(t, err)
	assert.True(t, rserr.HasCode(err, rserr.CodeSecretInvalidInput))
}

func TestSecretList(t *testing.T) {
	m := useMockSecretStore(t)

	out, err := executeCmd(t, "secret", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No secrets stored.")

	require.NoError(t, m.Set(secrets.Service, "b", "1"))
	require.NoError(t, m.Set(secrets.Service, "a", "2"))

	out, err = executeCmd(t, "secret", "list")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, strings.Fields(out))
}

func TestSecretDelete(t *testing.T) {
	m := useMockSecretStore(t)
	require.NoError(t, m.Set(secrets.Service, "gone", "x"))

	out, err := executeCmd(t, "secret", "delete", "gone")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted secret: gone")
	assert.NotContains(t, m.data, "gone")

	_, err = executeCmd(t, "secret", "delete", "gone")
	require.Error(t, err)
	assert.True(t, rserr.HasCode(err, rserr.CodeSecretNotFound))
}

func TestSecret_RoundTripThroughKeyring(t *testing.T) {
	_, err := executeCmd(t, "secret", "set", "roundtrip", "--value", "v1")
	require.NoError(t, err)

	out, err := executeCmd(t, "secret", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "roundtrip")

	_, err = executeCmd(t, "secret", "delete", "roundtrip")
	require.NoError(t, err)
}
