// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package secrets

import (
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	rserr "github.com/ringsense/ringsense/pkg/errors"
)

const scheme = "keyring://"

// Reference returns the keyring:// URI for service/key, suitable for a
// config value.
func Reference(service, key string) string {
	return scheme + service + "/" + key
}

// IsReference reports whether value is a keyring:// URI.
func IsReference(value string) bool {
	return strings.HasPrefix(value, scheme)
}

// ParseReference splits keyring://service/key. The key may contain slashes.
func ParseReference(uri string) (service, key string, err error) {
	rest, ok := strings.CutPrefix(uri, scheme)
	if !ok {
		return "", "", rserr.Errorf(rserr.CodeSecretInvalidInput, "%q is not a keyring reference", uri)
	}
	service, key, ok = strings.Cut(rest, "/")
	if !ok || service == "" || key == "" {
		return "", "", rserr.Errorf(rserr.CodeSecretInvalidInput,
			"malformed keyring reference %q, want keyring://service/key", uri)
	}
	return service, key, nil
}

// Resolve returns the secret a keyring reference points at. Plain values
// are returned unchanged.
func Resolve(store Store, value string) (string, error) {
	if !IsReference(value) {
		return value, nil
	}
	service, key, err := ParseReference(value)
	if err != nil {
		return "", err
	}
	secret, err := store.Get(service, key)
	if err != nil {
		return "", rserr.Wrapf(err, rserr.CodeSecretResolveFailure, "resolving %s", value)
	}
	return secret, nil
}

// ResolveViper replaces every keyring reference in v, including references
// inside string lists such as auth.tokens. Unresolvable references are
// logged and left in place so the failure surfaces where the value is used.
func ResolveViper(v *viper.Viper, store Store) {
	for _, key := range v.AllKeys() {
		switch val := v.Get(key).(type) {
		case string:
			if resolved, ok := resolveLogged(store, key, val); ok {
				v.Set(key, resolved)
			}
		case []any:
			out := make([]string, 0, len(val))
			changed := false
			for _, item := range val {
				s, isString := item.(string)
				if !isString {
					out = nil
					break
				}
				resolved, ok := resolveLogged(store, key, s)
				changed = changed || ok
				out = append(out, resolved)
			}
			if changed && out != nil {
				v.Set(key, out)
			}
		case []string:
			out := make([]string, len(val))
			changed := false
			for i, s := range val {
				resolved, ok := resolveLogged(store, key, s)
				changed = changed || ok
				out[i] = resolved
			}
			if changed {
				v.Set(key, out)
			}
		}
	}
}

// resolveLogged resolves one value and reports whether it was a reference
// that resolved.
func resolveLogged(store Store, configKey, value string) (string, bool) {
	if !IsReference(value) {
		return value, false
	}
	resolved, err := Resolve(store, value)
	if err != nil {
		slog.Warn("keyring reference not resolved", "config_key", configKey, "error", err)
		return value, false
	}
	return resolved, true
}
