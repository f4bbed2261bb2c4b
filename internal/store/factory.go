// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package store

import (
	"sort"
	"sync"

	rserr "github.com/ringsense/ringsense/pkg/errors"
)

// Factory opens a Store rooted at a data directory.
type Factory func(dataPath string) (Store, error)

var (
	factories   = map[string]Factory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers the factory for a named storage backend.
// Backend packages call this from init(). This function is goroutine-safe.
func RegisterBackend(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Backends lists the registered backend names in sorted order.
func Backends() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolveBackend returns the effective backend name, defaulting to "sqlite".
func resolveBackend(cfg *StorageConfig) string {
	if cfg == nil || cfg.Backend == "" {
		return "sqlite"
	}
	return cfg.Backend
}

// New opens the store for the configured backend.
func New(cfg *StorageConfig, dataPath string) (Store, error) {
	backend := resolveBackend(cfg)

	factoriesMu.RLock()
	factory, ok := factories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, rserr.Errorf(rserr.CodeStoreBackendUnsupported, "unsupported storage backend: %q", backend)
	}

	return factory(dataPath)
}
