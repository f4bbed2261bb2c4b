// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ringsense/ringsense/internal/store"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "ringsense.db"

func init() {
	store.RegisterBackend("sqlite", newStore)
}

func newStore(dataPath string) (store.Store, error) {
	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", dataPath, err)
	}
	return NewStore(filepath.Join(dataPath, DBFileName))
}
