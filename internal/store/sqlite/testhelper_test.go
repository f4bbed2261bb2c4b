// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package sqlite_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ringsense/ringsense/internal/store/sqlite"
)

// testDBPath returns a SQLite database path inside a per-test temp dir.
func testDBPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name+".db")
}

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(testDBPath(t, "ringsense"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
