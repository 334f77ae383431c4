// Package testutils provides fixtures shared by CoreLab package tests.
package testutils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"corelab/internal/store"
)

// NewStore opens a migrated SQLite store in a temporary directory that is
// removed when the test ends.
func NewStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "corelab.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string {
	return &s
}
