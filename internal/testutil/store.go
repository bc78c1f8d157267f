package testutil

import (
	"path/filepath"
	"testing"

	"github.com/SnowyUK/actinium/internal/store"
)

// NewTestStore opens a throwaway DuckDB store backed by a file in a temp
// directory. The store is closed when the test completes.
func NewTestStore(t *testing.T) *store.DuckDB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.duckdb")
	st, err := store.OpenPath(dbPath, NewTestLogger(t))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}

	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("failed to close test store: %v", err)
		}
	})

	return st
}
