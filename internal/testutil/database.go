package testutil

import (
	"context"
	"testing"

	"github.com/coral-mesh/connstats/internal/database"
)

// NewTestStore opens a read-write store at path, or an in-memory store
// when path is empty. The store is closed when the test completes.
func NewTestStore(t *testing.T, path string) *database.Store {
	t.Helper()

	store, err := database.Open(context.Background(), database.Options{Path: path}, NewTestLogger(t))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}

	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close test store: %v", err)
		}
	})

	return store
}
