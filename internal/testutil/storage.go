package testutil

import (
	"os"
	"testing"

	"fitrender/internal/storage"
)

// SetupTestStorage returns a Storage rooted in a per-test temporary directory
// with the originals directory already created.
func SetupTestStorage(t *testing.T) *storage.Storage {
	t.Helper()

	store := storage.New(t.TempDir())
	if err := os.MkdirAll(store.OriginalsDir(), 0755); err != nil {
		t.Fatalf("failed to create originals directory: %v", err)
	}
	return store
}
