package testutil

import (
	"database/sql"
	"testing"

	"fitrender/internal/db"
)

// SetupTestDB creates an in-memory SQLite database with migrations applied.
// It is closed automatically when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.InitDB(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	var count int
	err = database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = 'render_events'").Scan(&count)
	if err != nil {
		t.Fatalf("failed to verify tables: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected render_events table, found %d", count)
	}

	return database
}
