// Package testutil provides shared helpers for tests: temporary storage and input fixtures.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/disaster-triage/internal/model"
	"github.com/Veraticus/disaster-triage/internal/storage"
)

// SetupTestStorage creates a migrated SQLite storage in a temporary directory.
// The database is closed automatically when the test ends.
func SetupTestStorage(t *testing.T, opts ...storage.Option) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "triage.db"), opts...)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Run migrations
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Register cleanup
	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// SeedTable writes table into store, failing the test on error.
func SeedTable(t *testing.T, store *storage.SQLiteStorage, table *model.Table) {
	t.Helper()
	if err := store.ReplaceMessages(context.Background(), table); err != nil {
		t.Fatalf("failed to seed messages: %v", err)
	}
}
