package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/disaster-triage/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T, opts ...Option) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath, opts...)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func labeled(id int64, text, original, genre string, labels ...int) model.LabeledMessage {
	return model.LabeledMessage{
		Message: model.Message{
			ID:       id,
			Text:     model.NewText(text),
			Original: model.NewText(original),
			Genre:    model.NewText(genre),
		},
		Labels: labels,
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	require.ErrorIs(t, err, ErrEmptyString)

	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "triage.db")
	store, err := NewSQLiteStorage(dbPath, WithTable("custom"), WithBatchSize(10))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.Equal(t, dbPath, store.Path())
	assert.Equal(t, "custom", store.Table())
	assert.Equal(t, 10, store.batchSize)
}

func TestNewSQLiteStorage_Defaults(t *testing.T) {
	store, cleanup := createTestStorage(t, WithTable(""), WithBatchSize(-1))
	defer cleanup()

	assert.Equal(t, DefaultTable, store.Table())
	assert.Equal(t, DefaultBatchSize, store.batchSize)
}

func TestMigrate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Running again is a no-op.
	require.NoError(t, store.Migrate(ctx))

	var count int
	err = store.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='etl_runs'`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
