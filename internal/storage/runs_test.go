package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/disaster-triage/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStorage_Runs(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	older := &model.Run{
		ID:             "run-1",
		MessagesPath:   "messages.csv",
		CategoriesPath: "categories.csv",
		MergedRows:     10,
		CleanRows:      8,
		DuplicateRows:  2,
		CategoryCount:  36,
		CreatedAt:      time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	newer := *older
	newer.ID = "run-2"
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)

	require.NoError(t, store.RecordRun(ctx, older))
	require.NoError(t, store.RecordRun(ctx, &newer))

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "run-1", runs[1].ID)
	assert.Equal(t, 8, runs[1].CleanRows)
	assert.Equal(t, 2, runs[1].DuplicateRows)
	assert.True(t, runs[1].CreatedAt.Equal(older.CreatedAt))
}

func TestSQLiteStorage_RecordRun_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.ErrorIs(t, store.RecordRun(ctx, nil), ErrNilParameter)
	require.ErrorIs(t, store.RecordRun(ctx, &model.Run{CreatedAt: time.Now()}), ErrInvalidRun)
	require.ErrorIs(t, store.RecordRun(ctx, &model.Run{ID: "x"}), ErrInvalidRun)

	// Duplicate IDs are rejected by the primary key.
	run := &model.Run{ID: "dup", CreatedAt: time.Now()}
	require.NoError(t, store.RecordRun(ctx, run))
	require.Error(t, store.RecordRun(ctx, run))
}
