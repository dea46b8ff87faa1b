package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/disaster-triage/internal/model"
)

// RecordRun appends an ETL run to the run ledger.
func (s *SQLiteStorage) RecordRun(ctx context.Context, run *model.Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO etl_runs (
			id, messages_path, categories_path, merged_rows,
			clean_rows, duplicate_rows, category_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.MessagesPath, run.CategoriesPath, run.MergedRows,
		run.CleanRows, run.DuplicateRows, run.CategoryCount, run.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns the recorded ETL runs, most recent first.
func (s *SQLiteStorage) ListRuns(ctx context.Context) ([]model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, messages_path, categories_path, merged_rows,
		       clean_rows, duplicate_rows, category_count, created_at
		FROM etl_runs
		ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.Run
	for rows.Next() {
		var (
			run       model.Run
			createdAt time.Time
		)
		if err := rows.Scan(
			&run.ID, &run.MessagesPath, &run.CategoriesPath, &run.MergedRows,
			&run.CleanRows, &run.DuplicateRows, &run.CategoryCount, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.CreatedAt = createdAt
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}
