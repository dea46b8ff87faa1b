// Package storage provides the data persistence layer for the pipeline.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/disaster-triage/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrNoCategories   = errors.New("table has no category columns")
	ErrInvalidTable   = errors.New("invalid table")
	ErrInvalidRun     = errors.New("invalid run")
	ErrTableNotFound  = errors.New("table not found")
	ErrInvalidColumns = errors.New("unexpected table layout")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTable checks the cleaned table before it is written.
func validateTable(table *model.Table) error {
	if table == nil {
		return fmt.Errorf("%w: table", ErrNilParameter)
	}
	if len(table.Categories) == 0 {
		return ErrNoCategories
	}

	seen := make(map[string]struct{}, len(table.Categories))
	for _, name := range table.Categories {
		if err := validateString(name, "category"); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidTable, err)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup || model.IsMessageColumn(name) {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidTable, name)
		}
		seen[key] = struct{}{}
	}

	for i, row := range table.Rows {
		if len(row.Labels) != len(table.Categories) {
			return fmt.Errorf("%w: row %d has %d labels, want %d",
				ErrInvalidTable, i, len(row.Labels), len(table.Categories))
		}
	}
	return nil
}

// validateRun validates an ETL run record.
func validateRun(run *model.Run) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if run.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRun)
	}
	if run.CreatedAt.IsZero() {
		return fmt.Errorf("%w: missing creation time", ErrInvalidRun)
	}
	return nil
}

// quoteIdent quotes an SQL identifier. Category names come from input files.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
