package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/disaster-triage/internal/model"
)

// ReplaceMessages drops the messages table if it exists and recreates it from table.
// The drop, create and inserts run in one transaction.
func (s *SQLiteStorage) ReplaceMessages(ctx context.Context, table *model.Table) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTable(table); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				slog.Error("failed to rollback transaction", "error", rollbackErr)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(s.table)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", s.table, err)
	}
	if _, err = tx.ExecContext(ctx, createTableSQL(s.table, table.Categories)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL(s.table, table.Categories))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	args := make([]any, len(model.MessageColumns)+len(table.Categories))
	for i, row := range table.Rows {
		args[0] = row.ID
		args[1] = row.Text
		args[2] = row.Original
		args[3] = row.Genre
		for j, v := range row.Labels {
			args[len(model.MessageColumns)+j] = v
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert message %d: %w", row.ID, err)
		}
		if (i+1)%s.batchSize == 0 {
			slog.Debug("Inserted messages", "rows", i+1, "total", len(table.Rows))
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadMessages reads the messages table back. Rows with a missing label are skipped.
func (s *SQLiteStorage) LoadMessages(ctx context.Context) (*model.Table, error) {
	table, missing, err := s.scanMessages(ctx)
	if err != nil {
		return nil, err
	}

	out := &model.Table{Categories: table.Categories, Rows: make([]model.LabeledMessage, 0, len(table.Rows))}
	for i, row := range table.Rows {
		if missing[i]&missingLabel != 0 {
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	if skipped := len(table.Rows) - len(out.Rows); skipped > 0 {
		slog.Warn("Skipped rows with missing labels", "rows", skipped)
	}
	return out, nil
}

// LoadDataset reads the messages table for training. Rows with any missing value
// are dropped; the message text becomes the input and every category column a target.
func (s *SQLiteStorage) LoadDataset(ctx context.Context) (*model.Dataset, error) {
	table, missing, err := s.scanMessages(ctx)
	if err != nil {
		return nil, err
	}

	ds := &model.Dataset{
		Categories: table.Categories,
		Texts:      make([]string, 0, len(table.Rows)),
		Labels:     make([][]int, 0, len(table.Rows)),
	}
	for i, row := range table.Rows {
		if missing[i] != 0 {
			continue
		}
		ds.Texts = append(ds.Texts, row.Text.String)
		ds.Labels = append(ds.Labels, row.Labels)
	}

	slog.Debug("Loaded dataset",
		"rows", len(table.Rows),
		"complete", ds.Len(),
		"categories", len(ds.Categories))

	return ds, nil
}

const (
	missingText = 1 << iota
	missingLabel
)

// scanMessages reads every row and reports which rows hold NULL values.
func (s *SQLiteStorage) scanMessages(ctx context.Context) (*model.Table, []int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, nil, err
	}

	columns, err := s.tableColumns(ctx)
	if err != nil {
		return nil, nil, err
	}

	index := make(map[string]int, len(columns))
	var categories []string
	for i, c := range columns {
		index[c] = i
		if !model.IsMessageColumn(c) {
			categories = append(categories, c)
		}
	}
	for _, c := range model.MessageColumns {
		if _, ok := index[c]; !ok {
			return nil, nil, fmt.Errorf("%w: %s has no %q column", ErrInvalidColumns, s.table, c)
		}
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(quoted, ", "), quoteIdent(s.table))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query %s: %w", s.table, err)
	}
	defer func() { _ = rows.Close() }()

	table := &model.Table{Categories: categories}
	var missing []int

	for rows.Next() {
		var (
			id    sql.NullInt64
			texts [3]sql.NullString
		)
		labels := make([]sql.NullInt64, len(categories))

		dest := make([]any, len(columns))
		li := 0
		for i, c := range columns {
			switch c {
			case model.ColumnID:
				dest[i] = &id
			case model.ColumnMessage:
				dest[i] = &texts[0]
			case model.ColumnOriginal:
				dest[i] = &texts[1]
			case model.ColumnGenre:
				dest[i] = &texts[2]
			default:
				dest[i] = &labels[li]
				li++
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan %s row: %w", s.table, err)
		}

		row := model.LabeledMessage{
			Message: model.Message{
				ID:       id.Int64,
				Text:     texts[0],
				Original: texts[1],
				Genre:    texts[2],
			},
			Labels: make([]int, len(categories)),
		}
		flags := 0
		if !id.Valid || !row.Complete() {
			flags |= missingText
		}
		for j, l := range labels {
			if !l.Valid {
				flags |= missingLabel
				continue
			}
			row.Labels[j] = int(l.Int64)
		}

		table.Rows = append(table.Rows, row)
		missing = append(missing, flags)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate %s rows: %w", s.table, err)
	}

	return table, missing, nil
}

// tableColumns returns the column names of the messages table in declaration order.
func (s *SQLiteStorage) tableColumns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(s.table)))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", s.table, err)
	}
	defer func() { _ = rows.Close() }()

	var columns []string
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read column info: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, s.table)
	}
	return columns, nil
}

func createTableSQL(table string, categories []string) string {
	cols := []string{
		quoteIdent(model.ColumnID) + " INTEGER",
		quoteIdent(model.ColumnMessage) + " TEXT",
		quoteIdent(model.ColumnOriginal) + " TEXT",
		quoteIdent(model.ColumnGenre) + " TEXT",
	}
	for _, c := range categories {
		cols = append(cols, quoteIdent(c)+" INTEGER")
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(cols, ", "))
}

func insertSQL(table string, categories []string) string {
	n := len(model.MessageColumns) + len(categories)
	names := make([]string, 0, n)
	for _, c := range model.MessageColumns {
		names = append(names, quoteIdent(c))
	}
	for _, c := range categories {
		names = append(names, quoteIdent(c))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(table), strings.Join(names, ", "), placeholders)
}
