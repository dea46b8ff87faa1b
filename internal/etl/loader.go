// Package etl loads the raw message and category files, joins them, and cleans the result.
package etl

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/disaster-triage/internal/model"
)

// Loader errors.
var (
	ErrMissingColumn = errors.New("missing required column")
	ErrInvalidID     = errors.New("invalid message id")
	ErrEmptyFile     = errors.New("file has no header row")
)

// Load reads the messages and categories files and joins them on id.
func Load(messagesPath, categoriesPath string) ([]model.MergedRecord, error) {
	messages, err := LoadMessages(messagesPath)
	if err != nil {
		return nil, err
	}

	categories, err := LoadCategories(categoriesPath)
	if err != nil {
		return nil, err
	}

	merged := Merge(messages, categories)
	slog.Debug("Merged input files",
		"messages", len(messages),
		"categories", len(categories),
		"merged", len(merged))

	return merged, nil
}

// LoadMessages reads a messages CSV file. The id, message and genre columns are
// required; original is optional and treated as missing when absent.
func LoadMessages(path string) ([]model.Message, error) {
	var messages []model.Message
	err := readCSV(path, func(h header, row []string) error {
		id, err := h.id(row)
		if err != nil {
			return err
		}
		messages = append(messages, model.Message{
			ID:       id,
			Text:     model.NewText(h.get(row, model.ColumnMessage)),
			Original: model.NewText(h.get(row, model.ColumnOriginal)),
			Genre:    model.NewText(h.get(row, model.ColumnGenre)),
		})
		return nil
	}, model.ColumnID, model.ColumnMessage, model.ColumnGenre)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return messages, nil
}

// LoadCategories reads a categories CSV file with id and categories columns.
func LoadCategories(path string) ([]model.CategoryRecord, error) {
	var records []model.CategoryRecord
	err := readCSV(path, func(h header, row []string) error {
		id, err := h.id(row)
		if err != nil {
			return err
		}
		records = append(records, model.CategoryRecord{
			ID:         id,
			Categories: h.get(row, model.ColumnCategories),
		})
		return nil
	}, model.ColumnID, model.ColumnCategories)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return records, nil
}

// Merge performs an inner join of messages and categories on id.
// Message order is kept; a message matching several category rows yields one
// record per match, in category file order.
func Merge(messages []model.Message, categories []model.CategoryRecord) []model.MergedRecord {
	byID := make(map[int64][]string, len(categories))
	for _, c := range categories {
		byID[c.ID] = append(byID[c.ID], c.Categories)
	}

	merged := make([]model.MergedRecord, 0, len(messages))
	for _, m := range messages {
		for _, cats := range byID[m.ID] {
			merged = append(merged, model.MergedRecord{Message: m, Categories: cats})
		}
	}
	return merged
}

// header maps column names to their position in a row.
type header map[string]int

func (h header) get(row []string, column string) string {
	idx, ok := h[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func (h header) id(row []string) (int64, error) {
	raw := strings.TrimSpace(h.get(row, model.ColumnID))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}

func readCSV(path string, fn func(header, []string) error, required ...string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)

	first, err := r.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	if err != nil {
		return fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	h := make(header, len(first))
	for i, name := range first {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		h[strings.TrimSpace(name)] = i
	}
	for _, col := range required {
		if _, ok := h[col]; !ok {
			return fmt.Errorf("%w: %q in %s", ErrMissingColumn, col, path)
		}
	}

	line := 1
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		line++
		if err := fn(h, row); err != nil {
			return fmt.Errorf("%s line %d: %w", path, line, err)
		}
	}
}
