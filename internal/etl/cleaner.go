package etl

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Veraticus/disaster-triage/internal/model"
)

// CategorySeparator separates the name-value tokens of a combined categories field.
const CategorySeparator = ";"

// Cleaner errors.
var (
	ErrNoRecords            = errors.New("no records to clean")
	ErrMalformedToken       = errors.New("malformed category token")
	ErrInvalidCategoryValue = errors.New("category value is not numeric")
	ErrCategoryWidth        = errors.New("category field count differs from first row")
	ErrDuplicateCategory    = errors.New("duplicate category name")
	ErrLabelWidth           = errors.New("label count differs from category count")
)

// ParseCategoryToken splits a raw token such as "water-1" into its name and value.
// The name is the token without its last two characters; the value is the last
// character, clamped to 1 when greater.
func ParseCategoryToken(token string) (string, int, error) {
	name, err := categoryName(token)
	if err != nil {
		return "", 0, err
	}
	value, err := categoryValue(token)
	if err != nil {
		return "", 0, err
	}
	return name, value, nil
}

func categoryName(token string) (string, error) {
	if len(token) < 3 {
		return "", fmt.Errorf("%w: %q", ErrMalformedToken, token)
	}
	return token[:len(token)-2], nil
}

func categoryValue(token string) (int, error) {
	if token == "" {
		return 0, fmt.Errorf("%w: empty token", ErrInvalidCategoryValue)
	}
	last := token[len(token)-1:]
	v, err := strconv.Atoi(last)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCategoryValue, token)
	}
	return clamp(v), nil
}

// CategoryNames derives the category column names from a combined categories field.
func CategoryNames(field string) ([]string, error) {
	tokens := strings.Split(field, CategorySeparator)
	names := make([]string, len(tokens))
	seen := make(map[string]struct{}, len(tokens))

	for i, tok := range tokens {
		name, err := categoryName(tok)
		if err != nil {
			return nil, err
		}
		// SQLite column names compare case-insensitively.
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup || model.IsMessageColumn(name) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCategory, name)
		}
		seen[key] = struct{}{}
		names[i] = name
	}
	return names, nil
}

// Clean expands the combined categories field into one binary column per category
// and removes rows that are equal on every field.
// Category names come from the first record.
func Clean(records []model.MergedRecord) (*model.Table, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	names, err := CategoryNames(records[0].Categories)
	if err != nil {
		return nil, fmt.Errorf("failed to derive category names: %w", err)
	}

	table := &model.Table{
		Categories: names,
		Rows:       make([]model.LabeledMessage, 0, len(records)),
	}
	for i, rec := range records {
		labels, err := expandLabels(rec.Categories, len(names))
		if err != nil {
			return nil, fmt.Errorf("record %d (id %d): %w", i, rec.ID, err)
		}
		table.Rows = append(table.Rows, model.LabeledMessage{Message: rec.Message, Labels: labels})
	}

	cleaned, err := Normalize(table)
	if err != nil {
		return nil, err
	}

	slog.Debug("Cleaned records",
		"input", len(records),
		"output", len(cleaned.Rows),
		"duplicates", len(records)-len(cleaned.Rows),
		"categories", len(names))

	return cleaned, nil
}

// Normalize clamps labels into {0,1} and drops rows equal on every field, keeping
// the first occurrence. Normalizing an already cleaned table returns an equal table.
func Normalize(table *model.Table) (*model.Table, error) {
	out := &model.Table{
		Categories: table.Categories,
		Rows:       make([]model.LabeledMessage, 0, len(table.Rows)),
	}
	seen := make(map[string]struct{}, len(table.Rows))

	for _, row := range table.Rows {
		if len(row.Labels) != len(table.Categories) {
			return nil, fmt.Errorf("%w: id %d has %d labels, want %d",
				ErrLabelWidth, row.ID, len(row.Labels), len(table.Categories))
		}
		labels := make([]int, len(row.Labels))
		for i, v := range row.Labels {
			labels[i] = clamp(v)
		}
		row.Labels = labels

		key := row.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// clamp treats any value above 1 as a positive label.
func clamp(v int) int {
	if v > 1 {
		return 1
	}
	return v
}

func expandLabels(field string, width int) ([]int, error) {
	tokens := strings.Split(field, CategorySeparator)
	if len(tokens) != width {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrCategoryWidth, len(tokens), width)
	}

	labels := make([]int, width)
	for i, tok := range tokens {
		v, err := categoryValue(tok)
		if err != nil {
			return nil, err
		}
		labels[i] = v
	}
	return labels, nil
}
