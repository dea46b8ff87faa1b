package classifier

import (
	"fmt"
	"log/slog"
)

// MultiOutput trains one independent random forest per category.
type MultiOutput struct {
	Estimators      map[string]*RandomForest
	Categories      []string
	NEstimators     int
	MinSamplesSplit int
	Seed            int64
}

// NewMultiOutput returns an unfitted multi-output classifier.
func NewMultiOutput(nEstimators, minSamplesSplit int, seed int64) *MultiOutput {
	return &MultiOutput{
		NEstimators:     nEstimators,
		MinSamplesSplit: minSamplesSplit,
		Seed:            seed,
	}
}

// Fit trains a forest for every column of labels. Column j belongs to categories[j].
func (m *MultiOutput) Fit(x []Vector, labels [][]int, categories []string, numFeatures int) error {
	if len(x) != len(labels) {
		return fmt.Errorf("%w: %d rows, %d label rows", ErrShapeMismatch, len(x), len(labels))
	}

	estimators := make(map[string]*RandomForest, len(categories))
	column := make([]int, len(labels))
	for j, name := range categories {
		for i, row := range labels {
			if len(row) != len(categories) {
				return fmt.Errorf("%w: label row %d has %d values, want %d",
					ErrShapeMismatch, i, len(row), len(categories))
			}
			column[i] = row[j]
		}

		forest, err := NewRandomForest(m.NEstimators, m.MinSamplesSplit, m.Seed+int64(j))
		if err != nil {
			return err
		}
		if err := forest.Fit(x, column, numFeatures); err != nil {
			return fmt.Errorf("failed to fit category %s: %w", name, err)
		}
		estimators[name] = forest
		slog.Debug("Fitted category estimator", "category", name, "trees", m.NEstimators)
	}

	m.Categories = append([]string(nil), categories...)
	m.Estimators = estimators
	return nil
}

// Predict returns one row of binary predictions per input, ordered like Categories.
func (m *MultiOutput) Predict(x []Vector) ([][]int, error) {
	if m.Estimators == nil {
		return nil, ErrNotFitted
	}
	out := make([][]int, len(x))
	for i, row := range x {
		out[i] = make([]int, len(m.Categories))
		for j, name := range m.Categories {
			forest, ok := m.Estimators[name]
			if !ok {
				return nil, fmt.Errorf("%w: no estimator for category %s", ErrNotFitted, name)
			}
			pred, err := forest.Predict(row)
			if err != nil {
				return nil, err
			}
			out[i][j] = pred
		}
	}
	return out, nil
}
