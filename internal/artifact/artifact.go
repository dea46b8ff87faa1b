// Package artifact persists a trained classification pipeline together with
// the category ordering and the grid search that produced it.
package artifact

import (
	"compress/gzip"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/disaster-triage/internal/classifier"
	"github.com/google/uuid"
)

// FormatVersion identifies the on-disk layout written by Save.
const FormatVersion = 2

// Errors returned by the artifact package.
var (
	ErrUnsupportedVersion = errors.New("unsupported model artifact version")
	ErrNoModel            = errors.New("artifact has no model")
	ErrCategoryMismatch   = errors.New("artifact categories do not match model")
)

// Artifact is the persisted form of a trained model. TestSize and Seed record
// the train/test split that held out the evaluation rows.
type Artifact struct {
	CreatedAt  time.Time
	Model      *classifier.Pipeline
	BestParams classifier.Params
	Categories []string
	Results    []classifier.CVResult
	RunID      uuid.UUID
	BestScore  float64
	TestSize   float64
	Seed       int64
	Version    int
}

// New wraps a fitted grid search in an artifact with a fresh run ID. testSize
// and seed are the train/test split parameters used to hold out test rows.
func New(search *classifier.GridSearch, testSize float64, seed int64) (*Artifact, error) {
	if search == nil || search.Best == nil {
		return nil, ErrNoModel
	}
	return &Artifact{
		Version:    FormatVersion,
		RunID:      uuid.New(),
		CreatedAt:  time.Now().UTC(),
		Categories: append([]string(nil), search.Best.Categories()...),
		BestParams: search.BestParams,
		BestScore:  search.BestScore,
		Results:    search.Results,
		Model:      search.Best,
		TestSize:   testSize,
		Seed:       seed,
	}, nil
}

// Predict runs the stored pipeline. Load must have attached a tokenizer.
func (a *Artifact) Predict(texts []string) ([][]int, error) {
	if a.Model == nil {
		return nil, ErrNoModel
	}
	return a.Model.Predict(texts)
}

// Save writes the artifact to path as gzip-compressed gob, replacing any
// existing file. Parent directories are created.
func Save(path string, a *Artifact) error {
	if a == nil || a.Model == nil {
		return ErrNoModel
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	tmpPath := path + ".tmp"
	// #nosec G304 - path is provided by the operator
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}

	if err := encode(f, a); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close model file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

func encode(f *os.File, a *Artifact) error {
	zw := gzip.NewWriter(f)
	if err := gob.NewEncoder(zw).Encode(a); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to compress model: %w", err)
	}
	return nil
}

// Load reads an artifact written by Save and attaches tokenize to its
// pipeline.
func Load(path string, tokenize classifier.TokenizeFunc) (*Artifact, error) {
	// #nosec G304 - path is provided by the operator
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer func() { _ = f.Close() }()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress model: %w", err)
	}
	defer func() { _ = zr.Close() }()

	var a Artifact
	if err := gob.NewDecoder(zr).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}

	if a.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, a.Version)
	}
	if a.Model == nil {
		return nil, ErrNoModel
	}
	if !equalStrings(a.Categories, a.Model.Categories()) {
		return nil, ErrCategoryMismatch
	}
	a.Model.SetTokenizer(tokenize)

	return &a, nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
