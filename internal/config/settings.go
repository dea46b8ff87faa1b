package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/disaster-triage/internal/classifier"
	"github.com/Veraticus/disaster-triage/internal/storage"
	"github.com/spf13/viper"
)

// ErrInvalidSettings is returned when a configured value is out of range.
var ErrInvalidSettings = errors.New("invalid settings")

// StoreSettings configures the message store.
type StoreSettings struct {
	Table     string
	BatchSize int
}

// TrainSettings configures the training run.
type TrainSettings struct {
	Grid     classifier.ParamGrid
	TestSize float64
	Seed     int64
	CVFolds  int
}

// Settings holds every value the pipeline reads from configuration.
type Settings struct {
	Store StoreSettings
	Train TrainSettings
}

// DefaultSettings returns Settings with sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		Store: StoreSettings{
			Table:     storage.DefaultTable,
			BatchSize: storage.DefaultBatchSize,
		},
		Train: TrainSettings{
			Grid:     classifier.DefaultParamGrid(),
			TestSize: 0.2,
			Seed:     42,
			CVFolds:  classifier.DefaultFolds,
		},
	}
}

// LoadSettings overlays the values set in v on the defaults and validates
// the result.
func LoadSettings(v *viper.Viper) (*Settings, error) {
	s := DefaultSettings()

	if v.IsSet("store.table") {
		s.Store.Table = v.GetString("store.table")
	}
	if v.IsSet("store.batch_size") {
		s.Store.BatchSize = v.GetInt("store.batch_size")
	}
	if v.IsSet("train.test_size") {
		s.Train.TestSize = v.GetFloat64("train.test_size")
	}
	if v.IsSet("train.seed") {
		s.Train.Seed = v.GetInt64("train.seed")
	}
	if v.IsSet("train.cv_folds") {
		s.Train.CVFolds = v.GetInt("train.cv_folds")
	}
	if v.IsSet("train.grid.min_samples_split") {
		s.Train.Grid.MinSamplesSplit = v.GetIntSlice("train.grid.min_samples_split")
	}
	if v.IsSet("train.grid.n_estimators") {
		s.Train.Grid.NEstimators = v.GetIntSlice("train.grid.n_estimators")
	}
	if v.IsSet("train.grid.ngram_range") {
		ranges, err := parseNGramRanges(v.GetStringSlice("train.grid.ngram_range"))
		if err != nil {
			return nil, err
		}
		s.Train.Grid.NGramRanges = ranges
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func parseNGramRanges(values []string) ([][2]int, error) {
	ranges := make([][2]int, 0, len(values))
	for _, value := range values {
		r, err := classifier.ParseNGramRange(value)
		if err != nil {
			return nil, fmt.Errorf("%w: train.grid.ngram_range: %w", ErrInvalidSettings, err)
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

// Validate checks if the settings are usable.
func (s *Settings) Validate() error {
	if s.Store.Table == "" {
		return fmt.Errorf("%w: store.table must not be empty", ErrInvalidSettings)
	}
	if strings.EqualFold(s.Store.Table, storage.RunsTable) {
		return fmt.Errorf("%w: store.table must not be the %s ledger", ErrInvalidSettings, storage.RunsTable)
	}
	if s.Store.BatchSize <= 0 {
		return fmt.Errorf("%w: store.batch_size must be positive", ErrInvalidSettings)
	}
	if s.Train.TestSize <= 0 || s.Train.TestSize >= 1 {
		return fmt.Errorf("%w: train.test_size must be between 0 and 1, got %g", ErrInvalidSettings, s.Train.TestSize)
	}
	if s.Train.CVFolds < 2 {
		return fmt.Errorf("%w: train.cv_folds must be at least 2, got %d", ErrInvalidSettings, s.Train.CVFolds)
	}
	if err := s.Train.Grid.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return nil
}
