package classifier

import (
	"fmt"
	"math"
	"math/rand"
)

// RandomForest is a bagged ensemble of decision trees for one binary label.
type RandomForest struct {
	Trees           []*DecisionTree
	NEstimators     int
	MinSamplesSplit int
	Seed            int64
}

// NewRandomForest returns an unfitted forest.
func NewRandomForest(nEstimators, minSamplesSplit int, seed int64) (*RandomForest, error) {
	if nEstimators < 1 {
		return nil, fmt.Errorf("%w: n_estimators must be at least 1, got %d", ErrInvalidParams, nEstimators)
	}
	if minSamplesSplit < 2 {
		return nil, fmt.Errorf("%w: min_samples_split must be at least 2, got %d", ErrInvalidParams, minSamplesSplit)
	}
	return &RandomForest{
		NEstimators:     nEstimators,
		MinSamplesSplit: minSamplesSplit,
		Seed:            seed,
	}, nil
}

// Fit grows every tree on a bootstrap sample of the rows, considering
// sqrt(numFeatures) features at each split.
func (f *RandomForest) Fit(x []Vector, y []int, numFeatures int) error {
	if len(x) == 0 {
		return ErrEmptyInput
	}
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d rows, %d labels", ErrShapeMismatch, len(x), len(y))
	}

	maxFeatures := int(math.Sqrt(float64(numFeatures)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	rng := rand.New(rand.NewSource(f.Seed))
	n := len(x)
	f.Trees = make([]*DecisionTree, f.NEstimators)
	for t := range f.Trees {
		treeRng := rand.New(rand.NewSource(rng.Int63()))
		samples := make([]int, n)
		for i := range samples {
			samples[i] = treeRng.Intn(n)
		}
		f.Trees[t] = growTree(x, y, samples, f.MinSamplesSplit, maxFeatures, treeRng)
	}
	return nil
}

// PredictProba returns the mean positive probability across trees.
func (f *RandomForest) PredictProba(x Vector) (float64, error) {
	if len(f.Trees) == 0 {
		return 0, ErrNotFitted
	}
	var sum float64
	for _, tree := range f.Trees {
		sum += tree.PredictProba(x)
	}
	return sum / float64(len(f.Trees)), nil
}

// Predict returns 1 when the mean positive probability exceeds one half.
func (f *RandomForest) Predict(x Vector) (int, error) {
	p, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	if p > 0.5 {
		return 1, nil
	}
	return 0, nil
}
