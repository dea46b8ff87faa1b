package classifier

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// DefaultFolds is the number of cross-validation folds used by BuildModel.
const DefaultFolds = 5

// CVResult is the cross-validated score of one grid point.
type CVResult struct {
	FoldScores []float64
	Params     Params
	MeanScore  float64
	StdScore   float64
	Rank       int
}

// GridSearch fits a pipeline for every grid point, scores it with K-fold
// cross-validation and refits the best one on all training data.
type GridSearch struct {
	Best       *Pipeline
	Results    []CVResult
	Grid       ParamGrid
	BestParams Params
	BestScore  float64
	Folds      int
	Seed       int64

	tokenize TokenizeFunc
	onFit    func(Params)
}

// Option configures a GridSearch.
type Option func(*GridSearch)

// WithFolds sets the number of cross-validation folds.
func WithFolds(k int) Option {
	return func(g *GridSearch) { g.Folds = k }
}

// WithSeed seeds every forest fitted by the search.
func WithSeed(seed int64) Option {
	return func(g *GridSearch) { g.Seed = seed }
}

// WithProgress registers a callback invoked after every pipeline fit.
func WithProgress(fn func(Params)) Option {
	return func(g *GridSearch) { g.onFit = fn }
}

// BuildModel returns an unfitted grid search over grid.
func BuildModel(grid ParamGrid, tokenize TokenizeFunc, opts ...Option) (*GridSearch, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if tokenize == nil {
		return nil, ErrNoTokenizer
	}
	g := &GridSearch{
		Grid:     grid,
		Folds:    DefaultFolds,
		tokenize: tokenize,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// TotalFits returns how many pipeline fits Fit performs, including the final refit.
func (g *GridSearch) TotalFits() int {
	return len(g.Grid.Combinations())*g.Folds + 1
}

// Fit runs the search. Ties on mean score go to the earlier grid point.
func (g *GridSearch) Fit(texts []string, labels [][]int, categories []string) error {
	if len(texts) != len(labels) {
		return fmt.Errorf("%w: %d texts, %d label rows", ErrShapeMismatch, len(texts), len(labels))
	}
	folds, err := KFold(len(texts), g.Folds)
	if err != nil {
		return err
	}

	// Tokens are cached across folds and grid points.
	tokenize := memoize(g.tokenize)

	g.Results = g.Results[:0]
	bestIdx := -1
	for _, params := range g.Grid.Combinations() {
		result := CVResult{Params: params, FoldScores: make([]float64, 0, len(folds))}

		for f, testIdx := range folds {
			trainIdx := complement(len(texts), testIdx)
			p, err := NewPipeline(params, tokenize, g.Seed)
			if err != nil {
				return err
			}
			if err := p.Fit(pick(texts, trainIdx), pick(labels, trainIdx), categories); err != nil {
				return fmt.Errorf("fold %d with %s: %w", f, params, err)
			}
			pred, err := p.Predict(pick(texts, testIdx))
			if err != nil {
				return fmt.Errorf("fold %d with %s: %w", f, params, err)
			}
			result.FoldScores = append(result.FoldScores, SubsetAccuracy(pick(labels, testIdx), pred))
			g.progress(params)
		}

		result.MeanScore, result.StdScore = meanStd(result.FoldScores)
		slog.Debug("Scored grid point", "params", params.String(), "mean_score", result.MeanScore)
		g.Results = append(g.Results, result)
		if bestIdx < 0 || result.MeanScore > g.Results[bestIdx].MeanScore {
			bestIdx = len(g.Results) - 1
		}
	}
	rank(g.Results)

	g.BestParams = g.Results[bestIdx].Params
	g.BestScore = g.Results[bestIdx].MeanScore

	best, err := NewPipeline(g.BestParams, tokenize, g.Seed)
	if err != nil {
		return err
	}
	if err := best.Fit(texts, labels, categories); err != nil {
		return fmt.Errorf("failed to refit best pipeline: %w", err)
	}
	best.SetTokenizer(g.tokenize)
	g.Best = best
	g.progress(g.BestParams)

	return nil
}

// Predict uses the refitted best pipeline.
func (g *GridSearch) Predict(texts []string) ([][]int, error) {
	if g.Best == nil {
		return nil, ErrNotFitted
	}
	return g.Best.Predict(texts)
}

func (g *GridSearch) progress(p Params) {
	if g.onFit != nil {
		g.onFit(p)
	}
}

// SubsetAccuracy is the share of rows whose predicted labels all match.
func SubsetAccuracy(truth, pred [][]int) float64 {
	if len(truth) == 0 {
		return 0
	}
	correct := 0
	for i := range truth {
		if equalRows(truth[i], pred[i]) {
			correct++
		}
	}
	return float64(correct) / float64(len(truth))
}

func equalRows(a, b []int) bool {
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

func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}

// rank assigns 1 to the best mean score; equal scores share a rank.
func rank(results []CVResult) {
	for i := range results {
		r := 1
		for j := range results {
			if results[j].MeanScore > results[i].MeanScore {
				r++
			}
		}
		results[i].Rank = r
	}
}

func memoize(fn TokenizeFunc) TokenizeFunc {
	cache := make(map[string][]string)
	return func(s string) []string {
		if tokens, ok := cache[s]; ok {
			return tokens
		}
		tokens := fn(s)
		cache[s] = tokens
		return tokens
	}
}

// Summary renders the CV results as aligned text lines.
func (g *GridSearch) Summary() string {
	var b strings.Builder
	for _, r := range g.Results {
		fmt.Fprintf(&b, "rank %d  mean %.4f  std %.4f  %s\n", r.Rank, r.MeanScore, r.StdScore, r.Params)
	}
	return b.String()
}
