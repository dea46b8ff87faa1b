package classifier

import (
	"fmt"
	"strconv"
	"strings"
)

// Params is one point of the hyperparameter grid.
type Params struct {
	NGramRange      [2]int
	MinSamplesSplit int
	NEstimators     int
}

// DefaultParams mirrors the best combination found for the disaster data set.
func DefaultParams() Params {
	return Params{MinSamplesSplit: 2, NEstimators: 100, NGramRange: [2]int{1, 1}}
}

func (p Params) String() string {
	return fmt.Sprintf("min_samples_split=%d n_estimators=%d ngram_range=(%d, %d)",
		p.MinSamplesSplit, p.NEstimators, p.NGramRange[0], p.NGramRange[1])
}

// ParamGrid lists the values to try for each hyperparameter.
type ParamGrid struct {
	MinSamplesSplit []int
	NEstimators     []int
	NGramRanges     [][2]int
}

// DefaultParamGrid is the single-point grid used when nothing is configured.
func DefaultParamGrid() ParamGrid {
	p := DefaultParams()
	return ParamGrid{
		MinSamplesSplit: []int{p.MinSamplesSplit},
		NEstimators:     []int{p.NEstimators},
		NGramRanges:     [][2]int{p.NGramRange},
	}
}

// Combinations returns every point of the grid. The n-gram range varies
// fastest, then the number of trees, then min_samples_split.
func (g ParamGrid) Combinations() []Params {
	var out []Params
	for _, mss := range g.MinSamplesSplit {
		for _, ne := range g.NEstimators {
			for _, ng := range g.NGramRanges {
				out = append(out, Params{MinSamplesSplit: mss, NEstimators: ne, NGramRange: ng})
			}
		}
	}
	return out
}

// Validate checks every grid value.
func (g ParamGrid) Validate() error {
	if len(g.Combinations()) == 0 {
		return fmt.Errorf("%w: empty parameter grid", ErrInvalidParams)
	}
	for _, v := range g.MinSamplesSplit {
		if v < 2 {
			return fmt.Errorf("%w: min_samples_split must be at least 2, got %d", ErrInvalidParams, v)
		}
	}
	for _, v := range g.NEstimators {
		if v < 1 {
			return fmt.Errorf("%w: n_estimators must be at least 1, got %d", ErrInvalidParams, v)
		}
	}
	for _, r := range g.NGramRanges {
		if r[0] < 1 || r[1] < r[0] {
			return fmt.Errorf("%w: ngram_range (%d, %d)", ErrInvalidParams, r[0], r[1])
		}
	}
	return nil
}

// ParseNGramRange parses "min,max" (or a single "n") into an n-gram range.
func ParseNGramRange(s string) ([2]int, error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(s), "()"), ",")
	if len(parts) > 2 {
		return [2]int{}, fmt.Errorf("%w: ngram_range %q", ErrInvalidParams, s)
	}
	var r [2]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return [2]int{}, fmt.Errorf("%w: ngram_range %q", ErrInvalidParams, s)
		}
		r[i] = n
	}
	if len(parts) == 1 {
		r[1] = r[0]
	}
	if r[0] < 1 || r[1] < r[0] {
		return [2]int{}, fmt.Errorf("%w: ngram_range %q", ErrInvalidParams, s)
	}
	return r, nil
}
