package classifier

import (
	"fmt"
	"math"
	"math/rand"
)

// TrainTestSplit shuffles n row indices and holds out ceil(testSize*n) of them.
func TrainTestSplit(n int, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("%w: test size must be in (0, 1), got %v", ErrInvalidSplit, testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return nil, nil, fmt.Errorf("%w: %d samples cannot be split with test size %v", ErrInvalidSplit, n, testSize)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// KFold returns k contiguous, unshuffled test folds over n rows. The first n%k
// folds hold one extra row.
func KFold(n, k int) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("%w: need at least 2 folds, got %d", ErrInvalidSplit, k)
	}
	if n < k {
		return nil, fmt.Errorf("%w: cannot make %d folds from %d samples", ErrInvalidSplit, k, n)
	}

	folds := make([][]int, k)
	start := 0
	for f := range folds {
		size := n / k
		if f < n%k {
			size++
		}
		folds[f] = make([]int, size)
		for i := range folds[f] {
			folds[f][i] = start + i
		}
		start += size
	}
	return folds, nil
}

// complement returns the indices in [0, n) not present in fold.
func complement(n int, fold []int) []int {
	in := make(map[int]struct{}, len(fold))
	for _, i := range fold {
		in[i] = struct{}{}
	}
	out := make([]int, 0, n-len(fold))
	for i := 0; i < n; i++ {
		if _, ok := in[i]; !ok {
			out = append(out, i)
		}
	}
	return out
}

func pick[T any](src []T, indices []int) []T {
	out := make([]T, len(indices))
	for i, idx := range indices {
		out[i] = src[idx]
	}
	return out
}
