package classifier

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Vector is a sparse row. Indices are strictly increasing.
type Vector struct {
	Indices []int
	Values  []float64
}

// Get returns the value at feature j, zero when absent.
func (v Vector) Get(j int) float64 {
	k := sort.SearchInts(v.Indices, j)
	if k < len(v.Indices) && v.Indices[k] == j {
		return v.Values[k]
	}
	return 0
}

// Norm returns the Euclidean norm of the vector.
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// nonZeroer is implemented by the sparse matrix formats.
type nonZeroer interface {
	DoNonZero(fn func(i, j int, v float64))
}

// documentRows splits a terms × docs matrix into one sparse row per document.
func documentRows(m mat.Matrix) []Vector {
	terms, docs := m.Dims()
	cols := make([]map[int]float64, docs)
	for d := range cols {
		cols[d] = make(map[int]float64)
	}
	add := func(term, doc int, v float64) {
		if v != 0 {
			cols[doc][term] = v
		}
	}

	if nz, ok := m.(nonZeroer); ok {
		nz.DoNonZero(add)
	} else {
		for i := 0; i < terms; i++ {
			for d := 0; d < docs; d++ {
				add(i, d, m.At(i, d))
			}
		}
	}

	out := make([]Vector, docs)
	for d, col := range cols {
		out[d] = newVector(col)
	}
	return out
}

// newVector builds a sparse vector from a feature → value map.
func newVector(m map[int]float64) Vector {
	v := Vector{
		Indices: make([]int, 0, len(m)),
		Values:  make([]float64, 0, len(m)),
	}
	for j := range m {
		v.Indices = append(v.Indices, j)
	}
	sort.Ints(v.Indices)
	for _, j := range v.Indices {
		v.Values = append(v.Values, m[j])
	}
	return v
}
