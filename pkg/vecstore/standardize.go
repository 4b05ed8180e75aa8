package vecstore

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Standardizer rescales each dimension to zero mean and unit variance.
// Dimensions that are constant over the fitted set pass through centered
// but unscaled.
type Standardizer struct {
	Mean []float64
	Std  []float64
}

// Fit computes per-dimension mean and population standard deviation over
// vectors, which must all share one length.
func Fit(vectors [][]float32) (*Standardizer, error) {
	if len(vectors) == 0 {
		return &Standardizer{}, nil
	}
	dim := len(vectors[0])
	col := make([]float64, len(vectors))
	s := &Standardizer{Mean: make([]float64, dim), Std: make([]float64, dim)}
	for d := range dim {
		for i, v := range vectors {
			if len(v) != dim {
				return nil, fmt.Errorf("%w: vector %d has %d, want %d", ErrDimension, i, len(v), dim)
			}
			col[i] = float64(v[d])
		}
		mean, variance := stat.PopMeanVariance(col, nil)
		s.Mean[d] = mean
		s.Std[d] = math.Sqrt(variance)
	}
	return s, nil
}

// Apply returns the standardized copy of v. A Standardizer fitted on an
// empty set returns v unchanged.
func (s *Standardizer) Apply(v []float32) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		if i >= len(s.Mean) {
			out[i] = x
			continue
		}
		y := float64(x) - s.Mean[i]
		if s.Std[i] > 1e-12 {
			y /= s.Std[i]
		}
		out[i] = float32(y)
	}
	return out
}
