package latent

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Average returns the mean of maps. Every key from any map appears in the
// result, averaged over the maps that carry it.
func Average(maps ...Map) (Map, error) {
	if len(maps) == 0 {
		return nil, ErrEmpty
	}
	weights := make([]float64, len(maps))
	for i := range weights {
		weights[i] = 1
	}
	return blend(maps, weights)
}

// Blend returns the weighted mean of maps. A nil weights slice weighs every
// map equally. Each key is averaged over the maps that carry it, with their
// weights renormalised to sum to one; keys whose carriers all have zero
// weight are left out.
func Blend(maps []Map, weights []float64) (Map, error) {
	if len(maps) == 0 {
		return nil, ErrEmpty
	}
	if weights == nil {
		return Average(maps...)
	}
	if len(weights) != len(maps) {
		return nil, fmt.Errorf("%w: %d weights for %d maps", ErrBadWeights, len(weights), len(maps))
	}
	var total float64
	for i, w := range weights {
		if !finite(w) || w < 0 {
			return nil, fmt.Errorf("%w: weight %d is %v", ErrBadWeights, i, w)
		}
		total += w
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: all weights are zero", ErrBadWeights)
	}
	return blend(maps, weights)
}

func blend(maps []Map, weights []float64) (Map, error) {
	out := make(Map)
	for _, key := range unionKeys(maps) {
		var (
			vals []Value
			ws   []float64
		)
		for i, m := range maps {
			if v, ok := m[key]; ok {
				vals = append(vals, v)
				ws = append(ws, weights[i])
			}
		}
		v, ok, err := blendValues(vals, ws)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		if ok {
			out[key] = v
		}
	}
	return out, nil
}

func blendValues(vals []Value, ws []float64) (Value, bool, error) {
	kind := vals[0].kind
	for _, v := range vals[1:] {
		if v.kind != kind {
			return Value{}, false, fmt.Errorf("%w: %s and %s", ErrKindMismatch, kind, v.kind)
		}
	}
	total := floats.Sum(ws)
	if total == 0 {
		return Value{}, false, nil
	}

	switch kind {
	case KindScalar:
		var sum float64
		for i, v := range vals {
			sum += ws[i] * v.scalar
		}
		return Scalar(sum / total), true, nil

	case KindVector:
		n := len(vals[0].vector)
		sum := make([]float64, n)
		for i, v := range vals {
			if len(v.vector) != n {
				return Value{}, false, fmt.Errorf("%w: %d and %d", ErrShapeMismatch, n, len(v.vector))
			}
			floats.AddScaled(sum, ws[i], v.vector)
		}
		floats.Scale(1/total, sum)
		return Value{kind: KindVector, vector: sum}, true, nil

	case KindMap:
		nested := make([]Map, len(vals))
		for i, v := range vals {
			nested[i] = v.nested
		}
		m, err := blend(nested, ws)
		if err != nil {
			return Value{}, false, err
		}
		return Nested(m), true, nil
	}
	return Value{}, false, ErrInvalidValue
}

func unionKeys(maps []Map) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, m := range maps {
		for k := range m {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	slices.Sort(keys)
	return keys
}

// Flatten lays m out as a dense vector: keys in sorted order, vectors
// element by element, nested maps recursively. Maps with the same schema
// flatten to vectors of the same length.
func Flatten(m Map) []float32 {
	var out []float32
	for _, k := range m.Keys() {
		v := m[k]
		switch v.kind {
		case KindScalar:
			out = append(out, float32(v.scalar))
		case KindVector:
			for _, f := range v.vector {
				out = append(out, float32(f))
			}
		case KindMap:
			out = append(out, Flatten(v.nested)...)
		}
	}
	return out
}
