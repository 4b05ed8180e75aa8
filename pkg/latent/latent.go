// Package latent holds the latent representation of a sound: a map from
// descriptor name to a scalar, a vector, or a nested map of the same.
//
// Maps are aggregated with Average (plain mean over samples) and Blend
// (weighted mean over prototypes). Both take the union of keys; each key is
// averaged over the maps that carry it. Nested maps are aggregated
// recursively.
package latent

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
)

// Descriptor keys produced by the feature extractor.
const (
	KeyValence     = "emotional_valence"
	KeyEnergy      = "energy_level"
	KeyComplexity  = "temporal_complexity"
	KeyHarmonic    = "harmonic_richness"
	KeyTrajectory  = "spectral_trajectory"
	KeyTexture     = "textural_density"
	KeyTimbre      = "timbre_vector"
	KeyOnsets      = "onset_pattern"
	KeyPitch       = "pitch_profile"
	KeyOpenness    = "spatial_openness"
	KeyMeanIOI     = "mean_ioi"
	KeyIOIVariance = "ioi_variance"
	KeyNumOnsets   = "num_onsets"
	KeyMeanPitch   = "mean_pitch"
	KeyPitchRange  = "pitch_range"
	KeyPitchVar    = "pitch_variance"
)

var (
	// ErrEmpty is returned when there is nothing to aggregate.
	ErrEmpty = errors.New("latent: nothing to aggregate")

	// ErrKindMismatch is returned when one key holds values of different
	// kinds across maps.
	ErrKindMismatch = errors.New("latent: value kinds differ")

	// ErrShapeMismatch is returned when vectors under one key differ in
	// length.
	ErrShapeMismatch = errors.New("latent: vector lengths differ")

	// ErrBadWeights is returned for weights that are negative, not finite,
	// all zero, or not one per map.
	ErrBadWeights = errors.New("latent: invalid weights")

	// ErrInvalidValue is returned when decoding something that is neither a
	// number, a list of numbers, nor an object.
	ErrInvalidValue = errors.New("latent: invalid value")
)

// Kind identifies what a Value holds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindScalar
	KindVector
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVector:
		return "vector"
	case KindMap:
		return "map"
	}
	return "invalid"
}

// Value is a scalar, a vector or a nested Map.
type Value struct {
	kind   Kind
	scalar float64
	vector []float64
	nested Map
}

// Scalar returns a scalar value.
func Scalar(v float64) Value {
	return Value{kind: KindScalar, scalar: v}
}

// Vector returns a vector value holding a copy of v.
func Vector(v ...float64) Value {
	return Value{kind: KindVector, vector: slices.Clone(v)}
}

// Nested returns a value wrapping m.
func Nested(m Map) Value {
	if m == nil {
		m = Map{}
	}
	return Value{kind: KindMap, nested: m}
}

// Kind returns the kind of value held.
func (v Value) Kind() Kind {
	return v.kind
}

// Float returns the scalar, if v is one.
func (v Value) Float() (float64, bool) {
	return v.scalar, v.kind == KindScalar
}

// Floats returns the vector, if v is one. The slice is shared.
func (v Value) Floats() ([]float64, bool) {
	return v.vector, v.kind == KindVector
}

// Map returns the nested map, if v is one.
func (v Value) Map() (Map, bool) {
	return v.nested, v.kind == KindMap
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindVector:
		return Vector(v.vector...)
	case KindMap:
		return Nested(v.nested.Clone())
	}
	return v
}

func (v Value) String() string {
	switch v.kind {
	case KindScalar:
		return fmt.Sprintf("%g", v.scalar)
	case KindVector:
		return fmt.Sprintf("%g", v.vector)
	case KindMap:
		return fmt.Sprint(map[string]Value(v.nested))
	}
	return "<invalid>"
}

// Map is a latent representation keyed by descriptor name.
type Map map[string]Value

// Keys returns the keys of m in sorted order.
func (m Map) Keys() []string {
	return slices.Sorted(maps.Keys(m))
}

// Clone returns a deep copy of m.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

// Float returns the scalar stored at key, or 0 if it is missing or not a
// scalar.
func (m Map) Float(key string) float64 {
	f, _ := m[key].Float()
	return f
}

// Lookup follows a path of keys through nested maps.
func (m Map) Lookup(path ...string) (Value, bool) {
	cur := m
	for i, key := range path {
		v, ok := cur[key]
		if !ok {
			return Value{}, false
		}
		if i == len(path)-1 {
			return v, true
		}
		if cur, ok = v.Map(); !ok {
			return Value{}, false
		}
	}
	return Value{}, false
}

// Validate checks that every value is well formed and finite.
func (m Map) Validate() error {
	for _, k := range m.Keys() {
		if err := m[k].validate(); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}
	return nil
}

func (v Value) validate() error {
	switch v.kind {
	case KindScalar:
		if !finite(v.scalar) {
			return fmt.Errorf("%w: %v", ErrInvalidValue, v.scalar)
		}
	case KindVector:
		for _, f := range v.vector {
			if !finite(f) {
				return fmt.Errorf("%w: %v", ErrInvalidValue, f)
			}
		}
	case KindMap:
		return v.nested.Validate()
	default:
		return ErrInvalidValue
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
