package latent

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// JSON and MessagePack share one shape: a scalar is a number, a vector is
// an array of numbers and a nested map is an object.

var (
	_ json.Marshaler        = Value{}
	_ json.Unmarshaler      = (*Value)(nil)
	_ msgpack.CustomEncoder = Value{}
	_ msgpack.CustomDecoder = (*Value)(nil)
)

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindScalar:
		return json.Marshal(v.scalar)
	case KindVector:
		if v.vector == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.vector)
	case KindMap:
		return json.Marshal(map[string]Value(v.nested))
	}
	return nil, ErrInvalidValue
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (v Value) EncodeMsgpack(enc *msgpack.Encoder) error {
	switch v.kind {
	case KindScalar:
		return enc.EncodeFloat64(v.scalar)
	case KindVector:
		if err := enc.EncodeArrayLen(len(v.vector)); err != nil {
			return err
		}
		for _, f := range v.vector {
			if err := enc.EncodeFloat64(f); err != nil {
				return err
			}
		}
		return nil
	case KindMap:
		if err := enc.EncodeMapLen(len(v.nested)); err != nil {
			return err
		}
		for _, k := range v.nested.Keys() {
			if err := enc.EncodeString(k); err != nil {
				return err
			}
			if err := v.nested[k].EncodeMsgpack(enc); err != nil {
				return err
			}
		}
		return nil
	}
	return ErrInvalidValue
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (v *Value) DecodeMsgpack(dec *msgpack.Decoder) error {
	raw, err := dec.DecodeInterface()
	if err != nil {
		return err
	}
	out, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// FromAny converts a generic decoded document (numbers, slices of numbers,
// string-keyed maps) into a Value.
func FromAny(raw any) (Value, error) {
	if f, ok := toFloat(raw); ok {
		return Scalar(f), nil
	}
	switch x := raw.(type) {
	case []any:
		vec := make([]float64, len(x))
		for i, e := range x {
			f, ok := toFloat(e)
			if !ok {
				return Value{}, fmt.Errorf("%w: element %d is %T", ErrInvalidValue, i, e)
			}
			vec[i] = f
		}
		return Value{kind: KindVector, vector: vec}, nil
	case []float64:
		return Vector(x...), nil
	case map[string]any:
		m := make(Map, len(x))
		for k, e := range x {
			ev, err := FromAny(e)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			m[k] = ev
		}
		return Nested(m), nil
	}
	return Value{}, fmt.Errorf("%w: %T", ErrInvalidValue, raw)
}

func toFloat(raw any) (float64, bool) {
	switch x := raw.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}
