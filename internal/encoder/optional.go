package encoder

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Opt is an optional input field: either present with a value or absent.
// Decoding never fails. JSON null, a missing key, or a value that cannot be
// coerced to T all decode as absent. Quoted scalars ("250", "true") are
// coerced when the unquoted form fits T, and integral floats (250.0) are
// accepted for integer T.
type Opt[T any] struct {
	value T
	ok    bool
}

func Some[T any](v T) Opt[T] {
	return Opt[T]{value: v, ok: true}
}

func None[T any]() Opt[T] {
	return Opt[T]{}
}

func (o Opt[T]) Get() (T, bool) {
	return o.value, o.ok
}

func (o Opt[T]) Present() bool {
	return o.ok
}

// Or returns the value when present, otherwise def.
func (o Opt[T]) Or(def T) T {
	if o.ok {
		return o.value
	}
	return def
}

func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	*o = Opt[T]{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if v, ok := coerce[T](data); ok {
		*o = Some(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if v, ok := coerce[T]([]byte(s)); ok {
		*o = Some(v)
	}
	return nil
}

// maxExactInt is the largest magnitude a float64 holds without losing integers.
const maxExactInt = 1 << 53

func coerce[T any](data []byte) (T, bool) {
	var v T
	if err := json.Unmarshal(data, &v); err == nil {
		return v, true
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return v, false
	}
	if math.Trunc(f) != f || math.Abs(f) > maxExactInt {
		return v, false
	}
	if err := json.Unmarshal([]byte(strconv.FormatInt(int64(f), 10)), &v); err != nil {
		return v, false
	}
	return v, true
}

func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

type number interface {
	~int | ~int64 | ~float64
}

// orNonZero treats a present zero like an absent value. Numeric inputs of 0
// are not meaningful for any physical or performance attribute.
func orNonZero[T number](o Opt[T], def T) T {
	if v, ok := o.Get(); ok && v != 0 {
		return v
	}
	return def
}

// orNonEmpty treats a present empty string like an absent value.
func orNonEmpty(o Opt[string], def string) string {
	if v, ok := o.Get(); ok && v != "" {
		return v
	}
	return def
}
