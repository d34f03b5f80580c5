package models

import (
	"bytes"
	"encoding/json"
)

// Optional records whether a JSON field was present in a request body and
// whether it was an explicit null. Used on update payloads where clearing a
// value must be told apart from leaving it untouched.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Some builds a present, non-null value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null builds a present null value.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// column returns the value to write for a present field.
func (o Optional[T]) column() interface{} {
	if o.Null {
		return nil
	}
	return o.Value
}

// Fields is the set of column updates built from the present fields
// of an update payload.
type Fields map[string]interface{}

func (f Fields) setString(column string, v *string) {
	if v != nil {
		f[column] = *v
	}
}

func (f Fields) setBool(column string, v *bool) {
	if v != nil {
		f[column] = *v
	}
}

func (f Fields) setInt(column string, v *int) {
	if v != nil {
		f[column] = *v
	}
}

func (f Fields) setFloat(column string, v *float64) {
	if v != nil {
		f[column] = *v
	}
}

func setOptional[T any](f Fields, column string, v Optional[T]) {
	if v.Set {
		f[column] = v.column()
	}
}
