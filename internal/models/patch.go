package models

import "encoding/json"

// Field is one key of a partial update. Set reports whether the key was sent;
// Set with a nil Value means the client sent an explicit null.
type Field[T any] struct {
	Set   bool
	Value *T
}

func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

type fieldValue interface {
	present() bool
	value() any
}

func (f Field[T]) present() bool { return f.Set }

func (f Field[T]) value() any {
	if f.Value == nil {
		return nil
	}
	return *f.Value
}

func marshalFields(fields map[string]fieldValue) ([]byte, error) {
	out := make(map[string]any, len(fields))
	for key, f := range fields {
		if f.present() {
			out[key] = f.value()
		}
	}
	return json.Marshal(out)
}
