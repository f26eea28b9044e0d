package updaterequest

import "encoding/json"

// Field distinguishes three states of a proposed value: absent from the
// payload, explicitly null (clear the current value), or set to a value.
// A plain pointer cannot express the difference between absent and null,
// and both states matter here: absent fields must not overwrite anything,
// while null is itself a valid proposal.
type Field[T any] struct {
	set   bool
	null  bool
	value T
}

// Set returns a Field holding the given value.
func Set[T any](v T) Field[T] {
	return Field[T]{set: true, value: v}
}

// Null returns a Field proposing the value be cleared.
func Null[T any]() Field[T] {
	return Field[T]{set: true, null: true}
}

// IsSet reports whether the field appeared in the payload at all.
func (f Field[T]) IsSet() bool { return f.set }

// IsNull reports whether the field was submitted as an explicit null.
func (f Field[T]) IsNull() bool { return f.set && f.null }

// Value returns the submitted value and whether one was submitted
// (set and not null).
func (f Field[T]) Value() (T, bool) {
	if !f.set || f.null {
		var zero T
		return zero, false
	}
	return f.value, true
}

// Ptr returns the submitted value as a pointer, nil when the field is
// absent or null.
func (f Field[T]) Ptr() *T {
	if v, ok := f.Value(); ok {
		return &v
	}
	return nil
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.set = true
	if string(data) == "null" {
		f.null = true
		return nil
	}
	return json.Unmarshal(data, &f.value)
}
