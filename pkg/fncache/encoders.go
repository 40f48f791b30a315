package fncache

import (
	"reflect"
)

// EncoderFunc converts an argument value to stable bytes for
// fingerprinting. The output must be deterministic: equal values
// produce equal bytes across processes.
type EncoderFunc func(value any) ([]byte, error)

// EncoderTable maps exact argument types to their encoders. The table
// is consulted before the native encoding rules, so an entry here
// overrides the built-in handling for that type.
type EncoderTable map[reflect.Type]EncoderFunc

// NewEncoderTable returns an empty table ready for registration
func NewEncoderTable() EncoderTable {
	return make(EncoderTable)
}

// Register adds an encoder for the exact type of the zero value of T.
// Registration matches on exact types only: an encoder for *User does
// not cover User, and vice versa.
func Register[T any](table EncoderTable, fn func(T) ([]byte, error)) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	table[t] = func(value any) ([]byte, error) {
		return fn(value.(T))
	}
}

// Lookup returns the encoder registered for t, if any
func (t EncoderTable) Lookup(typ reflect.Type) (EncoderFunc, bool) {
	if t == nil {
		return nil, false
	}
	fn, ok := t[typ]
	return fn, ok
}

// Merge returns a new table combining t with overrides. Entries in
// overrides win on conflict; neither input is modified.
func (t EncoderTable) Merge(overrides EncoderTable) EncoderTable {
	merged := make(EncoderTable, len(t)+len(overrides))
	for typ, fn := range t {
		merged[typ] = fn
	}
	for typ, fn := range overrides {
		merged[typ] = fn
	}
	return merged
}
