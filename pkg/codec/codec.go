// Package codec provides the serialization collaborator used to persist
// cached values. A Codec must round-trip every value it accepts.
//
// Decoded content is never validated: a codec must only be pointed at
// trusted storage. Deserializing attacker-controlled bytes is outside
// the safety guarantees of this package.
package codec

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
)

// Codec serializes cached values to bytes and back
type Codec interface {
	// Marshal serializes a value to bytes
	Marshal(v any) ([]byte, error)

	// Unmarshal deserializes bytes into the value pointed to by v
	Unmarshal(data []byte, v any) error

	// Name returns the name/identifier of the codec
	Name() string
}

// Default returns the codec used when none is configured
func Default() Codec {
	return JSONCodec{}
}

// JSONCodec serializes values as JSON. It is the default because it is
// portable across processes and debuggable in the backend.
type JSONCodec struct{}

// Marshal serializes a value to JSON
func (JSONCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return data, nil
}

// Unmarshal deserializes JSON into the value pointed to by v
func (JSONCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	return nil
}

// Name returns the codec name
func (JSONCodec) Name() string { return "json" }

// GobCodec serializes values with encoding/gob. It round-trips Go types
// JSON cannot (e.g. map keys that are not strings) but is not portable
// to non-Go readers.
type GobCodec struct{}

// Marshal serializes a value with gob
func (GobCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal deserializes gob data into the value pointed to by v
func (GobCodec) Unmarshal(data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("gob decode: %w", err)
	}
	return nil
}

// Name returns the codec name
func (GobCodec) Name() string { return "gob" }

// Ensure interfaces are implemented
var (
	_ Codec = JSONCodec{}
	_ Codec = GobCodec{}
)
