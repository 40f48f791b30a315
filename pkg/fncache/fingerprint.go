package fncache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// Fingerprint hashes the function identity, the signature digest and
// every non-ignored bound argument into a stable hex key. Arguments
// are length-framed before hashing so adjacent values cannot collide
// by concatenation.
func (s *Signature) Fingerprint(encoders EncoderTable, positional []any, named map[string]any) (string, error) {
	bound, err := s.Bind(positional, named)
	if err != nil {
		return "", err
	}
	return s.FingerprintBound(encoders, bound)
}

// FingerprintBound fingerprints arguments already normalized to the
// canonical parameter order, as returned by Bind
func (s *Signature) FingerprintBound(encoders EncoderTable, bound []any) (string, error) {
	h := sha256.New()
	h.Write([]byte(s.funcName))
	h.Write([]byte{0})
	h.Write([]byte(s.digest))

	var frame [binary.MaxVarintLen64]byte
	for i, p := range s.params {
		if p.Ignored() {
			continue
		}
		encoded, err := encodeValue(encoders, p.Name, bound[i])
		if err != nil {
			return "", err
		}
		n := binary.PutUvarint(frame[:], uint64(len(encoded)))
		h.Write(frame[:n])
		h.Write(encoded)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// encodeValue produces deterministic bytes for a single argument.
// Registered encoders take precedence over native kind handling, so
// callers can override the representation of any exact type.
func encodeValue(encoders EncoderTable, param string, value any) ([]byte, error) {
	if value == nil {
		return []byte("nil"), nil
	}

	if fn, ok := encoders.Lookup(reflect.TypeOf(value)); ok {
		encoded, err := fn(value)
		if err != nil {
			return nil, fmt.Errorf("fncache: encoder for argument %q: %w", param, err)
		}
		return encoded, nil
	}

	return encodeReflect(encoders, param, reflect.ValueOf(value))
}

func encodeReflect(encoders EncoderTable, param string, v reflect.Value) ([]byte, error) {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return []byte("b:1"), nil
		}
		return []byte("b:0"), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.AppendInt([]byte("i:"), v.Int(), 10), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.AppendUint([]byte("u:"), v.Uint(), 10), nil

	case reflect.Float32, reflect.Float64:
		// Hash the bit pattern so -0 and NaN payloads stay distinct
		// and formatting never varies.
		var buf [10]byte
		buf[0], buf[1] = 'f', ':'
		binary.BigEndian.PutUint64(buf[2:], math.Float64bits(v.Float()))
		return buf[:], nil

	case reflect.String:
		return append([]byte("s:"), v.String()...), nil

	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return []byte("nil"), nil
		}
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			return append([]byte("y:"), v.Bytes()...), nil
		}
		return encodeSequence(encoders, param, v)

	case reflect.Map:
		if v.IsNil() {
			return []byte("nil"), nil
		}
		return encodeMap(encoders, param, v)

	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return []byte("nil"), nil
		}
		// Deref so *T fingerprints by value, not by address. An exact
		// encoder for the pointer type was already checked above.
		return encodeValue(encoders, param, v.Elem().Interface())

	case reflect.Struct:
		return encodeStruct(encoders, param, v)

	default:
		return nil, &UnencodableArgumentError{Param: param, Type: v.Type()}
	}
}

func encodeSequence(encoders EncoderTable, param string, v reflect.Value) ([]byte, error) {
	out := []byte("l:")
	var frame [binary.MaxVarintLen64]byte
	for i := 0; i < v.Len(); i++ {
		elem, err := encodeValue(encoders, param, v.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		n := binary.PutUvarint(frame[:], uint64(len(elem)))
		out = append(out, frame[:n]...)
		out = append(out, elem...)
	}
	return out, nil
}

// encodeMap frames each entry and sorts by encoded key, so iteration
// order never leaks into the fingerprint
func encodeMap(encoders EncoderTable, param string, v reflect.Value) ([]byte, error) {
	type pair struct {
		key   []byte
		value []byte
	}

	pairs := make([]pair, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		k, err := encodeValue(encoders, param, iter.Key().Interface())
		if err != nil {
			return nil, err
		}
		val, err := encodeValue(encoders, param, iter.Value().Interface())
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair{key: k, value: val})
	}

	sort.Slice(pairs, func(i, j int) bool {
		return string(pairs[i].key) < string(pairs[j].key)
	})

	out := []byte("m:")
	var frame [binary.MaxVarintLen64]byte
	for _, p := range pairs {
		n := binary.PutUvarint(frame[:], uint64(len(p.key)))
		out = append(out, frame[:n]...)
		out = append(out, p.key...)
		n = binary.PutUvarint(frame[:], uint64(len(p.value)))
		out = append(out, frame[:n]...)
		out = append(out, p.value...)
	}
	return out, nil
}

func encodeStruct(encoders EncoderTable, param string, v reflect.Value) ([]byte, error) {
	t := v.Type()
	out := append([]byte("t:"), t.String()...)
	var frame [binary.MaxVarintLen64]byte
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			return nil, &UnencodableArgumentError{Param: param, Type: t}
		}
		field, err := encodeValue(encoders, param, v.Field(i).Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, 0)
		out = append(out, f.Name...)
		n := binary.PutUvarint(frame[:], uint64(len(field)))
		out = append(out, frame[:n]...)
		out = append(out, field...)
	}
	return out, nil
}
