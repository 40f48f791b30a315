package fncache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"runtime"
	"strconv"
	"strings"
)

// Param describes one declared parameter of a cached function
type Param struct {
	// Name is the parameter name. A leading underscore marks the
	// parameter as ignored: it never contributes to fingerprints and
	// its value may be unencodable.
	Name string

	// Type is the declared parameter type
	Type reflect.Type

	// Default is the value bound when the argument is not supplied.
	// Only consulted when HasDefault is true.
	Default    any
	HasDefault bool
}

// Ignored reports whether this parameter is excluded from fingerprints
func (p Param) Ignored() bool {
	return strings.HasPrefix(p.Name, "_")
}

// Signature is the canonical parameter list of a cached function,
// built once when the function is wrapped. Parameter order is stable
// and matches the function's declared order.
type Signature struct {
	funcName string
	params   []Param
	digest   string
}

// NewSignature builds a Signature for the function identified by
// funcName with the given parameters, in declared order. Duplicate
// parameter names panic: a signature like that cannot be bound.
func NewSignature(funcName string, params ...Param) *Signature {
	seen := make(map[string]struct{}, len(params))
	for _, p := range params {
		if _, dup := seen[p.Name]; dup {
			panic(fmt.Sprintf("fncache: duplicate parameter %q in signature for %s", p.Name, funcName))
		}
		seen[p.Name] = struct{}{}
	}

	return &Signature{
		funcName: funcName,
		params:   params,
		digest:   signatureDigest(funcName, params),
	}
}

// FuncSignature derives a Signature from fn via reflection. Parameter
// names may be supplied in declared order; missing names default to
// arg0..argN. A leading context.Context parameter is not part of the
// signature (it carries cancellation, not cache-relevant input).
func FuncSignature(fn any, paramNames ...string) (*Signature, error) {
	fnValue := reflect.ValueOf(fn)
	fnType := fnValue.Type()
	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("fncache: not a function: %T", fn)
	}

	funcName := qualifiedFuncName(fnValue)

	start := 0
	if fnType.NumIn() > 0 && fnType.In(0) == contextType {
		start = 1
	}

	numParams := fnType.NumIn() - start
	if len(paramNames) > numParams {
		return nil, fmt.Errorf("fncache: %d parameter names given for %d parameters of %s", len(paramNames), numParams, funcName)
	}

	params := make([]Param, numParams)
	for i := 0; i < numParams; i++ {
		name := "arg" + strconv.Itoa(i)
		if i < len(paramNames) && paramNames[i] != "" {
			name = paramNames[i]
		}
		params[i] = Param{Name: name, Type: fnType.In(start + i)}
	}

	return NewSignature(funcName, params...), nil
}

// FuncName returns the qualified identity of the signature's function
func (s *Signature) FuncName() string {
	return s.funcName
}

// Params returns the declared parameters in canonical order
func (s *Signature) Params() []Param {
	return s.params
}

// Digest returns a stable digest of the parameter list. It is folded
// into every fingerprint, so changing a function's parameters
// invalidates previously stored keys.
func (s *Signature) Digest() string {
	return s.digest
}

// Bind normalizes positional and named arguments to the canonical
// parameter order. Every parameter ends up with a value: supplied,
// or its default. The returned slice includes ignored parameters so
// the wrapped function can still receive them unmodified.
func (s *Signature) Bind(positional []any, named map[string]any) ([]any, error) {
	if len(positional) > len(s.params) {
		return nil, &BindingError{
			Func:   s.funcName,
			Reason: fmt.Sprintf("takes %d arguments but %d were given", len(s.params), len(positional)),
		}
	}

	index := make(map[string]int, len(s.params))
	for i, p := range s.params {
		index[p.Name] = i
	}

	bound := make([]any, len(s.params))
	have := make([]bool, len(s.params))

	for i, v := range positional {
		bound[i] = v
		have[i] = true
	}

	for name, v := range named {
		i, ok := index[name]
		if !ok {
			return nil, &BindingError{
				Func:   s.funcName,
				Reason: fmt.Sprintf("unknown parameter %q", name),
			}
		}
		if have[i] {
			return nil, &BindingError{
				Func:   s.funcName,
				Reason: fmt.Sprintf("multiple values for parameter %q", name),
			}
		}
		bound[i] = v
		have[i] = true
	}

	for i, p := range s.params {
		if have[i] {
			continue
		}
		if !p.HasDefault {
			return nil, &BindingError{
				Func:   s.funcName,
				Reason: fmt.Sprintf("missing required parameter %q", p.Name),
			}
		}
		bound[i] = p.Default
	}

	return bound, nil
}

// signatureDigest hashes the parameter list so fingerprints change when
// a function's declared parameters do
func signatureDigest(funcName string, params []Param) string {
	h := sha256.New()
	h.Write([]byte(funcName))
	for _, p := range params {
		h.Write([]byte{0})
		h.Write([]byte(p.Name))
		h.Write([]byte{0})
		if p.Type != nil {
			h.Write([]byte(p.Type.String()))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// qualifiedFuncName resolves a function value to its package-qualified
// name, falling back to the type string for non-addressable values
func qualifiedFuncName(fnValue reflect.Value) string {
	if f := runtime.FuncForPC(fnValue.Pointer()); f != nil {
		return f.Name()
	}
	return fnValue.Type().String()
}

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
