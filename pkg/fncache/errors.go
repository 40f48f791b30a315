package fncache

import (
	"fmt"
	"reflect"
)

// BindingError reports a call that does not match the declared
// signature. It is fatal to that call: nothing is looked up or cached.
type BindingError struct {
	// Func is the qualified identity of the function being called
	Func string

	// Reason describes the mismatch (missing parameter, unknown
	// parameter, too many arguments)
	Reason string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("fncache: binding %s: %s", e.Func, e.Reason)
}

// UnencodableArgumentError reports a non-ignored argument that cannot
// participate in a fingerprint: its type has no entry in the encoder
// table and is not one of the natively encodable kinds.
type UnencodableArgumentError struct {
	// Param is the name of the offending parameter
	Param string

	// Type is the runtime type of the argument value
	Type reflect.Type
}

func (e *UnencodableArgumentError) Error() string {
	return fmt.Sprintf("fncache: argument %q of type %s cannot be encoded; supply a type encoder", e.Param, e.Type)
}
