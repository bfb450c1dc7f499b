package codec

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrUnknownEnum is wrapped by DecodeError when an enum value is outside the
// declared set and the codec rejects unknown values.
var ErrUnknownEnum = errors.New("unknown enum value")

// DecodeError reports a document value that cannot be coerced to the declared
// shape of its destination.
type DecodeError struct {
	Path string // dotted field path, e.g. signups[1].status
	Want string // destination shape and type
	Got  string // Go type of the document value
	Err  error  // underlying cause, may be nil
}

func (e *DecodeError) Error() string {
	path := e.Path
	if path == "" {
		path = "document"
	}
	msg := fmt.Sprintf("codec: decode %s: want %s, got %s", path, e.Want, e.Got)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// TypeError reports a Go type the codec cannot describe.
type TypeError struct {
	Type   reflect.Type
	Reason string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("codec: unsupported type %v: %s", e.Type, e.Reason)
}

func decodeErr(path string, d *Descriptor, got any, err error) error {
	return &DecodeError{
		Path: path,
		Want: fmt.Sprintf("%s %v", d.Shape, d.Type),
		Got:  typeName(got),
		Err:  err,
	}
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	return reflect.TypeOf(v).String()
}
