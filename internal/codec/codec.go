package codec

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Document is the schema-less form of a record: string-keyed maps, lists and
// scalars (bool, int64, uint64, float64, string, time.Time, nil).
type Document = map[string]any

// UnknownEnumPolicy decides what happens when a stored enum value is outside
// the declared set.
type UnknownEnumPolicy int

const (
	// RejectUnknownEnums fails decoding with a DecodeError wrapping ErrUnknownEnum.
	RejectUnknownEnums UnknownEnumPolicy = iota
	// KeepUnknownEnums stores the raw value; record validation will flag it.
	KeepUnknownEnums
)

// ParseUnknownEnumPolicy parses "reject" or "keep".
func ParseUnknownEnumPolicy(s string) (UnknownEnumPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return RejectUnknownEnums, nil
	case "keep":
		return KeepUnknownEnums, nil
	}
	return RejectUnknownEnums, fmt.Errorf("unknown enum policy %q (want reject or keep)", s)
}

func (p UnknownEnumPolicy) String() string {
	if p == KeepUnknownEnums {
		return "keep"
	}
	return "reject"
}

// Option configures a Codec.
type Option func(*Codec)

// WithUnknownEnums sets the unknown enum policy.
func WithUnknownEnums(p UnknownEnumPolicy) Option {
	return func(c *Codec) { c.unknownEnums = p }
}

// Codec converts records to documents and back. It is safe for concurrent use.
type Codec struct {
	unknownEnums UnknownEnumPolicy

	mu          sync.RWMutex
	descriptors map[reflect.Type]*Descriptor
}

// New creates a Codec.
func New(opts ...Option) *Codec {
	c := &Codec{descriptors: make(map[reflect.Type]*Descriptor)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Describe returns the descriptor for t, building it on first use.
func (c *Codec) Describe(t reflect.Type) (*Descriptor, error) {
	c.mu.RLock()
	d, ok := c.descriptors[t]
	c.mu.RUnlock()
	if ok {
		return d, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	b := &describer{cache: c.descriptors}
	return b.describe(t)
}

// Encode converts a record (struct or pointer to struct) to a Document.
func (c *Codec) Encode(v any) (Document, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("codec: encode nil %v", rv.Type())
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("codec: encode expects a struct, got %v", rv.Type())
	}

	d, err := c.Describe(rv.Type())
	if err != nil {
		return nil, err
	}
	out, err := c.encode(d, rv)
	if err != nil {
		return nil, err
	}
	doc, ok := out.(Document)
	if !ok {
		return nil, fmt.Errorf("codec: %v did not encode to a document", rv.Type())
	}
	return doc, nil
}

// EncodeValue converts any describable value to its document form.
func (c *Codec) EncodeValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	d, err := c.Describe(rv.Type())
	if err != nil {
		return nil, err
	}
	return c.encode(d, rv)
}

// Decode fills the record pointed to by dst from doc. Fields absent from doc
// keep their zero value.
func (c *Codec) Decode(doc Document, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("codec: decode destination must be a non-nil pointer, got %T", dst)
	}
	d, err := c.Describe(rv.Elem().Type())
	if err != nil {
		return err
	}
	return c.decode(d, doc, rv.Elem(), "")
}

// DecodeValue decodes an arbitrary document value into dst.
func (c *Codec) DecodeValue(v any, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("codec: decode destination must be a non-nil pointer, got %T", dst)
	}
	d, err := c.Describe(rv.Elem().Type())
	if err != nil {
		return err
	}
	return c.decode(d, v, rv.Elem(), "")
}

// DecodeAs decodes doc into a new T.
func DecodeAs[T any](c *Codec, doc Document) (T, error) {
	var out T
	if err := c.Decode(doc, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
