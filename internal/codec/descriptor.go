package codec

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Shape classifies how a Go type is written to and read from a document.
type Shape int

const (
	ShapeScalar Shape = iota
	ShapeEnum
	ShapeOptional
	ShapeSequence
	ShapeSet
	ShapeMap
	ShapeRecord
	ShapeIdentifier
	ShapeDuration
	ShapeInstant
)

var shapeNames = [...]string{
	ShapeScalar:     "scalar",
	ShapeEnum:       "enum",
	ShapeOptional:   "optional",
	ShapeSequence:   "sequence",
	ShapeSet:        "set",
	ShapeMap:        "map",
	ShapeRecord:     "record",
	ShapeIdentifier: "identifier",
	ShapeDuration:   "duration",
	ShapeInstant:    "instant",
}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

// Descriptor is the codec's view of a Go type. Descriptors are built once per
// type and shared by every Encode and Decode call on the same Codec.
type Descriptor struct {
	Shape  Shape
	Type   reflect.Type
	Fields []Field     // ShapeRecord
	Elem   *Descriptor // ShapeOptional, ShapeSequence, ShapeSet, ShapeMap values
	Key    *Descriptor // ShapeMap keys: ShapeScalar strings or ShapeIdentifier
}

// Field is one named member of a record descriptor.
type Field struct {
	Name  string
	Index int
	Desc  *Descriptor
}

// Field returns the named field of a record descriptor.
func (d *Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// identifier is implemented by typed entity identifiers. The pointer type must
// also implement encoding.TextUnmarshaler.
type identifier interface {
	encoding.TextMarshaler
	Prefix() string
	IsZero() bool
}

// enum is implemented by closed string enumerations.
type enum interface {
	Valid() bool
}

var (
	timeType          = reflect.TypeOf(time.Time{})
	durationType      = reflect.TypeOf(time.Duration(0))
	identifierType    = reflect.TypeOf((*identifier)(nil)).Elem()
	textUnmarshalType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	enumType          = reflect.TypeOf((*enum)(nil)).Elem()
)

const tagName = "doc"

// describer builds descriptors for a type graph. Records are registered before
// their fields are walked so self-referencing types terminate.
type describer struct {
	cache map[reflect.Type]*Descriptor
}

func (b *describer) describe(t reflect.Type) (*Descriptor, error) {
	if d, ok := b.cache[t]; ok {
		return d, nil
	}

	switch {
	case t == timeType:
		return b.store(&Descriptor{Shape: ShapeInstant, Type: t}), nil
	case t == durationType:
		return b.store(&Descriptor{Shape: ShapeDuration, Type: t}), nil
	case t.Implements(identifierType) && reflect.PointerTo(t).Implements(textUnmarshalType):
		return b.store(&Descriptor{Shape: ShapeIdentifier, Type: t}), nil
	case t.Kind() == reflect.String && t.Implements(enumType):
		return b.store(&Descriptor{Shape: ShapeEnum, Type: t}), nil
	}

	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return b.store(&Descriptor{Shape: ShapeScalar, Type: t}), nil

	case reflect.Pointer:
		elem, err := b.describe(t.Elem())
		if err != nil {
			return nil, err
		}
		return b.store(&Descriptor{Shape: ShapeOptional, Type: t, Elem: elem}), nil

	case reflect.Slice:
		elem, err := b.describe(t.Elem())
		if err != nil {
			return nil, err
		}
		return b.store(&Descriptor{Shape: ShapeSequence, Type: t, Elem: elem}), nil

	case reflect.Map:
		key, err := b.describe(t.Key())
		if err != nil {
			return nil, err
		}
		if !(key.Shape == ShapeIdentifier || (key.Shape == ShapeScalar && t.Key().Kind() == reflect.String) || key.Shape == ShapeEnum) {
			return nil, &TypeError{Type: t, Reason: "map keys must be strings, enums or identifiers"}
		}
		elem, err := b.describe(t.Elem())
		if err != nil {
			return nil, err
		}
		return b.store(&Descriptor{Shape: ShapeMap, Type: t, Key: key, Elem: elem}), nil

	case reflect.Struct:
		return b.describeRecord(t)
	}

	return nil, &TypeError{Type: t, Reason: "unsupported kind " + t.Kind().String()}
}

func (b *describer) describeRecord(t reflect.Type) (*Descriptor, error) {
	d := b.store(&Descriptor{Shape: ShapeRecord, Type: t})

	seen := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		name, opts := parseTag(sf)
		if name == "-" {
			continue
		}
		if _, dup := seen[name]; dup {
			delete(b.cache, t)
			return nil, &TypeError{Type: t, Reason: fmt.Sprintf("duplicate field name %q", name)}
		}
		seen[name] = struct{}{}

		fd, err := b.describe(sf.Type)
		if err != nil {
			delete(b.cache, t)
			return nil, err
		}
		if opts.set {
			if fd.Shape != ShapeSequence {
				delete(b.cache, t)
				return nil, &TypeError{Type: t, Reason: fmt.Sprintf("field %s: set option requires a slice", sf.Name)}
			}
			if !sf.Type.Elem().Comparable() {
				delete(b.cache, t)
				return nil, &TypeError{Type: t, Reason: fmt.Sprintf("field %s: set elements must be comparable", sf.Name)}
			}
			fd = &Descriptor{Shape: ShapeSet, Type: fd.Type, Elem: fd.Elem}
		}

		d.Fields = append(d.Fields, Field{Name: name, Index: i, Desc: fd})
	}
	return d, nil
}

func (b *describer) store(d *Descriptor) *Descriptor {
	b.cache[d.Type] = d
	return d
}

type tagOptions struct {
	set bool
}

// parseTag reads `doc:"name,set"`. Untagged fields use the lower-cased Go name.
func parseTag(sf reflect.StructField) (string, tagOptions) {
	tag, ok := sf.Tag.Lookup(tagName)
	if !ok {
		return strings.ToLower(sf.Name), tagOptions{}
	}
	name, rest, _ := strings.Cut(tag, ",")
	if name == "" {
		name = strings.ToLower(sf.Name)
	}
	var opts tagOptions
	for _, o := range strings.Split(rest, ",") {
		if o == "set" {
			opts.set = true
		}
	}
	return name, opts
}
