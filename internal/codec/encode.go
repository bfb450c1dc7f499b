package codec

import (
	"fmt"
	"reflect"
	"time"
)

func (c *Codec) encode(d *Descriptor, v reflect.Value) (any, error) {
	switch d.Shape {
	case ShapeScalar:
		return encodeScalar(v), nil

	case ShapeEnum:
		if v.String() == "" {
			return nil, nil
		}
		return v.String(), nil

	case ShapeOptional:
		if v.IsNil() {
			return nil, nil
		}
		return c.encodePresent(d.Elem, v.Elem())

	case ShapeSequence:
		out := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			item, err := c.encode(d.Elem, v.Index(i))
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil

	case ShapeSet:
		out := make([]any, 0, v.Len())
		seen := make(map[any]struct{}, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem := v.Index(i)
			if _, dup := seen[elem.Interface()]; dup {
				continue
			}
			seen[elem.Interface()] = struct{}{}
			item, err := c.encode(d.Elem, elem)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil

	case ShapeMap:
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key, err := encodeKey(d.Key, iter.Key())
			if err != nil {
				return nil, err
			}
			item, err := c.encode(d.Elem, iter.Value())
			if err != nil {
				return nil, err
			}
			out[key] = item
		}
		return out, nil

	case ShapeRecord:
		out := make(Document, len(d.Fields))
		for _, f := range d.Fields {
			item, err := c.encode(f.Desc, v.Field(f.Index))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
			out[f.Name] = item
		}
		return out, nil

	case ShapeIdentifier:
		id := v.Interface().(identifier)
		if id.IsZero() {
			return nil, nil
		}
		text, err := id.MarshalText()
		if err != nil {
			return nil, err
		}
		return map[string]any{"value": string(text), "prefix": id.Prefix()}, nil

	case ShapeDuration:
		return time.Duration(v.Int()).Seconds(), nil

	case ShapeInstant:
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return nil, nil
		}
		return t.UTC(), nil
	}

	return nil, &TypeError{Type: d.Type, Reason: "unknown shape " + d.Shape.String()}
}

// encodePresent encodes the target of a non-nil pointer. Zero enums and
// instants keep their value so a present field does not decode as absent.
func (c *Codec) encodePresent(d *Descriptor, v reflect.Value) (any, error) {
	switch d.Shape {
	case ShapeEnum:
		return v.String(), nil
	case ShapeInstant:
		return v.Interface().(time.Time).UTC(), nil
	}
	return c.encode(d, v)
}

// encodeScalar strips named types down to the document scalar set.
func encodeScalar(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return v.String()
	}
	return v.Interface()
}

func encodeKey(d *Descriptor, k reflect.Value) (string, error) {
	if d.Shape == ShapeIdentifier {
		text, err := k.Interface().(identifier).MarshalText()
		if err != nil {
			return "", err
		}
		return string(text), nil
	}
	return k.String(), nil
}
