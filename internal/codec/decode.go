package codec

import (
	"encoding"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// zonelessLayouts are accepted for instants written without an offset; such
// values are read as UTC.
var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (c *Codec) decode(d *Descriptor, src any, dst reflect.Value, path string) error {
	if src == nil {
		dst.SetZero()
		return nil
	}

	switch d.Shape {
	case ShapeScalar:
		return decodeScalar(d, src, dst, path)

	case ShapeEnum:
		s, ok := src.(string)
		if !ok {
			return decodeErr(path, d, src, nil)
		}
		if s == "" {
			dst.SetZero()
			return nil
		}
		v := reflect.ValueOf(s).Convert(d.Type)
		if !v.Interface().(enum).Valid() && c.unknownEnums == RejectUnknownEnums {
			return decodeErr(path, d, src, fmt.Errorf("%w %q", ErrUnknownEnum, s))
		}
		dst.Set(v)
		return nil

	case ShapeOptional:
		elem := reflect.New(d.Type.Elem())
		if err := c.decode(d.Elem, src, elem.Elem(), path); err != nil {
			return err
		}
		dst.Set(elem)
		return nil

	case ShapeSequence, ShapeSet:
		return c.decodeList(d, src, dst, path)

	case ShapeMap:
		return c.decodeMap(d, src, dst, path)

	case ShapeRecord:
		m, ok := asMap(src)
		if !ok {
			return decodeErr(path, d, src, nil)
		}
		out := reflect.New(d.Type).Elem()
		for _, f := range d.Fields {
			raw, present := m[f.Name]
			if !present {
				continue
			}
			if err := c.decode(f.Desc, raw, out.Field(f.Index), joinPath(path, f.Name)); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil

	case ShapeIdentifier:
		return decodeIdentifier(d, src, dst, path)

	case ShapeDuration:
		secs, ok := asFloat(src)
		if !ok {
			return decodeErr(path, d, src, nil)
		}
		if err := checkSeconds(secs, maxDurationSeconds); err != nil {
			return decodeErr(path, d, src, err)
		}
		dst.SetInt(int64(math.Round(secs * float64(time.Second))))
		return nil

	case ShapeInstant:
		t, err := asInstant(src)
		if err != nil {
			return decodeErr(path, d, src, err)
		}
		dst.Set(reflect.ValueOf(t))
		return nil
	}

	return &TypeError{Type: d.Type, Reason: "unknown shape " + d.Shape.String()}
}

func (c *Codec) decodeList(d *Descriptor, src any, dst reflect.Value, path string) error {
	sv := reflect.ValueOf(src)
	if sv.Kind() != reflect.Slice && sv.Kind() != reflect.Array {
		return decodeErr(path, d, src, nil)
	}
	if sv.Len() == 0 {
		dst.SetZero()
		return nil
	}

	out := reflect.MakeSlice(d.Type, 0, sv.Len())
	var seen map[any]struct{}
	if d.Shape == ShapeSet {
		seen = make(map[any]struct{}, sv.Len())
	}
	for i := 0; i < sv.Len(); i++ {
		elem := reflect.New(d.Type.Elem()).Elem()
		if err := c.decode(d.Elem, sv.Index(i).Interface(), elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
		if seen != nil {
			if _, dup := seen[elem.Interface()]; dup {
				continue
			}
			seen[elem.Interface()] = struct{}{}
		}
		out = reflect.Append(out, elem)
	}
	dst.Set(out)
	return nil
}

func (c *Codec) decodeMap(d *Descriptor, src any, dst reflect.Value, path string) error {
	m, ok := asMap(src)
	if !ok {
		return decodeErr(path, d, src, nil)
	}
	if len(m) == 0 {
		dst.SetZero()
		return nil
	}

	out := reflect.MakeMapWithSize(d.Type, len(m))
	for k, raw := range m {
		itemPath := fmt.Sprintf("%s[%s]", path, k)
		key := reflect.New(d.Type.Key()).Elem()
		if d.Key.Shape == ShapeIdentifier {
			if err := key.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(k)); err != nil {
				return decodeErr(itemPath, d.Key, k, err)
			}
		} else {
			key.SetString(k)
			if d.Key.Shape == ShapeEnum && c.unknownEnums == RejectUnknownEnums && !key.Interface().(enum).Valid() {
				return decodeErr(itemPath, d.Key, k, fmt.Errorf("%w %q", ErrUnknownEnum, k))
			}
		}
		val := reflect.New(d.Type.Elem()).Elem()
		if err := c.decode(d.Elem, raw, val, itemPath); err != nil {
			return err
		}
		out.SetMapIndex(key, val)
	}
	dst.Set(out)
	return nil
}

// decodeIdentifier accepts {value, prefix}, the legacy {number, prefix} shape
// and bare canonical strings. A value without its prefix has the declared
// prefix prepended.
func decodeIdentifier(d *Descriptor, src any, dst reflect.Value, path string) error {
	prefix := reflect.Zero(d.Type).Interface().(identifier).Prefix()

	var text string
	switch v := src.(type) {
	case string:
		text = v
	default:
		m, ok := asMap(src)
		if !ok {
			return decodeErr(path, d, src, nil)
		}
		if p, ok := m["prefix"]; ok && p != nil {
			ps, ok := p.(string)
			if !ok || ps != prefix {
				return decodeErr(path, d, src, fmt.Errorf("prefix %v does not match %s", p, prefix))
			}
		}
		switch {
		case m["value"] != nil:
			s, ok := m["value"].(string)
			if !ok {
				return decodeErr(path, d, src, errors.New("value must be a string"))
			}
			text = s
		case m["number"] != nil:
			n, ok := asInt(m["number"])
			if !ok || n < 0 {
				return decodeErr(path, d, src, errors.New("number must be a non-negative integer"))
			}
			text = strconv.FormatInt(n, 10)
		default:
			return decodeErr(path, d, src, errors.New("missing value"))
		}
	}

	if !strings.HasPrefix(text, prefix) {
		text = prefix + text
	}
	if err := dst.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
		return decodeErr(path, d, src, err)
	}
	return nil
}

func decodeScalar(d *Descriptor, src any, dst reflect.Value, path string) error {
	switch dst.Kind() {
	case reflect.Bool:
		b, ok := src.(bool)
		if !ok {
			return decodeErr(path, d, src, nil)
		}
		dst.SetBool(b)

	case reflect.String:
		s, ok := src.(string)
		if !ok {
			return decodeErr(path, d, src, nil)
		}
		dst.SetString(s)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := asInt(src)
		if !ok {
			return decodeErr(path, d, src, nil)
		}
		if dst.OverflowInt(n) {
			return decodeErr(path, d, src, fmt.Errorf("%d overflows %v", n, d.Type))
		}
		dst.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := asUint(src)
		if !ok {
			return decodeErr(path, d, src, nil)
		}
		if dst.OverflowUint(n) {
			return decodeErr(path, d, src, fmt.Errorf("%d overflows %v", n, d.Type))
		}
		dst.SetUint(n)

	case reflect.Float32, reflect.Float64:
		f, ok := asFloat(src)
		if !ok {
			return decodeErr(path, d, src, nil)
		}
		dst.SetFloat(f)

	default:
		return &TypeError{Type: d.Type, Reason: "not a scalar"}
	}
	return nil
}

func asMap(src any) (map[string]any, bool) {
	if m, ok := src.(map[string]any); ok {
		return m, true
	}
	sv := reflect.ValueOf(src)
	if sv.Kind() != reflect.Map || sv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, sv.Len())
	iter := sv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// asInt accepts any numeric value holding an integer.
func asInt(src any) (int64, bool) {
	sv := reflect.ValueOf(src)
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return sv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := sv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		f := sv.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}

func asUint(src any) (uint64, bool) {
	sv := reflect.ValueOf(src)
	switch sv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return sv.Uint(), true
	}
	n, ok := asInt(src)
	if !ok || n < 0 {
		return 0, false
	}
	return uint64(n), true
}

func asFloat(src any) (float64, bool) {
	sv := reflect.ValueOf(src)
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(sv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(sv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return sv.Float(), true
	}
	return 0, false
}

// asInstant reads stored instants. Values without zone information are UTC.
func asInstant(src any) (time.Time, error) {
	switch v := src.(type) {
	case time.Time:
		return v.UTC(), nil
	case *time.Time:
		if v != nil {
			return v.UTC(), nil
		}
	case models.CustomDateTime:
		return v.Time.UTC(), nil
	case *models.CustomDateTime:
		if v != nil {
			return v.Time.UTC(), nil
		}
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t.UTC(), nil
		}
		for _, layout := range zonelessLayouts {
			if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized time %q", v)
	default:
		if secs, ok := asFloat(src); ok {
			if err := checkSeconds(secs, maxUnixSeconds); err != nil {
				return time.Time{}, err
			}
			whole, frac := math.Modf(secs)
			return time.Unix(int64(whole), int64(math.Round(frac*1e9))).UTC(), nil
		}
	}
	return time.Time{}, errors.New("not an instant")
}

const (
	// maxDurationSeconds is the largest magnitude time.Duration can hold.
	maxDurationSeconds = float64(math.MaxInt64) / float64(time.Second)
	// maxUnixSeconds is 9999-12-31T23:59:59Z.
	maxUnixSeconds = 253402300799
)

// checkSeconds rejects NaN, infinities and magnitudes beyond limit.
func checkSeconds(secs, limit float64) error {
	switch {
	case math.IsNaN(secs) || math.IsInf(secs, 0):
		return fmt.Errorf("%v seconds is not finite", secs)
	case math.Abs(secs) >= limit:
		return fmt.Errorf("%g seconds out of range", secs)
	}
	return nil
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
