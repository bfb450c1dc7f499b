// Package codec converts records to schema-less documents and back.
//
// A Codec walks a Descriptor built once per Go type from its struct fields and
// their `doc` tags. No record type is special-cased; the shape of each field
// is derived from its declared type:
//
//	time.Time        instant     UTC time.Time; zero encodes as null
//	time.Duration    duration    float64 seconds
//	identifier       identifier  {"value": "QUESH3X1T7", "prefix": "QUES"}
//	string w/ Valid  enum        the declared string value; empty encodes as null
//	*T               optional    null when nil
//	[]T              sequence    list, order kept
//	[]T `doc:",set"` set         list, duplicates dropped
//	map[K]V          map         string keys (identifiers use their canonical form)
//	struct           record      map of field name to value
//
// Identifiers are types implementing encoding.TextMarshaler, Prefix() and
// IsZero() whose pointer implements encoding.TextUnmarshaler.
//
// Decoding is driven by the destination type. Missing fields keep their zero
// value; a present value of the wrong shape fails with *DecodeError. Stored
// instants may be time.Time, SurrealDB datetimes, RFC 3339 strings, strings
// without an offset (read as UTC) or epoch seconds.
package codec
