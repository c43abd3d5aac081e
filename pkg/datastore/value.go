// ABOUTME: Recursive value model for Datastore properties
// ABOUTME: Closed tagged union over every storable variant

package datastore

import "time"

// ValueKind discriminates the variants of Value.
type ValueKind uint8

const (
	// KindOptional is a value that may wrap another value or be null.
	// The zero Value is an optional wrapping nothing, i.e. null.
	KindOptional ValueKind = iota
	KindBoolean
	KindInteger
	KindDouble
	KindTimestamp
	KindKey
	KindString
	KindBlob
	KindGeoPoint
	KindEntity
	KindArray
)

// GeoPoint is a geographic point in degrees.
type GeoPoint struct {
	Lat float64
	Lng float64
}

// Value represents a single storable datum. Exactly one group of fields is
// meaningful, selected by Kind. Values are built once and consumed by
// conversion; they are never mutated in place.
type Value struct {
	Kind ValueKind

	// Wrapped is the inner value of an optional; nil means null.
	Wrapped *Value

	Bool   bool
	Int    int64
	Double float64
	Time   time.Time
	Key    *Key
	Str    string
	Blob   []byte
	Geo    GeoPoint

	// Props holds the properties of an entity value. Property names are
	// unique within one entity; ordering is irrelevant.
	Props map[string]Value

	// Elems holds the elements of an array value, in order. The wire
	// protocol forbids an array directly inside an array.
	Elems []Value
}

// NewNullValue creates a null value.
func NewNullValue() Value {
	return Value{Kind: KindOptional}
}

// NewOptionalValue creates an optional wrapping v.
func NewOptionalValue(v Value) Value {
	return Value{Kind: KindOptional, Wrapped: &v}
}

// NewBooleanValue creates a boolean value.
func NewBooleanValue(b bool) Value {
	return Value{Kind: KindBoolean, Bool: b}
}

// NewIntegerValue creates a signed 64-bit integer value.
func NewIntegerValue(i int64) Value {
	return Value{Kind: KindInteger, Int: i}
}

// NewDoubleValue creates a double value.
func NewDoubleValue(f float64) Value {
	return Value{Kind: KindDouble, Double: f}
}

// NewTimestampValue creates a UTC timestamp value.
func NewTimestampValue(t time.Time) Value {
	return Value{Kind: KindTimestamp, Time: t.UTC()}
}

// NewKeyValue creates a value referencing another entity.
func NewKeyValue(k *Key) Value {
	return Value{Kind: KindKey, Key: k}
}

// NewStringValue creates a string value.
func NewStringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// NewBlobValue creates a raw bytes value.
func NewBlobValue(b []byte) Value {
	return Value{Kind: KindBlob, Blob: b}
}

// NewGeoPointValue creates a geographic point value.
func NewGeoPointValue(lat, lng float64) Value {
	return Value{Kind: KindGeoPoint, Geo: GeoPoint{Lat: lat, Lng: lng}}
}

// NewEntityValue creates a nested entity value from a property mapping.
func NewEntityValue(props map[string]Value) Value {
	return Value{Kind: KindEntity, Props: props}
}

// NewArrayValue creates an array value from elements.
func NewArrayValue(elems ...Value) Value {
	return Value{Kind: KindArray, Elems: elems}
}

// TypeName returns the variant name used in error messages.
func (v Value) TypeName() string {
	switch v.Kind {
	case KindOptional:
		return "optional"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindDouble:
		return "double"
	case KindTimestamp:
		return "timestamp"
	case KindKey:
		return "key"
	case KindString:
		return "string"
	case KindBlob:
		return "blob"
	case KindGeoPoint:
		return "geopoint"
	case KindEntity:
		return "entity"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}
