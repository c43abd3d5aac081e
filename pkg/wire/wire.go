// Package wire defines the message shapes of the Cloud Datastore v1 protocol.
//
// The types mirror the protocol schema field for field. Oneof fields are
// modeled as small member structs implementing an unexported marker
// interface, enums as typed int32 constants carrying the protocol numbering,
// so that a message tree built here serializes to the exact wire form the
// service expects.
package wire

import "google.golang.org/protobuf/types/known/timestamppb"

// PartitionId identifies the project, database and namespace a key or query
// is scoped to.
type PartitionId struct {
	ProjectId   string
	DatabaseId  string
	NamespaceId string
}

// Key is the wire form of an entity key: a partition scope plus the path
// from root to leaf.
type Key struct {
	PartitionId *PartitionId
	Path        []*PathElement
}

// PathElement is one step of a key path. IdType is nil for an incomplete
// element, which the protocol permits only in the terminal position.
type PathElement struct {
	Kind   string
	IdType PathElementIdType
}

// PathElementIdType is the oneof over the two identifier forms.
type PathElementIdType interface {
	isPathElementIdType()
}

// PathElementId holds a numeric identifier.
type PathElementId struct {
	Id int64
}

// PathElementName holds a string identifier.
type PathElementName struct {
	Name string
}

func (*PathElementId) isPathElementIdType()   {}
func (*PathElementName) isPathElementIdType() {}

// Value is the wire form of a property value.
//
// Meaning is a reserved legacy tag and is always written as 0.
type Value struct {
	ValueType          ValueType
	ExcludeFromIndexes bool
	Meaning            int32
}

// ValueType is the oneof over all storable variants.
type ValueType interface {
	isValueType()
}

// ValueNull is the null variant. The protocol carries it as an enum with a
// single legal value of 0.
type ValueNull struct {
	NullValue int32
}

// ValueBoolean holds a bool.
type ValueBoolean struct {
	BooleanValue bool
}

// ValueInteger holds a signed 64-bit integer.
type ValueInteger struct {
	IntegerValue int64
}

// ValueDouble holds a 64-bit float.
type ValueDouble struct {
	DoubleValue float64
}

// ValueTimestamp holds a UTC timestamp with nanosecond precision.
type ValueTimestamp struct {
	TimestampValue *timestamppb.Timestamp
}

// ValueKey holds a reference to another entity.
type ValueKey struct {
	KeyValue *Key
}

// ValueString holds UTF-8 text.
type ValueString struct {
	StringValue string
}

// ValueBlob holds raw bytes.
type ValueBlob struct {
	BlobValue []byte
}

// ValueGeoPoint holds a geographic point.
type ValueGeoPoint struct {
	GeoPointValue *LatLng
}

// ValueEntity holds a nested entity.
type ValueEntity struct {
	EntityValue *Entity
}

// ValueArray holds an ordered list of values. The protocol forbids an array
// directly inside an array.
type ValueArray struct {
	ArrayValue *ArrayValue
}

func (*ValueNull) isValueType()      {}
func (*ValueBoolean) isValueType()   {}
func (*ValueInteger) isValueType()   {}
func (*ValueDouble) isValueType()    {}
func (*ValueTimestamp) isValueType() {}
func (*ValueKey) isValueType()       {}
func (*ValueString) isValueType()    {}
func (*ValueBlob) isValueType()      {}
func (*ValueGeoPoint) isValueType()  {}
func (*ValueEntity) isValueType()    {}
func (*ValueArray) isValueType()     {}

// ArrayValue wraps the elements of an array value.
type ArrayValue struct {
	Values []*Value
}

// LatLng is a WGS84 coordinate pair in degrees.
type LatLng struct {
	Latitude  float64
	Longitude float64
}

// Entity pairs an optional key with named properties. Nested entities carry
// no key.
type Entity struct {
	Key        *Key
	Properties map[string]*Value
}

// EntityResult wraps an entity returned by a lookup or query.
type EntityResult struct {
	Entity  *Entity
	Version int64
	Cursor  []byte
}
