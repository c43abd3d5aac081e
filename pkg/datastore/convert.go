// ABOUTME: Lossless conversion between the value model and wire messages
// ABOUTME: Threads the exclusion policy through nested entities and arrays

package datastore

import (
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/nainya/cloudstore/pkg/wire"
)

// toWireKey converts a key to its wire form. The path is collected leaf to
// root by walking the parent chain, then reversed so the wire order is root
// to leaf. Project scoping lives only on the wire form.
func toWireKey(projectID string, k *Key) *wire.Key {
	var path []*wire.PathElement
	for cur := k; cur != nil; cur = cur.Parent {
		el := &wire.PathElement{Kind: cur.Kind}
		switch {
		case cur.Name != "":
			el.IdType = &wire.PathElementName{Name: cur.Name}
		case cur.ID != 0:
			el.IdType = &wire.PathElementId{Id: cur.ID}
		}
		path = append(path, el)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return &wire.Key{
		PartitionId: &wire.PartitionId{
			ProjectId:   projectID,
			NamespaceId: k.Namespace,
		},
		Path: path,
	}
}

// keyFromWire rebuilds a key by folding path elements left to right, each
// becoming the parent of the next. The partition's project is dropped: keys
// are project-agnostic in memory.
func keyFromWire(wk *wire.Key) *Key {
	if wk == nil {
		return nil
	}
	var namespace string
	if wk.PartitionId != nil {
		namespace = wk.PartitionId.NamespaceId
	}
	var k *Key
	for _, el := range wk.Path {
		k = &Key{Kind: el.Kind, Parent: k, Namespace: namespace}
		switch id := el.IdType.(type) {
		case *wire.PathElementId:
			k.ID = id.Id
		case *wire.PathElementName:
			k.Name = id.Name
		}
	}
	return k
}

// toWireEntity converts a top-level entity, seeding the exclusion paths for
// each property from the policy entry of the entity's kind.
func toWireEntity(projectID string, e *Entity, policy *IndexPolicy) *wire.Entity {
	if e.Properties.Kind != KindEntity {
		panic("datastore: unexpected non-entity value for " + e.Key.String())
	}
	kindPaths := policy.pathsFor(e.Key.Kind)
	props := make(map[string]*wire.Value, len(e.Properties.Props))
	for name, v := range e.Properties.Props {
		paths := narrowPaths(kindPaths, name)
		props[name] = toWireValue(projectID, v, paths, exactMatch(paths))
	}
	return &wire.Entity{
		Key:        toWireKey(projectID, e.Key),
		Properties: props,
	}
}

// toWireValue converts one value. pathExcluded is the exclusion-path set
// already narrowed to this node; indexExcluded is the ambient decision for
// the node itself.
//
// Arrays are never excluded at their own node: the protocol excludes array
// elements individually, so each element inherits the ambient decision. An
// optional wrapping an array defers to the array rule the same way.
func toWireValue(projectID string, v Value, pathExcluded []string, indexExcluded bool) *wire.Value {
	exclude := indexExcluded
	switch v.Kind {
	case KindArray:
		exclude = false
	case KindOptional:
		if v.Wrapped != nil && v.Wrapped.Kind == KindArray {
			exclude = false
		}
	}
	return &wire.Value{
		Meaning:            0,
		ExcludeFromIndexes: exclude,
		ValueType:          toWireValueType(projectID, v, pathExcluded, indexExcluded),
	}
}

func toWireValueType(projectID string, v Value, pathExcluded []string, indexExcluded bool) wire.ValueType {
	switch v.Kind {
	case KindOptional:
		if v.Wrapped == nil {
			return &wire.ValueNull{}
		}
		return toWireValueType(projectID, *v.Wrapped, pathExcluded, indexExcluded)
	case KindBoolean:
		return &wire.ValueBoolean{BooleanValue: v.Bool}
	case KindInteger:
		return &wire.ValueInteger{IntegerValue: v.Int}
	case KindDouble:
		return &wire.ValueDouble{DoubleValue: v.Double}
	case KindTimestamp:
		return &wire.ValueTimestamp{TimestampValue: timestamppb.New(v.Time)}
	case KindKey:
		return &wire.ValueKey{KeyValue: toWireKey(projectID, v.Key)}
	case KindString:
		return &wire.ValueString{StringValue: v.Str}
	case KindBlob:
		return &wire.ValueBlob{BlobValue: v.Blob}
	case KindGeoPoint:
		return &wire.ValueGeoPoint{GeoPointValue: &wire.LatLng{
			Latitude:  v.Geo.Lat,
			Longitude: v.Geo.Lng,
		}}
	case KindEntity:
		// Nested entities carry no key. The path set is narrowed by each
		// property name before recursing, which scopes exclusion per branch
		// rather than per property name globally.
		props := make(map[string]*wire.Value, len(v.Props))
		for name, child := range v.Props {
			narrowed := narrowPaths(pathExcluded, name)
			props[name] = toWireValue(projectID, child, narrowed, exactMatch(narrowed))
		}
		return &wire.ValueEntity{EntityValue: &wire.Entity{Properties: props}}
	case KindArray:
		elems := make([]*wire.Value, len(v.Elems))
		for i, el := range v.Elems {
			elems[i] = toWireValue(projectID, el, pathExcluded, indexExcluded)
		}
		return &wire.ValueArray{ArrayValue: &wire.ArrayValue{Values: elems}}
	default:
		panic("datastore: unknown value kind")
	}
}

// valueFromWire is the total inverse of toWireValue: every wire variant maps
// to exactly one Value variant. A missing oneof decodes as null.
func valueFromWire(wv *wire.Value) Value {
	if wv == nil {
		return NewNullValue()
	}
	switch vt := wv.ValueType.(type) {
	case nil, *wire.ValueNull:
		return NewNullValue()
	case *wire.ValueBoolean:
		return NewBooleanValue(vt.BooleanValue)
	case *wire.ValueInteger:
		return NewIntegerValue(vt.IntegerValue)
	case *wire.ValueDouble:
		return NewDoubleValue(vt.DoubleValue)
	case *wire.ValueTimestamp:
		return NewTimestampValue(vt.TimestampValue.AsTime())
	case *wire.ValueKey:
		return NewKeyValue(keyFromWire(vt.KeyValue))
	case *wire.ValueString:
		return NewStringValue(vt.StringValue)
	case *wire.ValueBlob:
		return NewBlobValue(vt.BlobValue)
	case *wire.ValueGeoPoint:
		return NewGeoPointValue(vt.GeoPointValue.Latitude, vt.GeoPointValue.Longitude)
	case *wire.ValueEntity:
		return entityValueFromWire(vt.EntityValue)
	case *wire.ValueArray:
		elems := make([]Value, len(vt.ArrayValue.Values))
		for i, el := range vt.ArrayValue.Values {
			elems[i] = valueFromWire(el)
		}
		return NewArrayValue(elems...)
	default:
		panic("datastore: unknown wire value type")
	}
}

func entityValueFromWire(we *wire.Entity) Value {
	props := make(map[string]Value, len(we.Properties))
	for name, wv := range we.Properties {
		props[name] = valueFromWire(wv)
	}
	return NewEntityValue(props)
}

// entityFromWire converts a wire entity, key included, back to the model.
func entityFromWire(we *wire.Entity) *Entity {
	return &Entity{
		Key:        keyFromWire(we.Key),
		Properties: entityValueFromWire(we),
	}
}
