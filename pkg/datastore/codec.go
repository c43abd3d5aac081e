// ABOUTME: Reflection codec between Go records and the value model
// ABOUTME: Struct tags drive renames, casing rules and missing-property defaults

package datastore

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Meta carries struct-level codec options. Declare a field of this type and
// put the options in its tag:
//
//	type Customer struct {
//		Meta      datastore.Meta `datastore:",rename_all=camelCase"`
//		FirstName string
//	}
//
// The field itself stores nothing and is never encoded.
type Meta struct{}

var (
	metaType  = reflect.TypeOf(Meta{})
	timeType  = reflect.TypeOf(time.Time{})
	keyType   = reflect.TypeOf((*Key)(nil))
	geoType   = reflect.TypeOf(GeoPoint{})
	valueType = reflect.TypeOf(Value{})
)

type fieldCodec struct {
	name       string
	index      []int
	typ        reflect.Type
	hasDefault bool
	defaultVal reflect.Value
}

type structCodec struct {
	fields []fieldCodec
}

var structCache sync.Map // reflect.Type -> *structCodec

type enumCodec struct {
	casing Casing
	names  map[string]string // Go constant value -> stored name
	values map[string]string // stored name -> Go constant value
}

var (
	enumsMu sync.RWMutex
	enums   = map[reflect.Type]*enumCodec{}
)

// RegisterEnum teaches the codec a string-backed enum type. Each variant is
// stored under its casing-transformed value, unless renames overrides it.
// Decoding a stored name outside the registered set fails with
// UnknownVariantError. Registration is typically done from an init function.
func RegisterEnum[E ~string](casing Casing, variants []E, renames map[E]string) {
	t := reflect.TypeOf((*E)(nil)).Elem()
	ec := &enumCodec{
		casing: casing,
		names:  make(map[string]string, len(variants)),
		values: make(map[string]string, len(variants)),
	}
	for _, v := range variants {
		name, ok := renames[v]
		if !ok {
			name = casing.apply(string(v))
		}
		ec.names[string(v)] = name
		ec.values[name] = string(v)
	}
	enumsMu.Lock()
	enums[t] = ec
	enumsMu.Unlock()
}

func enumFor(t reflect.Type) *enumCodec {
	enumsMu.RLock()
	ec := enums[t]
	enumsMu.RUnlock()
	return ec
}

// Encode converts a Go record into a Value. Structs and string-keyed maps
// become entity values, slices become arrays, pointers become optionals.
// Encoding is total over the supported types and panics on anything else,
// which indicates a programming error rather than bad data.
func Encode(src any) Value {
	return encodeValue(reflect.ValueOf(src))
}

func encodeValue(rv reflect.Value) Value {
	t := rv.Type()
	if ec := enumFor(t); ec != nil {
		raw := rv.String()
		name, ok := ec.names[raw]
		if !ok {
			name = ec.casing.apply(raw)
		}
		return NewStringValue(name)
	}
	switch t {
	case valueType:
		return rv.Interface().(Value)
	case timeType:
		return NewTimestampValue(rv.Interface().(time.Time))
	case keyType:
		k := rv.Interface().(*Key)
		if k == nil {
			return NewNullValue()
		}
		return NewKeyValue(k)
	case geoType:
		g := rv.Interface().(GeoPoint)
		return NewGeoPointValue(g.Lat, g.Lng)
	}
	switch t.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return NewNullValue()
		}
		return NewOptionalValue(encodeValue(rv.Elem()))
	case reflect.Interface:
		if rv.IsNil() {
			return NewNullValue()
		}
		return encodeValue(rv.Elem())
	case reflect.Bool:
		return NewBooleanValue(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewIntegerValue(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NewIntegerValue(int64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return NewDoubleValue(rv.Float())
	case reflect.String:
		return NewStringValue(rv.String())
	case reflect.Slice, reflect.Array:
		if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
			return NewBlobValue(rv.Bytes())
		}
		elems := make([]Value, rv.Len())
		for i := range elems {
			elems[i] = encodeValue(rv.Index(i))
		}
		return NewArrayValue(elems...)
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			panic("datastore: codec: map keys must be strings, got " + t.String())
		}
		props := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			props[iter.Key().String()] = encodeValue(iter.Value())
		}
		return NewEntityValue(props)
	case reflect.Struct:
		sc := structCodecFor(t)
		props := make(map[string]Value, len(sc.fields))
		for _, f := range sc.fields {
			props[f.name] = encodeValue(rv.FieldByIndex(f.index))
		}
		return NewEntityValue(props)
	default:
		panic("datastore: codec: cannot encode " + t.String())
	}
}

// Decode populates dst, which must be a non-nil pointer, from a Value. A
// missing struct property falls back to the field's tag default when one is
// declared, then to the type's natural default (nil pointer, empty string,
// false, zero, empty slice, Unix epoch for time.Time); types without a
// natural default fail with MissingPropertyError.
func Decode(val Value, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("datastore: decode target must be a non-nil pointer")
	}
	return decodeValue(val, rv.Elem())
}

func decodeValue(v Value, rv reflect.Value) error {
	t := rv.Type()
	if v.Kind == KindOptional {
		if v.Wrapped == nil {
			rv.SetZero()
			return nil
		}
		v = *v.Wrapped
	}
	if ec := enumFor(t); ec != nil {
		if v.Kind != KindString {
			return &UnexpectedTypeError{Expected: "string", Got: v.TypeName()}
		}
		raw, ok := ec.values[v.Str]
		if !ok {
			return &UnknownVariantError{Enum: t.String(), Variant: v.Str}
		}
		rv.SetString(raw)
		return nil
	}
	switch t {
	case valueType:
		rv.Set(reflect.ValueOf(v))
		return nil
	case timeType:
		if v.Kind != KindTimestamp {
			return &UnexpectedTypeError{Expected: "timestamp", Got: v.TypeName()}
		}
		rv.Set(reflect.ValueOf(v.Time))
		return nil
	case keyType:
		if v.Kind != KindKey {
			return &UnexpectedTypeError{Expected: "key", Got: v.TypeName()}
		}
		rv.Set(reflect.ValueOf(v.Key))
		return nil
	case geoType:
		if v.Kind != KindGeoPoint {
			return &UnexpectedTypeError{Expected: "geopoint", Got: v.TypeName()}
		}
		rv.Set(reflect.ValueOf(v.Geo))
		return nil
	}
	switch t.Kind() {
	case reflect.Pointer:
		p := reflect.New(t.Elem())
		if err := decodeValue(v, p.Elem()); err != nil {
			return err
		}
		rv.Set(p)
		return nil
	case reflect.Bool:
		if v.Kind != KindBoolean {
			return &UnexpectedTypeError{Expected: "boolean", Got: v.TypeName()}
		}
		rv.SetBool(v.Bool)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Kind != KindInteger {
			return &UnexpectedTypeError{Expected: "integer", Got: v.TypeName()}
		}
		rv.SetInt(v.Int)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v.Kind != KindInteger {
			return &UnexpectedTypeError{Expected: "integer", Got: v.TypeName()}
		}
		rv.SetUint(uint64(v.Int))
		return nil
	case reflect.Float32, reflect.Float64:
		if v.Kind != KindDouble {
			return &UnexpectedTypeError{Expected: "double", Got: v.TypeName()}
		}
		rv.SetFloat(v.Double)
		return nil
	case reflect.String:
		if v.Kind != KindString {
			return &UnexpectedTypeError{Expected: "string", Got: v.TypeName()}
		}
		rv.SetString(v.Str)
		return nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			if v.Kind != KindBlob {
				return &UnexpectedTypeError{Expected: "blob", Got: v.TypeName()}
			}
			rv.SetBytes(append([]byte(nil), v.Blob...))
			return nil
		}
		if v.Kind != KindArray {
			return &UnexpectedTypeError{Expected: "array", Got: v.TypeName()}
		}
		out := reflect.MakeSlice(t, len(v.Elems), len(v.Elems))
		for i, el := range v.Elems {
			if err := decodeValue(el, out.Index(i)); err != nil {
				return err
			}
		}
		rv.Set(out)
		return nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return fmt.Errorf("datastore: codec: map keys must be strings, got %s", t)
		}
		if v.Kind != KindEntity {
			return &UnexpectedTypeError{Expected: "entity", Got: v.TypeName()}
		}
		out := reflect.MakeMapWithSize(t, len(v.Props))
		for name, prop := range v.Props {
			el := reflect.New(t.Elem()).Elem()
			if err := decodeValue(prop, el); err != nil {
				return err
			}
			out.SetMapIndex(reflect.ValueOf(name), el)
		}
		rv.Set(out)
		return nil
	case reflect.Struct:
		return decodeStruct(v, rv)
	default:
		return fmt.Errorf("datastore: codec: cannot decode into %s", t)
	}
}

func decodeStruct(v Value, rv reflect.Value) error {
	if v.Kind != KindEntity {
		return &UnexpectedTypeError{Expected: "entity", Got: v.TypeName()}
	}
	sc := structCodecFor(rv.Type())
	for _, f := range sc.fields {
		fv := rv.FieldByIndex(f.index)
		prop, ok := v.Props[f.name]
		if !ok {
			if f.hasDefault {
				fv.Set(f.defaultVal)
				continue
			}
			z, ok := naturalDefault(f.typ)
			if !ok {
				return &MissingPropertyError{Property: f.name}
			}
			fv.Set(z)
			continue
		}
		if err := decodeValue(prop, fv); err != nil {
			return err
		}
	}
	return nil
}

// naturalDefault reports the fallback for a field absent from the stored
// entity. Registered enums have none, since an arbitrary variant would be
// wrong more often than right.
func naturalDefault(t reflect.Type) (reflect.Value, bool) {
	if enumFor(t) != nil {
		return reflect.Value{}, false
	}
	if t == timeType {
		return reflect.ValueOf(time.Unix(0, 0).UTC()), true
	}
	if t == valueType {
		return reflect.ValueOf(NewNullValue()), true
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.Bool, reflect.String, reflect.Slice, reflect.Map,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return reflect.Zero(t), true
	default:
		return reflect.Value{}, false
	}
}

func structCodecFor(t reflect.Type) *structCodec {
	if c, ok := structCache.Load(t); ok {
		return c.(*structCodec)
	}
	sc := buildStructCodec(t)
	structCache.Store(t, sc)
	return sc
}

func buildStructCodec(t reflect.Type) *structCodec {
	casing := CasingCamel
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type != metaType {
			continue
		}
		for _, opt := range strings.Split(f.Tag.Get("datastore"), ",")[1:] {
			if raw, ok := strings.CutPrefix(opt, "rename_all="); ok {
				c, err := parseCasing(raw)
				if err != nil {
					panic(fmt.Sprintf("datastore: codec: %s: %v", t, err))
				}
				casing = c
			}
		}
	}
	sc := &structCodec{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type == metaType || !f.IsExported() {
			continue
		}
		parts := strings.Split(f.Tag.Get("datastore"), ",")
		name := parts[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = casing.apply(f.Name)
		}
		fc := fieldCodec{name: name, index: f.Index, typ: f.Type}
		for _, opt := range parts[1:] {
			raw, ok := strings.CutPrefix(opt, "default=")
			if !ok {
				continue
			}
			dv, err := parseDefault(f.Type, raw)
			if err != nil {
				panic(fmt.Sprintf("datastore: codec: %s.%s: %v", t, f.Name, err))
			}
			fc.hasDefault = true
			fc.defaultVal = dv
		}
		sc.fields = append(sc.fields, fc)
	}
	return sc
}

func parseDefault(t reflect.Type, raw string) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		out.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("bad default %q: %w", raw, err)
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("bad default %q: %w", raw, err)
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("bad default %q: %w", raw, err)
		}
		out.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("bad default %q: %w", raw, err)
		}
		out.SetFloat(f)
	default:
		return reflect.Value{}, fmt.Errorf("default= not supported for %s", t)
	}
	return out, nil
}
