package datastore

// Entity pairs a key with its property mapping. Properties must be an
// entity-variant Value; anything else reaching the wire converter is a
// programming error and fails fast.
type Entity struct {
	Key        *Key
	Properties Value
}

// NewEntity encodes src through the codec and pairs the result with key.
// src must encode to an entity variant, i.e. be a struct or a string-keyed
// map.
func NewEntity(key *Key, src any) (*Entity, error) {
	v := Encode(src)
	if v.Kind != KindEntity {
		return nil, &UnexpectedTypeError{Expected: "entity", Got: v.TypeName()}
	}
	return &Entity{Key: key, Properties: v}, nil
}

// Decode decodes the entity's properties into dst through the codec.
func (e *Entity) Decode(dst any) error {
	return Decode(e.Properties, dst)
}
