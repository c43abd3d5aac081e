// ABOUTME: Hierarchical key identity for Datastore entities
// ABOUTME: Kind plus int64 ID or string name, optional parent chain and namespace

package datastore

import (
	"strconv"
	"strings"
)

// Key identifies one entity: a kind with an integer ID or string name,
// an optional parent chain and an optional namespace. A key with neither ID
// nor Name is incomplete, which is only legal for the terminal element of a
// path; the store assigns an identifier on the first write.
//
// Keys carry no project scoping. The project is supplied by the client when
// a key is converted to its wire form.
type Key struct {
	Kind string
	ID   int64
	Name string

	Parent    *Key
	Namespace string

	// New forces the entity under this key to be written as an insert even
	// when the key is fully identified. The store replaces such a key
	// wholesale after the first successful write.
	New bool
}

// IDKey creates a key with an integer identifier.
func IDKey(kind string, id int64, parent *Key) *Key {
	return &Key{Kind: kind, ID: id, Parent: parent}
}

// NameKey creates a key with a string identifier.
func NameKey(kind, name string, parent *Key) *Key {
	return &Key{Kind: kind, Name: name, Parent: parent}
}

// IncompleteKey creates a key without an identifier. The store generates one
// on the first write.
func IncompleteKey(kind string, parent *Key) *Key {
	return &Key{Kind: kind, Parent: parent}
}

// Incomplete reports whether the key's terminal element has no identifier.
func (k *Key) Incomplete() bool {
	return k.ID == 0 && k.Name == ""
}

// Equal reports whether two keys identify the same entity, comparing kind,
// identifier, namespace and the full parent chain.
func (k *Key) Equal(o *Key) bool {
	for k != nil && o != nil {
		if k.Kind != o.Kind || k.ID != o.ID || k.Name != o.Name || k.Namespace != o.Namespace {
			return false
		}
		k, o = k.Parent, o.Parent
	}
	return k == o
}

// String returns a readable path form like /parent,1/child,name, prefixed
// with the namespace when set. Key paths are unique per namespace, so the
// result identifies the key.
func (k *Key) String() string {
	if k == nil {
		return ""
	}
	var b strings.Builder
	if k.Namespace != "" {
		b.WriteString(k.Namespace)
		b.WriteByte(':')
	}
	k.path(&b)
	return b.String()
}

func (k *Key) path(b *strings.Builder) {
	if k.Parent != nil {
		k.Parent.path(b)
	}
	b.WriteByte('/')
	b.WriteString(k.Kind)
	b.WriteByte(',')
	if k.Name != "" {
		b.WriteString(k.Name)
	} else {
		b.WriteString(strconv.FormatInt(k.ID, 10))
	}
}
