// ABOUTME: Tests for hierarchical keys
// ABOUTME: Verifies identity, string form and wire round-trips

package datastore

import (
	"testing"

	"github.com/nainya/cloudstore/pkg/wire"
)

func TestKeyIncomplete(t *testing.T) {
	if !IncompleteKey("task", nil).Incomplete() {
		t.Error("key without identifier should be incomplete")
	}
	if IDKey("task", 7, nil).Incomplete() {
		t.Error("key with ID should be complete")
	}
	if NameKey("task", "t1", nil).Incomplete() {
		t.Error("key with name should be complete")
	}
}

func TestKeyEqual(t *testing.T) {
	parent := IDKey("org", 1, nil)
	tests := []struct {
		name string
		a, b *Key
		want bool
	}{
		{"same id", IDKey("task", 7, nil), IDKey("task", 7, nil), true},
		{"different id", IDKey("task", 7, nil), IDKey("task", 8, nil), false},
		{"different kind", IDKey("task", 7, nil), IDKey("job", 7, nil), false},
		{"id vs name", IDKey("task", 7, nil), NameKey("task", "7", nil), false},
		{"same parent chain", IDKey("task", 7, parent), IDKey("task", 7, IDKey("org", 1, nil)), true},
		{"parent vs none", IDKey("task", 7, parent), IDKey("task", 7, nil), false},
		{
			"namespace differs",
			&Key{Kind: "task", ID: 7, Namespace: "a"},
			&Key{Kind: "task", ID: 7, Namespace: "b"},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeyString(t *testing.T) {
	k := NameKey("task", "t1", IDKey("org", 42, nil))
	if got := k.String(); got != "/org,42/task,t1" {
		t.Errorf("String = %q", got)
	}

	k.Namespace = "staging"
	if got := k.String(); got != "staging:/org,42/task,t1" {
		t.Errorf("String with namespace = %q", got)
	}
}

func TestKeyWireRoundTrip(t *testing.T) {
	orig := NameKey("task", "t1", IDKey("org", 42, nil))
	orig.Namespace = "staging"
	orig.Parent.Namespace = "staging"

	wk := toWireKey("proj", orig)
	if wk.PartitionId.ProjectId != "proj" {
		t.Errorf("ProjectId = %q", wk.PartitionId.ProjectId)
	}
	if wk.PartitionId.NamespaceId != "staging" {
		t.Errorf("NamespaceId = %q", wk.PartitionId.NamespaceId)
	}
	if len(wk.Path) != 2 {
		t.Fatalf("path length = %d", len(wk.Path))
	}
	// Wire order is root to leaf.
	if wk.Path[0].Kind != "org" {
		t.Errorf("root kind = %q", wk.Path[0].Kind)
	}
	if id, ok := wk.Path[0].IdType.(*wire.PathElementId); !ok || id.Id != 42 {
		t.Errorf("root id = %#v", wk.Path[0].IdType)
	}
	if name, ok := wk.Path[1].IdType.(*wire.PathElementName); !ok || name.Name != "t1" {
		t.Errorf("leaf name = %#v", wk.Path[1].IdType)
	}

	back := keyFromWire(wk)
	if !back.Equal(orig) {
		t.Errorf("round trip mismatch: %s != %s", back, orig)
	}
}

func TestKeyToWireIncomplete(t *testing.T) {
	wk := toWireKey("proj", IncompleteKey("task", nil))
	if len(wk.Path) != 1 {
		t.Fatalf("path length = %d", len(wk.Path))
	}
	if wk.Path[0].IdType != nil {
		t.Errorf("incomplete element should carry no identifier, got %#v", wk.Path[0].IdType)
	}
}

func TestKeyFromWireNil(t *testing.T) {
	if keyFromWire(nil) != nil {
		t.Error("nil wire key should yield nil key")
	}
}
