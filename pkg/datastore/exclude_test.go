// ABOUTME: Tests for the exclude-from-indexes policy
// ABOUTME: Verifies path narrowing, file loading and environment lookup

package datastore

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNarrowPaths(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		step  string
		want  []string
	}{
		{"strips matching prefix", []string{"a.b.c", "a.x", "b.y"}, "a", []string{"b.c", "x"}},
		{"terminal entry becomes empty", []string{"a"}, "a", []string{""}},
		{"no match", []string{"a.b"}, "z", nil},
		{"empty set", nil, "a", nil},
		{"mixed depth", []string{"a", "a.b"}, "a", []string{"", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := narrowPaths(tt.paths, tt.step); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("narrowPaths(%v, %q) = %v, want %v", tt.paths, tt.step, got, tt.want)
			}
		})
	}
}

func TestExactMatch(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  bool
	}{
		{"single empty", []string{""}, true},
		{"remainder left", []string{"b"}, false},
		{"empty among others", []string{"", "b"}, false},
		{"nothing", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exactMatch(tt.paths); got != tt.want {
				t.Errorf("exactMatch(%v) = %v, want %v", tt.paths, got, tt.want)
			}
		})
	}
}

func writePolicyFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write policy file: %v", err)
	}
	return path
}

func TestLoadIndexPolicy(t *testing.T) {
	path := writePolicyFile(t, `
kind:
  customer:
    property:
      - email
      - address.zip
  order:
    property:
      - note
`)
	policy, err := LoadIndexPolicy(path)
	if err != nil {
		t.Fatalf("LoadIndexPolicy: %v", err)
	}
	if policy.Kinds() != 2 {
		t.Errorf("Kinds = %d", policy.Kinds())
	}
	if got := policy.pathsFor("customer"); !reflect.DeepEqual(got, []string{"email", "address.zip"}) {
		t.Errorf("customer paths = %v", got)
	}
	if got := policy.pathsFor("unknown"); got != nil {
		t.Errorf("unknown kind paths = %v", got)
	}
}

func TestLoadIndexPolicyMalformed(t *testing.T) {
	path := writePolicyFile(t, "kind: [not, a, mapping]")
	if _, err := LoadIndexPolicy(path); err == nil {
		t.Error("expected parse error")
	}

	path = writePolicyFile(t, "unexpected: true")
	if _, err := LoadIndexPolicy(path); err == nil {
		t.Error("expected unknown-field error")
	}
}

func TestIndexPolicyFromEnv(t *testing.T) {
	t.Setenv(PolicyEnv, "")
	policy, err := IndexPolicyFromEnv()
	if err != nil {
		t.Fatalf("unset env: %v", err)
	}
	if policy.Kinds() != 0 {
		t.Errorf("unset env should yield empty policy, got %d kinds", policy.Kinds())
	}

	t.Setenv(PolicyEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	policy, err = IndexPolicyFromEnv()
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if policy.Kinds() != 0 {
		t.Errorf("missing file should yield empty policy, got %d kinds", policy.Kinds())
	}

	// A path that exists but cannot be read as a file behaves like an absent
	// one.
	t.Setenv(PolicyEnv, t.TempDir())
	policy, err = IndexPolicyFromEnv()
	if err != nil {
		t.Fatalf("unreadable path: %v", err)
	}
	if policy.Kinds() != 0 {
		t.Errorf("unreadable path should yield empty policy, got %d kinds", policy.Kinds())
	}

	t.Setenv(PolicyEnv, writePolicyFile(t, "kind:\n  task:\n    property: [internal]\n"))
	policy, err = IndexPolicyFromEnv()
	if err != nil {
		t.Fatalf("valid file: %v", err)
	}
	if policy.Kinds() != 1 {
		t.Errorf("Kinds = %d", policy.Kinds())
	}

	t.Setenv(PolicyEnv, writePolicyFile(t, "kind: [broken]"))
	if _, err := IndexPolicyFromEnv(); err == nil {
		t.Error("malformed file should be an error")
	}
}

func TestNewIndexPolicyCopies(t *testing.T) {
	src := map[string][]string{"task": {"a"}}
	policy := NewIndexPolicy(src)
	src["task"][0] = "mutated"
	if got := policy.pathsFor("task")[0]; got != "a" {
		t.Errorf("policy shares caller slice: %q", got)
	}
}
