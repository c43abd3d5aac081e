// ABOUTME: Kind-scoped exclude-from-indexes policy
// ABOUTME: Dot-path matching narrowed per level while converting nested entities

package datastore

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PolicyEnv names the environment variable holding the path of the
// exclusion-policy file.
const PolicyEnv = "INDEX_EXCLUDED"

// IndexPolicy maps entity kinds to the dot-separated property paths that
// must not be indexed. Each path segment addresses one level of
// entity/array nesting; a path like "address.zip" excludes only zip inside
// the nested property address.
//
// The policy is loaded once at client construction and never mutated, so it
// is safe to share across concurrent conversions.
type IndexPolicy struct {
	kinds map[string][]string
}

// The policy file is a YAML document keyed by entity kind:
//
//	kind:
//	  customer:
//	    property:
//	      - email
//	      - address.zip
//
// Fields are indexed by default; only exclusions are listed.
type policyFile struct {
	Kind map[string]policyProperties `yaml:"kind"`
}

type policyProperties struct {
	Property []string `yaml:"property"`
}

// NewIndexPolicy builds a policy from a kind to path-list mapping.
func NewIndexPolicy(kinds map[string][]string) *IndexPolicy {
	copied := make(map[string][]string, len(kinds))
	for kind, paths := range kinds {
		copied[kind] = append([]string(nil), paths...)
	}
	return &IndexPolicy{kinds: copied}
}

// EmptyIndexPolicy returns a policy excluding nothing.
func EmptyIndexPolicy() *IndexPolicy {
	return &IndexPolicy{kinds: map[string][]string{}}
}

// LoadIndexPolicy reads and parses a policy file. Unknown document fields
// are rejected.
func LoadIndexPolicy(path string) (*IndexPolicy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("datastore: read index policy: %w", err)
	}
	return parseIndexPolicy(path, raw)
}

func parseIndexPolicy(path string, raw []byte) (*IndexPolicy, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var file policyFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("datastore: parse index policy %s: %w", path, err)
	}
	kinds := make(map[string][]string, len(file.Kind))
	for kind, props := range file.Kind {
		kinds[kind] = props.Property
	}
	return &IndexPolicy{kinds: kinds}, nil
}

// IndexPolicyFromEnv loads the policy file named by the INDEX_EXCLUDED
// environment variable. An unset variable or an unreadable file yields an
// empty policy; only a readable but malformed file is an error.
func IndexPolicyFromEnv() (*IndexPolicy, error) {
	path := os.Getenv(PolicyEnv)
	if path == "" {
		return EmptyIndexPolicy(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return EmptyIndexPolicy(), nil
	}
	return parseIndexPolicy(path, raw)
}

// Kinds returns the number of kinds with registered exclusions.
func (p *IndexPolicy) Kinds() int {
	if p == nil {
		return 0
	}
	return len(p.kinds)
}

// pathsFor returns the exclusion paths registered for a kind. The returned
// slice is shared and must not be modified.
func (p *IndexPolicy) pathsFor(kind string) []string {
	if p == nil {
		return nil
	}
	return p.kinds[kind]
}

// narrowPaths descends one traversal level: entries whose first dot-segment
// equals step survive with the segment stripped. An entry without a dot is
// its own first segment with an empty remainder, so narrowing {"a"} by "a"
// yields {""}.
func narrowPaths(paths []string, step string) []string {
	var out []string
	for _, p := range paths {
		first, rest, _ := strings.Cut(p, ".")
		if first == step {
			out = append(out, rest)
		}
	}
	return out
}

// exactMatch reports the terminal narrowing signal: exactly one surviving
// entry and it is empty. The current node is then excluded from indexes.
func exactMatch(paths []string) bool {
	return len(paths) == 1 && paths[0] == ""
}
