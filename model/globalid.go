package model

import (
	"fmt"
	"sort"
	"strings"
)

// GlobalID is an entity-qualified primary-key value: identity for
// object uniquing (spec.md GLOSSARY, §3).
type GlobalID struct {
	EntityName string
	Keys       map[string]any
}

// NewGlobalID builds a GlobalID from an entity name and its primary
// key values.
func NewGlobalID(entityName string, keys map[string]any) *GlobalID {
	copied := make(map[string]any, len(keys))
	for k, v := range keys {
		copied[k] = v
	}
	return &GlobalID{EntityName: entityName, Keys: copied}
}

// NewSingleIntKeyGlobalID is the common-case constructor for entities
// with a single integer primary key, grounded on spec.md §3's mention
// of "two scalar-keyed variants ... for the common single-integer
// case." keyName is the attribute name the single key is stored
// under.
func NewSingleIntKeyGlobalID(entityName, keyName string, value int64) *GlobalID {
	return NewGlobalID(entityName, map[string]any{keyName: value})
}

// NewSingleStringKeyGlobalID is the string-keyed sibling of
// NewSingleIntKeyGlobalID.
func NewSingleStringKeyGlobalID(entityName, keyName, value string) *GlobalID {
	return NewGlobalID(entityName, map[string]any{keyName: value})
}

// Hash returns a stable string suitable for use as a map key — equal
// GlobalIDs (by entityName + keys, spec.md §3) always hash equal.
func (g *GlobalID) Hash() string {
	names := make([]string, 0, len(g.Keys))
	for k := range g.Keys {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(g.EntityName)
	for _, name := range names {
		fmt.Fprintf(&b, "|%s=%v", name, g.Keys[name])
	}
	return b.String()
}

// Equal reports structural equality by (entityName, keys).
func (g *GlobalID) Equal(other *GlobalID) bool {
	if g == nil || other == nil {
		return g == other
	}
	return g.Hash() == other.Hash()
}

func (g *GlobalID) String() string {
	return g.Hash()
}
