// Package model holds the normalized description of entities,
// attributes, relationships, and joins that CoreQL maps between Go
// objects and relational rows — spec.md §3 "DATA MODEL" and §4.2.
//
// Grounded on the teacher's schema.Schema (github.com/rediwo/redi-orm
// schema/schema.go): a named, ordered collection with fluent
// Add*/With* builders and name-keyed lookup helpers. Reworked here
// into a Model-of-Entities two-level structure (Schema had no
// model-of-schemas concept) to satisfy spec.md's Model/Entity split,
// entity grouping for inheritance, pattern-model merge, and explicit
// connect/disconnect of the Entity<->Relationship<->Entity cycle.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"sort"
)

// Tag is an opaque, backend-specific schema-version marker. Two Models
// with equal Tag are considered to describe the same schema revision.
type Tag string

// Model is an ordered collection of entities plus an opaque tag.
type Model struct {
	entities []*Entity
	index    map[string]int
	Tag      Tag

	// classIndex maps a reflect.Type to the entity mapped to it, for
	// entityForObject's first resolution strategy.
	classIndex map[reflect.Type]string
}

// New constructs an empty Model.
func New() *Model {
	return &Model{
		index:      make(map[string]int),
		classIndex: make(map[reflect.Type]string),
	}
}

// AddEntity appends e, enforcing spec.md §3's invariant that entity
// names are unique within a model. If e (or any existing entity) is a
// pattern, the whole model becomes a pattern — tracked implicitly by
// IsPattern().
func (m *Model) AddEntity(e *Entity) error {
	if _, exists := m.index[e.Name]; exists {
		return fmt.Errorf("model: duplicate entity %q", e.Name)
	}
	m.index[e.Name] = len(m.entities)
	m.entities = append(m.entities, e)
	return nil
}

// BindClass associates a Go type with modelName for entityForObject's
// fast path.
func (m *Model) BindClass(modelName string, t reflect.Type) {
	m.classIndex[t] = modelName
}

// Entities returns the model's entities in insertion order.
func (m *Model) Entities() []*Entity {
	return m.entities
}

// Entity returns the first entity named name, or nil.
func (m *Model) Entity(name string) *Entity {
	idx, ok := m.index[name]
	if !ok {
		return nil
	}
	return m.entities[idx]
}

// EntityGroup returns the entities sharing externalName — used for
// table-per-hierarchy inheritance (spec.md §4.2: "entities sharing a
// table"). When no entity declares ExternalName == externalName, it
// falls back to entities whose plain Name matches.
func (m *Model) EntityGroup(externalName string) []*Entity {
	var group []*Entity
	for _, e := range m.entities {
		if e.ExternalName == externalName {
			group = append(group, e)
		}
	}
	if len(group) > 0 {
		return group
	}
	for _, e := range m.entities {
		if e.ExternalName == "" && e.Name == externalName {
			group = append(group, e)
		}
	}
	return group
}

// EntityGroups partitions all entities by their effective table name
// (TableName()), used by DDL group ordering (spec.md §4.3).
func (m *Model) EntityGroups() map[string][]*Entity {
	groups := make(map[string][]*Entity)
	for _, e := range m.entities {
		table := e.TableName()
		groups[table] = append(groups[table], e)
	}
	return groups
}

// EntityForObject resolves the entity mapped to o: first by exact
// reflect.Type match (BindClass), then by ClassName string match
// (spec.md §4.2).
func (m *Model) EntityForObject(o any) *Entity {
	if o == nil {
		return nil
	}
	t := reflect.TypeOf(o)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if name, ok := m.classIndex[t]; ok {
		return m.Entity(name)
	}
	className := t.Name()
	for _, e := range m.entities {
		if e.ClassName != "" && e.ClassName == className {
			return e
		}
	}
	return nil
}

// ConnectRelationships resolves every relationship's destination
// entity and join attributes by name. Must run after the model is
// fully loaded (spec.md §4.2).
func (m *Model) ConnectRelationships() error {
	for _, e := range m.entities {
		if err := e.connectRelationships(m); err != nil {
			return fmt.Errorf("model.ConnectRelationships: %w", err)
		}
	}
	return nil
}

// DisconnectRelationships explicitly breaks the non-owning
// Entity<->Relationship<->Entity reference cycle (spec.md §3
// Ownership, §9 Design Notes).
func (m *Model) DisconnectRelationships() {
	for _, e := range m.entities {
		e.disconnectRelationships()
	}
}

// Merge appends other's entities to m and clears m's Tag (spec.md
// §3: "Merging concatenates entities and clears the tag").
func (m *Model) Merge(other *Model) error {
	for _, e := range other.entities {
		if err := m.AddEntity(e); err != nil {
			return fmt.Errorf("model.Merge: %w", err)
		}
	}
	m.Tag = ""
	return nil
}

// IsPattern reports whether any entity in the model is a pattern
// (spec.md §3: "if any entity is a pattern, the model is a pattern").
func (m *Model) IsPattern() bool {
	for _, e := range m.entities {
		if e.IsPattern {
			return true
		}
	}
	return false
}

// Validate runs Entity.Validate over every entity.
func (m *Model) Validate() error {
	for _, e := range m.entities {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ComputeTag derives a deterministic Tag from the model's current
// shape (entity names, attribute names/types, relationship shapes) —
// grounded on the teacher's migration.computeSchemaHash
// (crypto/sha256 over normalized content).
func (m *Model) ComputeTag() Tag {
	names := make([]string, 0, len(m.entities))
	byName := make(map[string]*Entity, len(m.entities))
	for _, e := range m.entities {
		names = append(names, e.Name)
		byName[e.Name] = e
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		e := byName[name]
		fmt.Fprintf(h, "entity:%s:table:%s:pk:%v\n", e.Name, e.TableName(), e.PrimaryKeyNames)
		for _, a := range e.Attributes {
			fmt.Fprintf(h, "  attr:%s:%s:null=%v:col=%s\n", a.Name, a.Type, a.Nullable, a.ColumnNameOrName())
		}
		for _, r := range e.Relationships {
			fmt.Fprintf(h, "  rel:%s->%s:many=%v\n", r.Name, r.DestinationName, r.ToMany)
		}
	}
	return Tag(hex.EncodeToString(h.Sum(nil)))
}
