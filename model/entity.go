package model

import "fmt"

// Entity describes one mapped type and its backing table.
type Entity struct {
	Name               string
	ExternalName       string // optional table name; defaults to Name
	ClassName          string // optional class-name hint for entityForObject
	PrimaryKeyNames    []string
	RestrictingQualifier any // qualifier.Qualifier, stored as `any`; consumers type-assert it

	Attributes    []Attribute
	Relationships []*Relationship

	// IsPattern marks this entity as a schema hole to be filled by
	// adaptor reflection at bind time (spec.md §4.2 "Pattern models").
	IsPattern             bool
	IsExternalNamePattern bool

	namedFetches map[string]any // name -> *fetch.Specification, stored opaque to avoid an import cycle

	attrIndex map[string]int
	relIndex  map[string]int
}

// NewEntity constructs an empty Entity named name, with its table name
// defaulting to name until ExternalName is set.
func NewEntity(name string) *Entity {
	return &Entity{
		Name:         name,
		namedFetches: make(map[string]any),
		attrIndex:    make(map[string]int),
		relIndex:     make(map[string]int),
	}
}

// TableName returns ExternalName if set, else Name.
func (e *Entity) TableName() string {
	if e.ExternalName != "" {
		return e.ExternalName
	}
	return e.Name
}

// Projection returns a shallow clone of e with extra appended to its
// attribute list — used to synthesize a read-only projection entity
// (e.g. a COUNT(*) pseudo-attribute for DataSource.FetchCount) that
// still resolves joins and
// qualifiers against the same table and relationships as e (spec.md
// §4.6). The clone shares e's *Relationship values directly rather
// than re-adding them through AddRelationship, so rel.source keeps
// pointing at e: join-path resolution during SELECT-building only
// ever reads rel.Destination()/rel.Joins, never rel.Source().
func (e *Entity) Projection(extra ...Attribute) *Entity {
	clone := NewEntity(e.Name)
	clone.ExternalName = e.TableName()
	clone.ClassName = e.ClassName
	clone.PrimaryKeyNames = append([]string(nil), e.PrimaryKeyNames...)
	clone.RestrictingQualifier = e.RestrictingQualifier
	for _, a := range e.Attributes {
		_ = clone.AddAttribute(a)
	}
	for _, a := range extra {
		_ = clone.AddAttribute(a)
	}
	clone.Relationships = append([]*Relationship(nil), e.Relationships...)
	for i, rel := range clone.Relationships {
		clone.relIndex[rel.Name] = i
	}
	return clone
}

// AddAttribute appends attr, indexing it by name. Returns an error if
// an attribute with the same name already exists.
func (e *Entity) AddAttribute(attr Attribute) error {
	if _, exists := e.attrIndex[attr.Name]; exists {
		return fmt.Errorf("entity %q: duplicate attribute %q", e.Name, attr.Name)
	}
	e.attrIndex[attr.Name] = len(e.Attributes)
	e.Attributes = append(e.Attributes, attr)
	return nil
}

// AddRelationship appends rel, indexing it by name. Returns an error
// if a relationship with the same name already exists (spec.md §3
// Entity invariant: "relationship names unique within the entity").
func (e *Entity) AddRelationship(rel *Relationship) error {
	if _, exists := e.relIndex[rel.Name]; exists {
		return fmt.Errorf("entity %q: duplicate relationship %q", e.Name, rel.Name)
	}
	rel.source = e
	e.relIndex[rel.Name] = len(e.Relationships)
	e.Relationships = append(e.Relationships, rel)
	return nil
}

// Attribute looks up an attribute by name.
func (e *Entity) Attribute(name string) (*Attribute, error) {
	idx, ok := e.attrIndex[name]
	if !ok {
		return nil, fmt.Errorf("entity %q has no attribute %q", e.Name, name)
	}
	return &e.Attributes[idx], nil
}

// Relationship looks up a relationship by name.
func (e *Entity) Relationship(name string) (*Relationship, error) {
	idx, ok := e.relIndex[name]
	if !ok {
		return nil, fmt.Errorf("entity %q has no relationship %q", e.Name, name)
	}
	return e.Relationships[idx], nil
}

// RelationshipForPath resolves a dotted key path's first segment.
func (e *Entity) RelationshipForPath(path string) (*Relationship, string, bool) {
	head, rest := splitKeyPath(path)
	rel, err := e.Relationship(head)
	if err != nil {
		return nil, "", false
	}
	return rel, rest, true
}

func splitKeyPath(path string) (head, rest string) {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			return path[:i], path[i+1:]
		}
	}
	return path, ""
}

// SetFetchSpecification registers a named fetch specification on this
// entity (spec.md §3: "named fetch specifications"). Stored as `any`
// to keep the model package free of a dependency on package fetch.
func (e *Entity) SetFetchSpecification(name string, spec any) {
	e.namedFetches[name] = spec
}

// FetchSpecification looks up a named fetch specification.
func (e *Entity) FetchSpecification(name string) (any, bool) {
	v, ok := e.namedFetches[name]
	return v, ok
}

// Validate checks the entity-level invariants from spec.md §3: primary
// key names must all name existing attributes, relationship names
// unique (already enforced by AddRelationship).
func (e *Entity) Validate() error {
	for _, pk := range e.PrimaryKeyNames {
		if _, err := e.Attribute(pk); err != nil {
			return fmt.Errorf("entity %q: primary key attribute %q does not exist", e.Name, pk)
		}
	}
	return nil
}

// GlobalIDForRow projects this entity's primary-key columns out of row
// (keyed by attribute name) and returns a GlobalID, or nil if any
// primary-key value is missing (spec.md §4.2).
func (e *Entity) GlobalIDForRow(row map[string]any) *GlobalID {
	if len(e.PrimaryKeyNames) == 0 {
		return nil
	}
	keys := make(map[string]any, len(e.PrimaryKeyNames))
	for _, pk := range e.PrimaryKeyNames {
		v, ok := row[pk]
		if !ok || v == nil {
			return nil
		}
		keys[pk] = v
	}
	return NewGlobalID(e.Name, keys)
}

// connectRelationships resolves every relationship owned by this
// entity against m.
func (e *Entity) connectRelationships(m *Model) error {
	for _, rel := range e.Relationships {
		if err := rel.connect(m); err != nil {
			return err
		}
	}
	return nil
}

func (e *Entity) disconnectRelationships() {
	for _, rel := range e.Relationships {
		rel.disconnect()
	}
}
