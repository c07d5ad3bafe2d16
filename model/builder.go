package model

// EntityBuilder is the explicit, strongly-typed replacement for
// reflection-based entity derivation (spec.md §9 Design Notes:
// "provide instead an explicit builder API"). Grounded on the
// teacher's fluent schema.Schema chain (AddField/AddRelation/
// WithTableName in schema/schema.go), but returning *Entity rather
// than mutating in place, since Entity ownership belongs to a Model.
type EntityBuilder struct {
	entity *Entity
	err    error
}

// NewEntityBuilder starts building an entity named name.
func NewEntityBuilder(name string) *EntityBuilder {
	return &EntityBuilder{entity: NewEntity(name)}
}

// Table sets the external (table) name.
func (b *EntityBuilder) Table(name string) *EntityBuilder {
	b.entity.ExternalName = name
	return b
}

// Class sets the class-name hint used by Model.EntityForObject.
func (b *EntityBuilder) Class(name string) *EntityBuilder {
	b.entity.ClassName = name
	return b
}

// Attribute adds an attribute built from opts. Primary-key membership
// is declared separately, with PrimaryKey.
func (b *EntityBuilder) Attribute(name string, t ValueType, opts ...AttributeOption) *EntityBuilder {
	attr := NewAttribute(name, t, opts...)
	if err := b.entity.AddAttribute(attr); err != nil && b.err == nil {
		b.err = err
	}
	return b
}

// PrimaryKey declares the (possibly composite) primary key attribute
// names.
func (b *EntityBuilder) PrimaryKey(names ...string) *EntityBuilder {
	b.entity.PrimaryKeyNames = names
	return b
}

// Relationship attaches rel to the entity under construction.
func (b *EntityBuilder) Relationship(rel *Relationship) *EntityBuilder {
	if err := b.entity.AddRelationship(rel); err != nil && b.err == nil {
		b.err = err
	}
	return b
}

// RestrictingQualifier sets the qualifier implicitly AND'd into every
// fetch against this entity (spec.md §3 Entity). Accepted as `any` to
// avoid an import cycle with package qualifier; callers pass a
// qualifier.Qualifier.
func (b *EntityBuilder) RestrictingQualifier(q any) *EntityBuilder {
	b.entity.RestrictingQualifier = q
	return b
}

// Pattern marks the entity (and transitively its model) as a pattern
// to be completed by adaptor reflection.
func (b *EntityBuilder) Pattern() *EntityBuilder {
	b.entity.IsPattern = true
	return b
}

// Build finalizes the entity, returning any deferred construction
// error (e.g. a duplicate attribute/relationship name).
func (b *EntityBuilder) Build() (*Entity, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.entity.Validate(); err != nil {
		return nil, err
	}
	return b.entity, nil
}
