package model

import "fmt"

// DeleteRule governs what happens to dependent rows when the source
// side of a relationship is deleted (spec.md §3 Relationship).
type DeleteRule string

const (
	DeleteNullify      DeleteRule = "nullify"
	DeleteCascade      DeleteRule = "cascade"
	DeleteDeny         DeleteRule = "deny"
	DeleteNoAction     DeleteRule = "noAction"
	DeleteApplyDefault DeleteRule = "applyDefault"
)

// JoinSemantic upgrades the default INNER JOIN a relationship's joins
// would otherwise emit (spec.md §4.3 step 2: "INNER by default;
// relationship-level Semantic may upgrade to LEFT/RIGHT/FULL OUTER").
type JoinSemantic string

const (
	JoinInner      JoinSemantic = "INNER"
	JoinLeftOuter  JoinSemantic = "LEFT OUTER"
	JoinRightOuter JoinSemantic = "RIGHT OUTER"
	JoinFullOuter  JoinSemantic = "FULL OUTER"
)

// Relationship is a named link from one Entity to another, realized by
// one or more Joins.
type Relationship struct {
	Name              string
	DestinationName   string // entity name, resolved lazily
	Joins             []*Join
	ToMany            bool
	DeleteRule        DeleteRule
	ConstraintName    string
	Semantic          JoinSemantic

	source      *Entity // non-owning back-reference
	destination *Entity // non-owning back-reference, set by connectRelationships
}

// NewRelationship constructs a to-one relationship with default INNER
// join semantics and the nullify delete rule.
func NewRelationship(name, destinationName string, joins ...*Join) *Relationship {
	return &Relationship{
		Name:            name,
		DestinationName: destinationName,
		Joins:           joins,
		DeleteRule:      DeleteNullify,
		Semantic:        JoinInner,
	}
}

// ToManyRelationship is a convenience constructor for to-many
// relationships.
func ToManyRelationship(name, destinationName string, joins ...*Join) *Relationship {
	r := NewRelationship(name, destinationName, joins...)
	r.ToMany = true
	return r
}

// Source returns the entity that owns this relationship.
func (r *Relationship) Source() *Entity { return r.source }

// Destination returns the resolved destination entity, or nil before
// connectRelationships has run.
func (r *Relationship) Destination() *Entity { return r.destination }

// IsForeignKey reports whether this relationship is a to-one
// relationship backed by at least one join — spec.md §3 invariant:
// "a to-one, non-empty-join relationship is a foreign-key
// relationship."
func (r *Relationship) IsForeignKey() bool {
	return !r.ToMany && len(r.Joins) > 0
}

// connect resolves DestinationName against model and resolves every
// join's attribute back-references.
func (r *Relationship) connect(m *Model) error {
	dest := m.Entity(r.DestinationName)
	if dest == nil {
		return fmt.Errorf("relationship %q on entity %q: destination entity %q not found",
			r.Name, r.source.Name, r.DestinationName)
	}
	r.destination = dest
	for _, j := range r.Joins {
		if err := j.resolve(r.source, dest); err != nil {
			return fmt.Errorf("relationship %q: %w", r.Name, err)
		}
	}
	return nil
}

// disconnect nulls the non-owning back-references so the
// Entity<->Relationship<->Entity cycle can be garbage collected
// deterministically (spec.md §3 Ownership, §8 idempotence property).
func (r *Relationship) disconnect() {
	r.destination = nil
}
