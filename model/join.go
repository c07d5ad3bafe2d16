package model

import "fmt"

// Join is one leg of a foreign-key relationship: a pair of attributes,
// one on the relationship's source entity, one on its destination.
// Prior to connectRelationships, either side may be known only by
// name; after resolution both back-references point at live
// Attributes (spec.md §3 Join).
type Join struct {
	SourceName string
	DestName   string

	sourceAttr *Attribute
	destAttr   *Attribute
}

// NewJoin constructs an unresolved Join from attribute names.
func NewJoin(sourceName, destName string) *Join {
	return &Join{SourceName: sourceName, DestName: destName}
}

// SourceAttribute returns the resolved source-side attribute, or nil
// before resolution.
func (j *Join) SourceAttribute() *Attribute { return j.sourceAttr }

// DestinationAttribute returns the resolved destination-side
// attribute, or nil before resolution.
func (j *Join) DestinationAttribute() *Attribute { return j.destAttr }

// resolve binds the join's attribute back-references by name against
// the given source and destination entities.
func (j *Join) resolve(source, destination *Entity) error {
	srcAttr, err := source.Attribute(j.SourceName)
	if err != nil {
		return fmt.Errorf("join source attribute %q not found on entity %q: %w", j.SourceName, source.Name, err)
	}
	dstAttr, err := destination.Attribute(j.DestName)
	if err != nil {
		return fmt.Errorf("join destination attribute %q not found on entity %q: %w", j.DestName, destination.Name, err)
	}
	j.sourceAttr = srcAttr
	j.destAttr = dstAttr
	return nil
}

// Inverse returns the reciprocal join (source and destination swapped).
func (j *Join) Inverse() *Join {
	inv := NewJoin(j.DestName, j.SourceName)
	inv.sourceAttr = j.destAttr
	inv.destAttr = j.sourceAttr
	return inv
}

// IsReciprocal reports whether other is this join with source and
// destination swapped — spec.md §3: "Two joins are reciprocal iff
// their attribute pairs swap exactly."
func (j *Join) IsReciprocal(other *Join) bool {
	if j == nil || other == nil {
		return false
	}
	return j.SourceName == other.DestName && j.DestName == other.SourceName
}
