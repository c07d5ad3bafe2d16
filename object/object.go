// Package object implements CoreQL's DatabaseObject contract (spec.md
// §3 "DatabaseObject"): a string-keyed accessor over an entity's
// attributes, optionally holding a snapshot so it can revert or
// compute changes against it, with willRead/willChange hooks and
// insert/update/delete/save validation.
//
// The teacher has no equivalent: redi-orm decodes rows straight into
// caller-supplied Go structs via reflection (query/*.go's
// extractFieldsAndValues) and never holds a live, mutable, snapshot-
// aware object of its own. DatabaseObject/Record is new logic, built
// directly from spec.md, but its string-keyed Get/Set accessor plays
// the same role the teacher's reflection-based field access does —
// just explicit rather than reflected, per the explicit-builder
// Open Question resolution package model already made.
package object

import "github.com/core-orm/coreql/model"

// DatabaseObject is the contract package channel and package database
// program against when reading/writing a row's live values.
type DatabaseObject interface {
	Entity() *model.Entity
	GlobalID() *model.GlobalID
	IsNew() bool

	Get(attrName string) (any, error)
	Set(attrName string, value any) error

	// Values returns a copy of every attribute currently present on
	// this object (whether loaded from a fetch or explicitly Set),
	// keyed by attribute name — the post-image package database builds
	// an INSERT/UPDATE row from (spec.md §4.6 "newRow").
	Values() map[string]any

	HasSnapshot() bool
	Snapshot() model.Snapshot
	Revert() error
	ChangesFromSnapshot(baseline model.Snapshot) model.Snapshot
	UpdateFromSnapshot(snap model.Snapshot) model.Snapshot

	AwakeFromFetch(db any) error

	// SetRelated and Related store a prefetched relationship result
	// under the relationship's name, bypassing willChange/snapshot
	// tracking entirely — the "take stored value" channel spec.md
	// §4.5 "Relationship attachment" requires so prefetch assignment
	// never dirties the base object.
	SetRelated(relName string, value any)
	Related(relName string) (any, bool)

	ValidateForInsert() error
	ValidateForUpdate() error
	ValidateForDelete() error
	ValidateForSave() error

	// MarkPersisted absorbs a post-insert/post-update result row
	// (e.g. a driver-assigned auto-increment primary key), clears
	// IsNew, and rebases the held snapshot — spec.md §8 scenario 4
	// "auto-increment insert": "the object afterwards reports
	// isNew == false".
	MarkPersisted(resultRow map[string]any)
}
