package object

import (
	"github.com/core-orm/coreql/corerr"
	"github.com/core-orm/coreql/model"
	"github.com/google/uuid"
)

// Record is the generic DatabaseObject implementation: a live value map
// over one Entity, with willRead/willChange hooks exposed as optional
// callbacks and an optional snapshot baseline for revert/diff. Richer
// domain objects embed *Record and rely on Go's method promotion to
// satisfy DatabaseObject, overriding only what they need to specialize
// (typically AwakeFromFetch).
type Record struct {
	entity *model.Entity
	values map[string]any

	snapshot model.Snapshot // nil => not snapshot-holding
	isNew    bool

	// related holds prefetched relationship results, keyed by
	// relationship name — the "take stored value" slot, entirely
	// separate from values so it never participates in snapshot diffing.
	related map[string]any

	// OnWillRead and OnWillChange fire before Get/Set return, letting an
	// embedding type observe or veto access (spec.md §3: "signals
	// willRead/willChange hooks"). Either may be nil.
	OnWillRead  func(attrName string)
	OnWillChange func(attrName string) error

	// OnAwakeFromFetch, if set, backs AwakeFromFetch (spec.md §4.5 row
	// materialization step 3).
	OnAwakeFromFetch func(db any) error
}

var _ DatabaseObject = (*Record)(nil)

// New builds a fresh, non-snapshot-holding Record for entity — the
// insert path: IsNew is true until MarkPersisted is called.
func New(entity *model.Entity) *Record {
	return &Record{entity: entity, values: make(map[string]any), isNew: true}
}

// FromSnapshot builds a snapshot-holding Record seeded from row (as
// fetched from the database), with IsNew false — the row-materialization
// path (spec.md §4.5 step 3: "apply snapshot").
func FromSnapshot(entity *model.Entity, row model.Snapshot) *Record {
	values := make(map[string]any, len(row))
	for k := range row {
		values[k] = row.Get(k)
	}
	return &Record{entity: entity, values: values, snapshot: row.Clone(), isNew: false}
}

func (r *Record) Entity() *model.Entity { return r.entity }

// GlobalID implements the identity invariant from spec.md §3:
// "an object's identity (global-ID) is entity.globalIDForRow(values)".
func (r *Record) GlobalID() *model.GlobalID {
	return r.entity.GlobalIDForRow(r.values)
}

func (r *Record) IsNew() bool { return r.isNew }

func (r *Record) Get(attrName string) (any, error) {
	if _, err := r.entity.Attribute(attrName); err != nil {
		return nil, corerr.Configuration(err, "object: entity %q", r.entity.Name)
	}
	if r.OnWillRead != nil {
		r.OnWillRead(attrName)
	}
	return r.values[attrName], nil
}

func (r *Record) Set(attrName string, value any) error {
	attr, err := r.entity.Attribute(attrName)
	if err != nil {
		return corerr.Configuration(err, "object: entity %q", r.entity.Name)
	}
	if value == nil && !attr.Nullable {
		return corerr.Type(nil, "object: entity %q: attribute %q is not nullable", r.entity.Name, attrName)
	}
	if r.OnWillChange != nil {
		if err := r.OnWillChange(attrName); err != nil {
			return err
		}
	}
	r.values[attrName] = value
	return nil
}

// Values returns a copy of every attribute currently present (loaded
// or explicitly Set), keyed by attribute name.
func (r *Record) Values() map[string]any {
	values := make(map[string]any, len(r.values))
	for k, v := range r.values {
		values[k] = v
	}
	return values
}

func (r *Record) HasSnapshot() bool { return r.snapshot != nil }

func (r *Record) Snapshot() model.Snapshot { return r.snapshot }

// Revert restores values from the held snapshot.
func (r *Record) Revert() error {
	if r.snapshot == nil {
		return corerr.Lifecycle(nil, "object: entity %q: no snapshot to revert to", r.entity.Name)
	}
	values := make(map[string]any, len(r.snapshot))
	for k := range r.snapshot {
		values[k] = r.snapshot.Get(k)
	}
	r.values = values
	return nil
}

func (r *Record) liveSnapshot() model.Snapshot {
	snap := make(model.Snapshot, len(r.values))
	for k, v := range r.values {
		if v == nil {
			snap[k] = model.NullValue
		} else {
			snap[k] = v
		}
	}
	return snap
}

// ChangesFromSnapshot diffs this object's live values against baseline.
func (r *Record) ChangesFromSnapshot(baseline model.Snapshot) model.Snapshot {
	return r.liveSnapshot().Diff(baseline)
}

// UpdateFromSnapshot applies snap's values as the object's new live
// values and rebases the held snapshot to snap, returning it. Together
// with ChangesFromSnapshot this gives the spec.md §8 round-trip
// property: changesFromSnapshot(updateFromSnapshot(S)) is empty, since
// after the update the live values and the new baseline are both S.
func (r *Record) UpdateFromSnapshot(snap model.Snapshot) model.Snapshot {
	values := make(map[string]any, len(snap))
	for k := range snap {
		values[k] = snap.Get(k)
	}
	r.values = values
	r.snapshot = snap.Clone()
	return r.snapshot
}

// SetRelated stores a prefetched relationship result, bypassing
// willChange/snapshot tracking entirely (spec.md §4.5 "Relationship
// attachment": "bypassing change-tracking so the assignment does not
// dirty the base object").
func (r *Record) SetRelated(relName string, value any) {
	if r.related == nil {
		r.related = make(map[string]any)
	}
	r.related[relName] = value
}

// Related returns a previously attached prefetch result, if any.
func (r *Record) Related(relName string) (any, bool) {
	v, ok := r.related[relName]
	return v, ok
}

func (r *Record) AwakeFromFetch(db any) error {
	if r.OnAwakeFromFetch != nil {
		return r.OnAwakeFromFetch(db)
	}
	return nil
}

// applyGeneratedDefaults fills in attributes whose Default is a
// generator marker (currently just model.GenerateUUID) and are still
// unset, grounded on velox's mixin.ID ("Adds UUID primary key with
// auto-generation").
func (r *Record) applyGeneratedDefaults() {
	for _, attr := range r.entity.Attributes {
		if _, isUUID := attr.Default.(model.UUIDGeneratorMarker); !isUUID {
			continue
		}
		if v, ok := r.values[attr.Name]; ok && v != nil {
			continue
		}
		r.values[attr.Name] = uuid.NewString()
	}
}

// ValidateForInsert requires every non-nullable, non-auto-increment,
// default-less attribute to have a value.
func (r *Record) ValidateForInsert() error {
	r.applyGeneratedDefaults()
	for _, attr := range r.entity.Attributes {
		if attr.Nullable || attr.AutoIncrement || attr.Default != nil {
			continue
		}
		if v, ok := r.values[attr.Name]; !ok || v == nil {
			return corerr.Integrity(nil, "object: entity %q: attribute %q required for insert", r.entity.Name, attr.Name)
		}
	}
	return nil
}

// ValidateForUpdate and ValidateForDelete both require a settled
// identity (spec.md §3: "identity is stable once primary-key columns
// are set" — an object without one has never been persisted).
func (r *Record) ValidateForUpdate() error {
	if r.GlobalID() == nil {
		return corerr.Lifecycle(nil, "object: entity %q: cannot update without a primary key", r.entity.Name)
	}
	return nil
}

func (r *Record) ValidateForDelete() error {
	if r.GlobalID() == nil {
		return corerr.Lifecycle(nil, "object: entity %q: cannot delete without a primary key", r.entity.Name)
	}
	return nil
}

// ValidateForSave dispatches to ValidateForInsert or ValidateForUpdate
// based on IsNew — the same branch save(object) itself takes (spec.md
// §4.6: "save(object) ... chooses INSERT or UPDATE from isNew").
func (r *Record) ValidateForSave() error {
	if r.isNew {
		return r.ValidateForInsert()
	}
	return r.ValidateForUpdate()
}

// MarkPersisted absorbs a driver result row after a successful insert
// or update, clears IsNew, and rebases the snapshot to the now-current
// values (spec.md §8 scenario 4: resultRow.id populated, isNew == false
// afterwards).
func (r *Record) MarkPersisted(resultRow map[string]any) {
	for k, v := range resultRow {
		r.values[k] = v
	}
	r.isNew = false
	r.snapshot = r.liveSnapshot()
}
