package database

import (
	"context"
	"sort"

	"github.com/core-orm/coreql/adaptor"
	"github.com/core-orm/coreql/corerr"
	"github.com/core-orm/coreql/model"
	"github.com/core-orm/coreql/object"
)

// Operation is one DatabaseOperation (spec.md §4.6): the object-level
// write intent, decomposed into the ordered sequence of
// AdaptorOperations that actually carry it out.
type Operation struct {
	Object   object.DatabaseObject
	Entity   *model.Entity
	Operator adaptor.Operator

	DBSnapshot model.Snapshot // pre-image, nil for an insert
	NewRow     model.Snapshot // post-image to write

	AdaptorOperations []*adaptor.Operation
}

// insertOperation builds the single-statement Operation for a new
// object (spec.md §4.6 "save ... dispatches insert or update").
func insertOperation(obj object.DatabaseObject, entity *model.Entity, stmt adaptor.Expression) *Operation {
	return &Operation{
		Object:            obj,
		Entity:            entity,
		Operator:          adaptor.OpInsert,
		NewRow:            model.Snapshot(snapshotFromValues(obj.Values())),
		AdaptorOperations: []*adaptor.Operation{{EntityName: entity.Name, Operator: adaptor.OpInsert, Expression: stmt}},
	}
}

func updateOperation(obj object.DatabaseObject, entity *model.Entity, stmt adaptor.Expression) *Operation {
	var dbSnap model.Snapshot
	if obj.HasSnapshot() {
		dbSnap = obj.Snapshot()
	}
	return &Operation{
		Object:            obj,
		Entity:            entity,
		Operator:          adaptor.OpUpdate,
		DBSnapshot:        dbSnap,
		NewRow:            model.Snapshot(snapshotFromValues(obj.Values())),
		AdaptorOperations: []*adaptor.Operation{{EntityName: entity.Name, Operator: adaptor.OpUpdate, Expression: stmt}},
	}
}

func deleteOperation(obj object.DatabaseObject, entity *model.Entity, stmt adaptor.Expression) *Operation {
	var dbSnap model.Snapshot
	if obj.HasSnapshot() {
		dbSnap = obj.Snapshot()
	}
	return &Operation{
		Object:            obj,
		Entity:            entity,
		Operator:          adaptor.OpDelete,
		DBSnapshot:        dbSnap,
		AdaptorOperations: []*adaptor.Operation{{EntityName: entity.Name, Operator: adaptor.OpDelete, Expression: stmt}},
	}
}

func snapshotFromValues(values map[string]any) model.Snapshot {
	snap := make(model.Snapshot, len(values))
	for k, v := range values {
		if v == nil {
			snap[k] = model.NullValue
		} else {
			snap[k] = v
		}
	}
	return snap
}

// performDatabaseOperations opens a single transaction on ch, executes
// every AdaptorOperation across ops sorted by (entity name, operator
// ordinal) via adaptor.Less, commits on success, and rolls back on the
// first error (spec.md §4.6 "DatabaseOperation batching", §5
// "Transaction discipline: one transaction per batch"). On success,
// every insert/update Operation's Object absorbs its ResultRow via
// MarkPersisted.
func performDatabaseOperations(ctx context.Context, ch adaptor.Channel, ops []*Operation) error {
	all := make([]*adaptor.Operation, 0, len(ops))
	for _, op := range ops {
		all = append(all, op.AdaptorOperations...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return adaptor.Less(*all[i], *all[j])
	})

	if err := ch.Begin(ctx); err != nil {
		return corerr.Driver(err, "database: beginning write transaction")
	}
	for _, aop := range all {
		if _, err := ch.PerformAdaptorOperation(ctx, aop); err != nil {
			if rerr := ch.Rollback(); rerr != nil {
				return corerr.Driver(err, "database: operation on entity %q failed: %v (rollback also failed: %v)", aop.EntityName, err, rerr)
			}
			return corerr.Driver(err, "database: performing operation on entity %q", aop.EntityName)
		}
	}
	if err := ch.Commit(); err != nil {
		return corerr.Driver(err, "database: committing write transaction")
	}

	for _, op := range ops {
		if op.Operator != adaptor.OpInsert && op.Operator != adaptor.OpUpdate {
			continue
		}
		merged := map[string]any{}
		for _, aop := range op.AdaptorOperations {
			for k, v := range aop.ResultRow {
				merged[k] = v
			}
		}
		op.Object.MarkPersisted(merged)
	}
	return nil
}
