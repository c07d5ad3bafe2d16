package database

import (
	"context"

	"github.com/core-orm/coreql/corerr"
	"github.com/core-orm/coreql/fetch"
	"github.com/core-orm/coreql/model"
	"github.com/core-orm/coreql/object"
	"github.com/core-orm/coreql/qualifier"
)

// DataSource is the per-entity repository view a Database hands out
// (spec.md §4.6 "DataSource operations").
type DataSource struct {
	db     *Database
	entity *model.Entity
}

// Entity returns the bound entity.
func (ds *DataSource) Entity() *model.Entity { return ds.entity }

func (ds *DataSource) bind(fs *fetch.Specification) *fetch.Specification {
	if fs == nil {
		fs = fetch.ForEntity(ds.entity)
		return fs
	}
	clone := fs.Clone()
	clone.EntityName = ds.entity.Name
	clone.Entity = ds.entity
	return clone
}

// FetchObjects runs fs (forced onto this DataSource's entity) and
// returns every matching object — spec.md §4.6 "fetchObjects(fs)".
func (ds *DataSource) FetchObjects(ctx context.Context, fs *fetch.Specification) ([]object.DatabaseObject, error) {
	ch := ds.db.newChannel()
	defer ch.CancelFetch()
	return ch.SelectObjectsWithFetchSpecification(ctx, ds.bind(fs))
}

// FetchObjectsStreaming invokes yield once per matching object,
// stopping at the first error yield returns — spec.md §4.6
// "fetchObjects(fs, yield)".
func (ds *DataSource) FetchObjectsStreaming(ctx context.Context, fs *fetch.Specification, yield func(object.DatabaseObject) error) error {
	objs, err := ds.FetchObjects(ctx, fs)
	if err != nil {
		return err
	}
	for _, o := range objs {
		if err := yield(o); err != nil {
			return err
		}
	}
	return nil
}

// FetchGlobalIDs rewrites fs to project only primary-key columns,
// marks it read-only, and disables prefetching (spec.md §4.6
// "fetchGlobalIDs(fs)").
func (ds *DataSource) FetchGlobalIDs(ctx context.Context, fs *fetch.Specification) ([]*model.GlobalID, error) {
	if len(ds.entity.PrimaryKeyNames) == 0 {
		return nil, corerr.Configuration(nil, "database: entity %q has no primary key for a global-ID fetch", ds.entity.Name)
	}
	rewritten := ds.bind(fs)
	rewritten.AttributeNames = append([]string(nil), ds.entity.PrimaryKeyNames...)
	rewritten.Attributes = nil
	rewritten.Flags.FetchesReadOnly = true
	rewritten.Prefetches = nil

	ch := ds.db.newChannel()
	defer ch.CancelFetch()
	objs, err := ch.SelectObjectsWithFetchSpecification(ctx, rewritten)
	if err != nil {
		return nil, err
	}
	ids := make([]*model.GlobalID, 0, len(objs))
	for _, o := range objs {
		if id := o.GlobalID(); id != nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// FetchCount rewrites fs to project a single COUNT(*) read-format
// attribute, drops sort orderings, and limits to 1 row (spec.md §4.6
// "fetchCount(fs)"). The projection runs against a synthetic
// model.Entity.Projection so the bound model's real entity is never
// mutated with a pseudo-attribute.
func (ds *DataSource) FetchCount(ctx context.Context, fs *fetch.Specification) (int64, error) {
	rewritten := ds.bind(fs)
	countAttr := model.CountAttribute()
	rewritten.Entity = ds.entity.Projection(countAttr)
	rewritten.Attributes = []model.Attribute{countAttr}
	rewritten.AttributeNames = nil
	rewritten.SortOrderings = nil
	rewritten.Limit = 1
	rewritten.Offset = 0
	rewritten.Prefetches = nil

	ch := ds.db.newChannel()
	defer ch.CancelFetch()
	objs, err := ch.SelectObjectsWithFetchSpecification(ctx, rewritten)
	if err != nil {
		return 0, err
	}
	if len(objs) == 0 {
		return 0, corerr.Integrity(nil, "database: entity %q: count fetch returned no rows", ds.entity.Name)
	}
	v, err := objs[0].Get(countAttr.Name)
	if err != nil {
		return 0, corerr.Configuration(err, "database: entity %q: reading COUNT(*) projection", ds.entity.Name)
	}
	n, err := model.Coerce(model.TypeInt64, v)
	if err != nil {
		return 0, err
	}
	count, _ := n.(int64)
	return count, nil
}

// FindByID fetches the single object identified by id, or (nil, nil)
// if none matches.
func (ds *DataSource) FindByID(ctx context.Context, id *model.GlobalID) (object.DatabaseObject, error) {
	return ds.FindByQualifier(ctx, qualifierForGlobalID(id))
}

// FindByQualifier runs a LIMIT-1-intent fetch restricted by q and
// fails if more than one row actually matches (spec.md §4.6
// "findBy(id) / findBy(qualifier) — LIMIT 1 fetches; fail if more
// than one result"). A literal SQL LIMIT 1 can never surface a second
// row to detect, so internally the fetch is capped at 2 rows: one to
// return, a second purely to catch and reject a non-unique match.
func (ds *DataSource) FindByQualifier(ctx context.Context, q qualifier.Qualifier) (object.DatabaseObject, error) {
	fs := fetch.ForEntity(ds.entity).WithQualifier(q).WithLimit(2)
	objs, err := ds.FetchObjects(ctx, fs)
	if err != nil {
		return nil, err
	}
	switch len(objs) {
	case 0:
		return nil, nil
	case 1:
		return objs[0], nil
	default:
		return nil, corerr.Integrity(nil, "database: findBy on entity %q matched more than one row", ds.entity.Name)
	}
}

func qualifierForGlobalID(id *model.GlobalID) qualifier.Qualifier {
	if id == nil || len(id.Keys) == 0 {
		return qualifier.False()
	}
	terms := make([]qualifier.Qualifier, 0, len(id.Keys))
	for k, v := range id.Keys {
		terms = append(terms, qualifier.KV(k, qualifier.Equal, v))
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return qualifier.NewAnd(terms...)
}

// Save chooses INSERT or UPDATE from obj.IsNew(), builds and dispatches
// the corresponding DatabaseOperation through a single transaction,
// and marks obj persisted with any driver-assigned result row (spec.md
// §4.6 "save(object)").
func (ds *DataSource) Save(ctx context.Context, obj object.DatabaseObject) error {
	var err error
	if obj.IsNew() {
		err = obj.ValidateForInsert()
	} else {
		err = obj.ValidateForUpdate()
	}
	if err != nil {
		return err
	}

	factory := ds.db.Adaptor.ExpressionFactory()
	var op *Operation
	if obj.IsNew() {
		stmt, err := factory.InsertStatementForRow(obj.Values(), ds.entity)
		if err != nil {
			return err
		}
		op = insertOperation(obj, ds.entity, stmt)
	} else {
		q := qualifierForGlobalID(obj.GlobalID())
		stmt, err := factory.UpdateStatementForRow(obj.Values(), q, ds.entity)
		if err != nil {
			return err
		}
		op = updateOperation(obj, ds.entity, stmt)
	}
	return ds.perform(ctx, op)
}

// Delete issues a DELETE restricted to obj's primary key (spec.md §4.6
// "delete(object)").
func (ds *DataSource) Delete(ctx context.Context, obj object.DatabaseObject) error {
	if err := obj.ValidateForDelete(); err != nil {
		return err
	}
	q := qualifierForGlobalID(obj.GlobalID())
	stmt, err := ds.db.Adaptor.ExpressionFactory().DeleteStatementWithQualifier(q, ds.entity)
	if err != nil {
		return err
	}
	return ds.perform(ctx, deleteOperation(obj, ds.entity, stmt))
}

func (ds *DataSource) perform(ctx context.Context, op *Operation) error {
	ch, err := ds.db.Adaptor.OpenChannelFromPool(ctx)
	if err != nil {
		return corerr.Driver(err, "database: acquiring channel for write")
	}
	defer func() {
		_ = ds.db.Adaptor.ReleaseChannel(ch)
	}()
	return performDatabaseOperations(ctx, ch, []*Operation{op})
}
