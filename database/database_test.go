package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/core-orm/coreql/adaptor"
	"github.com/core-orm/coreql/corerr"
	"github.com/core-orm/coreql/fetch"
	"github.com/core-orm/coreql/model"
	"github.com/core-orm/coreql/object"
	"github.com/core-orm/coreql/qualifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordFor(t *testing.T, entity *model.Entity) *object.Record {
	t.Helper()
	return object.New(entity)
}

func recordFromRow(t *testing.T, entity *model.Entity, row map[string]any) *object.Record {
	t.Helper()
	snap := make(model.Snapshot, len(row))
	for k, v := range row {
		snap[k] = v
	}
	return object.FromSnapshot(entity, snap)
}

// fakeFactory threads (row/qualifier, entity) straight through
// Expression.Args instead of synthesizing real SQL text, mirroring
// package channel's test fake, so fakeChannel can execute writes
// against its in-memory tables directly.
type fakeFactory struct{}

func (fakeFactory) SelectExpressionForAttributes(attrs []model.Attribute, lock bool, fs *fetch.Specification, entity *model.Entity) (adaptor.Expression, error) {
	return adaptor.Expression{Statement: "SELECT", Args: []any{fs, entity}, Attrs: attrs}, nil
}
func (fakeFactory) InsertStatementForRow(row map[string]any, entity *model.Entity) (adaptor.Expression, error) {
	return adaptor.Expression{Statement: "INSERT", Args: []any{row, entity}}, nil
}
func (fakeFactory) UpdateStatementForRow(row map[string]any, q qualifier.Qualifier, entity *model.Entity) (adaptor.Expression, error) {
	return adaptor.Expression{Statement: "UPDATE", Args: []any{row, q, entity}}, nil
}
func (fakeFactory) DeleteStatementWithQualifier(q qualifier.Qualifier, entity *model.Entity) (adaptor.Expression, error) {
	return adaptor.Expression{Statement: "DELETE", Args: []any{q, entity}}, nil
}
func (fakeFactory) ExpressionForString(sql string, args []any, attrs []model.Attribute) adaptor.Expression {
	return adaptor.Expression{}
}
func (fakeFactory) CreateTableStatements(m *model.Model) ([]adaptor.Expression, error) { return nil, nil }
func (fakeFactory) DropTableStatements(m *model.Model) ([]adaptor.Expression, error)   { return nil, nil }

var _ adaptor.ExpressionFactory = fakeFactory{}

func evalQualifier(q qualifier.Qualifier, row map[string]any) (bool, error) {
	switch v := q.(type) {
	case qualifier.And:
		for _, o := range v.Operands {
			ok, err := evalQualifier(o, row)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case qualifier.Or:
		for _, o := range v.Operands {
			ok, err := evalQualifier(o, row)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case qualifier.Boolean:
		return v.Value, nil
	case qualifier.KeyValue:
		actual := row[v.Key]
		switch v.Op {
		case qualifier.Equal:
			return fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", v.Value), nil
		case qualifier.Greater:
			return toInt(actual) > toInt(v.Value), nil
		default:
			return false, fmt.Errorf("unsupported op in test fake: %v", v.Op)
		}
	default:
		return false, fmt.Errorf("unsupported qualifier kind in test fake: %T", q)
	}
}

func toInt(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	default:
		return 0
	}
}

// fakeChannel is a minimal in-memory adaptor.Channel: SELECT filters
// fs.Qualifier and (for a COUNT(*) projection) reports the matched
// count instead of per-row rows; writes mutate the in-memory table
// directly instead of issuing SQL.
type fakeChannel struct {
	tables    map[string][]map[string]any
	nextID    map[string]int64
	txOpen    bool
	committed bool
	rolledBack bool
	order     []string // entity names in PerformAdaptorOperation call order
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{tables: map[string][]map[string]any{}, nextID: map[string]int64{}}
}

func (f *fakeChannel) Begin(ctx context.Context) error { f.txOpen = true; return nil }
func (f *fakeChannel) Commit() error                   { f.txOpen = false; f.committed = true; return nil }
func (f *fakeChannel) Rollback() error                 { f.txOpen = false; f.rolledBack = true; return nil }
func (f *fakeChannel) IsTransactionInProgress() bool    { return f.txOpen }

func (f *fakeChannel) EvaluateQueryExpression(ctx context.Context, expr adaptor.Expression, yield adaptor.RowYield) error {
	fs, _ := expr.Args[0].(*fetch.Specification)
	entity, _ := expr.Args[1].(*model.Entity)

	var matches []map[string]any
	for _, row := range f.tables[entity.Name] {
		if fs.Qualifier != nil {
			ok, err := evalQualifier(fs.Qualifier, row)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
		}
		matches = append(matches, row)
	}

	for _, a := range expr.Attrs {
		if a.Name == "_count" {
			values := []any{int64(len(matches))}
			return yield(adaptor.Row{Attrs: expr.Attrs, Values: values})
		}
	}

	if fs.Offset > 0 && fs.Offset < len(matches) {
		matches = matches[fs.Offset:]
	} else if fs.Offset >= len(matches) {
		matches = nil
	}
	if fs.Limit > 0 && len(matches) > fs.Limit {
		matches = matches[:fs.Limit]
	}

	for _, row := range matches {
		values := make([]any, len(expr.Attrs))
		for i, a := range expr.Attrs {
			values[i] = row[a.Name]
		}
		if err := yield(adaptor.Row{Attrs: expr.Attrs, Values: values}); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeChannel) PerformAdaptorOperation(ctx context.Context, op *adaptor.Operation) (int64, error) {
	f.order = append(f.order, op.EntityName)
	switch op.Operator {
	case adaptor.OpInsert:
		row, _ := op.Expression.Args[0].(map[string]any)
		entity, _ := op.Expression.Args[1].(*model.Entity)
		stored := make(map[string]any, len(row)+1)
		for k, v := range row {
			stored[k] = v
		}
		if _, ok := stored["id"]; !ok {
			f.nextID[entity.Name]++
			id := f.nextID[entity.Name]
			stored["id"] = id
			op.ResultRow = map[string]any{"id": id}
		}
		f.tables[entity.Name] = append(f.tables[entity.Name], stored)
		return 1, nil
	case adaptor.OpUpdate:
		row, _ := op.Expression.Args[0].(map[string]any)
		q, _ := op.Expression.Args[1].(qualifier.Qualifier)
		entity, _ := op.Expression.Args[2].(*model.Entity)
		var affected int64
		for _, stored := range f.tables[entity.Name] {
			ok, err := evalQualifier(q, stored)
			if err != nil {
				return 0, err
			}
			if !ok {
				continue
			}
			for k, v := range row {
				stored[k] = v
			}
			affected++
		}
		return affected, nil
	case adaptor.OpDelete:
		q, _ := op.Expression.Args[0].(qualifier.Qualifier)
		entity, _ := op.Expression.Args[1].(*model.Entity)
		kept := f.tables[entity.Name][:0]
		var affected int64
		for _, stored := range f.tables[entity.Name] {
			ok, err := evalQualifier(q, stored)
			if err != nil {
				return 0, err
			}
			if ok {
				affected++
				continue
			}
			kept = append(kept, stored)
		}
		f.tables[entity.Name] = kept
		return affected, nil
	default:
		return 0, nil
	}
}

func (f *fakeChannel) QuerySQL(ctx context.Context, sql string, args []any, yield adaptor.RowYield) error {
	return nil
}
func (f *fakeChannel) PerformSQL(ctx context.Context, sql string, args []any) (int64, error) {
	return 0, nil
}
func (f *fakeChannel) ReflectModel(ctx context.Context) (*model.Model, error) { return nil, nil }
func (f *fakeChannel) Close() error                                           { return nil }

var _ adaptor.Channel = (*fakeChannel)(nil)

type fakeAdaptor struct {
	ch           *fakeChannel
	m            *model.Model
	releaseCount int
}

func (a *fakeAdaptor) Capabilities() adaptor.Capabilities           { return nil }
func (a *fakeAdaptor) ExpressionFactory() adaptor.ExpressionFactory { return fakeFactory{} }
func (a *fakeAdaptor) OpenChannel(ctx context.Context) (adaptor.Channel, error) { return a.ch, nil }
func (a *fakeAdaptor) OpenChannelFromPool(ctx context.Context) (adaptor.Channel, error) {
	return a.ch, nil
}
func (a *fakeAdaptor) ReleaseChannel(ch adaptor.Channel) error { a.releaseCount++; return nil }
func (a *fakeAdaptor) Model() *model.Model                     { return a.m }
func (a *fakeAdaptor) BindModel(m *model.Model)                { a.m = m }
func (a *fakeAdaptor) Close() error                             { return nil }

var _ adaptor.Adaptor = (*fakeAdaptor)(nil)

func personModel(t *testing.T) (*model.Model, *model.Entity) {
	t.Helper()
	person, err := model.NewEntityBuilder("Person").
		PrimaryKey("id").
		Attribute("id", model.TypeInt64, model.AutoIncrement()).
		Attribute("name", model.TypeString).
		Attribute("city", model.TypeString, model.Nullable()).
		Build()
	require.NoError(t, err)

	m := model.New()
	require.NoError(t, m.AddEntity(person))
	require.NoError(t, m.ConnectRelationships())
	return m, person
}

func newTestDatabase(t *testing.T) (*Database, *fakeAdaptor, *DataSource) {
	t.Helper()
	m, _ := personModel(t)
	a := &fakeAdaptor{ch: newFakeChannel(), m: m}
	db := New(a)
	require.NoError(t, db.BindModel(m))
	ds, err := db.DataSource("Person")
	require.NoError(t, err)
	return db, a, ds
}

func TestFetchAllConcurrently_FetchesEveryEntity(t *testing.T) {
	m, _ := personModel(t)
	address, err := model.NewEntityBuilder("Address").
		PrimaryKey("id").
		Attribute("id", model.TypeInt64).
		Attribute("city", model.TypeString).
		Build()
	require.NoError(t, err)
	require.NoError(t, m.AddEntity(address))
	require.NoError(t, m.ConnectRelationships())

	a := &fakeAdaptor{ch: newFakeChannel(), m: m}
	a.ch.tables["Person"] = []map[string]any{{"id": int64(1), "name": "Ada"}}
	a.ch.tables["Address"] = []map[string]any{{"id": int64(1), "city": "London"}, {"id": int64(2), "city": "Boston"}}

	db := New(a)
	require.NoError(t, db.BindModel(m))

	results, err := db.FetchAllConcurrently(context.Background(), map[string]*fetch.Specification{
		"Person":  fetch.New("Person"),
		"Address": fetch.New("Address"),
	})
	require.NoError(t, err)
	assert.Len(t, results["Person"], 1)
	assert.Len(t, results["Address"], 2)
}

func TestFetchAllConcurrently_UnknownEntityFails(t *testing.T) {
	db, _, _ := newTestDatabase(t)

	_, err := db.FetchAllConcurrently(context.Background(), map[string]*fetch.Specification{
		"Bogus": fetch.New("Bogus"),
	})
	assert.Error(t, err)
}

func TestFetchCount_MatchesQualifierAndIgnoresLimit(t *testing.T) {
	_, a, ds := newTestDatabase(t)
	a.ch.tables["Person"] = []map[string]any{
		{"id": int64(1), "name": "Ada"},
		{"id": int64(2), "name": "Grace"},
		{"id": int64(3), "name": "Alan"},
	}

	fs := fetch.New("Person").WithQualifier(qualifier.KV("id", qualifier.Greater, 1)).WithLimit(10)
	count, err := ds.FetchCount(context.Background(), fs)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestFetchGlobalIDs_ProjectsOnlyPrimaryKey(t *testing.T) {
	_, a, ds := newTestDatabase(t)
	a.ch.tables["Person"] = []map[string]any{
		{"id": int64(1), "name": "Ada"},
		{"id": int64(2), "name": "Grace"},
	}

	ids, err := ds.FetchGlobalIDs(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, "Person", ids[0].EntityName)
	assert.Contains(t, ids[0].Keys, "id")
}

func TestFindByQualifier_SingleMatchReturnsObject(t *testing.T) {
	_, a, ds := newTestDatabase(t)
	a.ch.tables["Person"] = []map[string]any{{"id": int64(1), "name": "Ada"}}

	obj, err := ds.FindByQualifier(context.Background(), qualifier.KV("name", qualifier.Equal, "Ada"))
	require.NoError(t, err)
	require.NotNil(t, obj)
	name, _ := obj.Get("name")
	assert.Equal(t, "Ada", name)
}

func TestFindByQualifier_NoMatchReturnsNilWithoutError(t *testing.T) {
	_, _, ds := newTestDatabase(t)
	obj, err := ds.FindByQualifier(context.Background(), qualifier.KV("name", qualifier.Equal, "Nobody"))
	require.NoError(t, err)
	assert.Nil(t, obj)
}

func TestFindByQualifier_MoreThanOneMatchFails(t *testing.T) {
	_, a, ds := newTestDatabase(t)
	a.ch.tables["Person"] = []map[string]any{
		{"id": int64(1), "name": "Ada", "city": "London"},
		{"id": int64(2), "name": "Grace", "city": "London"},
	}

	_, err := ds.FindByQualifier(context.Background(), qualifier.KV("city", qualifier.Equal, "London"))
	assert.True(t, corerr.Is(err, corerr.ErrIntegrity))
}

func TestFindByID_UsesGlobalIDKeys(t *testing.T) {
	_, a, ds := newTestDatabase(t)
	a.ch.tables["Person"] = []map[string]any{{"id": int64(7), "name": "Ada"}}

	obj, err := ds.FindByID(context.Background(), model.NewSingleIntKeyGlobalID("Person", "id", 7))
	require.NoError(t, err)
	require.NotNil(t, obj)
}

// TestSave_InsertAssignsAutoIncrementPrimaryKey is spec.md §8 scenario
// 4: "auto-increment insert": the object reports isNew == false and a
// non-zero assigned id afterwards.
func TestSave_InsertAssignsAutoIncrementPrimaryKey(t *testing.T) {
	_, a, ds := newTestDatabase(t)
	_, person := personModel(t)
	rec := recordFor(t, person)
	require.NoError(t, rec.Set("name", "Ada"))

	require.NoError(t, ds.Save(context.Background(), rec))

	assert.False(t, rec.IsNew())
	id := rec.GlobalID()
	require.NotNil(t, id)
	assert.NotZero(t, id.Keys["id"])
	require.Len(t, a.ch.tables["Person"], 1)
	assert.True(t, a.ch.committed)
}

func TestSave_UpdateAppliesChangedColumn(t *testing.T) {
	_, a, ds := newTestDatabase(t)
	a.ch.tables["Person"] = []map[string]any{{"id": int64(1), "name": "Ada", "city": "London"}}

	_, person := personModel(t)
	rec := recordFromRow(t, person, map[string]any{"id": int64(1), "name": "Ada", "city": "London"})
	require.NoError(t, rec.Set("city", "Cambridge"))

	require.NoError(t, ds.Save(context.Background(), rec))
	assert.Equal(t, "Cambridge", a.ch.tables["Person"][0]["city"])
}

func TestDelete_RemovesRowByPrimaryKey(t *testing.T) {
	_, a, ds := newTestDatabase(t)
	a.ch.tables["Person"] = []map[string]any{{"id": int64(1), "name": "Ada"}}

	_, person := personModel(t)
	rec := recordFromRow(t, person, map[string]any{"id": int64(1), "name": "Ada"})

	require.NoError(t, ds.Delete(context.Background(), rec))
	assert.Empty(t, a.ch.tables["Person"])
}

func TestPerformDatabaseOperations_RollsBackOnError(t *testing.T) {
	m, person := personModel(t)
	ch := newFakeChannel()
	ch.tables["Person"] = []map[string]any{{"id": int64(1)}}
	a := &fakeAdaptor{ch: ch, m: m}
	db := New(a)
	require.NoError(t, db.BindModel(m))

	// A delete qualifier that errors in the fake's evalQualifier
	// (unsupported qualifier kind) simulates a mid-batch adaptor failure.
	badOp := deleteOperation(recordFromRow(t, person, map[string]any{"id": int64(1)}), person,
		adaptor.Expression{Statement: "DELETE", Args: []any{qualifier.Raw("boom"), person}})

	rawCh, err := a.OpenChannelFromPool(context.Background())
	require.NoError(t, err)
	err = performDatabaseOperations(context.Background(), rawCh, []*Operation{badOp})
	assert.Error(t, err)
	assert.True(t, ch.rolledBack)
}
