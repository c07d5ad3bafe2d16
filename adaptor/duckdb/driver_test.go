package duckdb

import (
	"context"
	"testing"

	"github.com/core-orm/coreql/adaptor"
	"github.com/core-orm/coreql/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) adaptor.Adaptor {
	t.Helper()
	a, err := New(adaptor.Config{Scheme: "duckdb", DSN: "duckdb://:memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func personModel(t *testing.T) *model.Model {
	t.Helper()
	person, err := model.NewEntityBuilder("Person").
		Table("people").
		PrimaryKey("id").
		Attribute("id", model.TypeInt64, model.AutoIncrement()).
		Attribute("name", model.TypeString).
		Build()
	require.NoError(t, err)

	m := model.New()
	require.NoError(t, m.AddEntity(person))
	require.NoError(t, m.ConnectRelationships())
	return m
}

func TestDataSourceName_MemoryURI(t *testing.T) {
	dsn, err := dataSourceName(adaptor.Config{DSN: "duckdb://:memory:"})
	require.NoError(t, err)
	assert.Equal(t, ":memory:", dsn)
}

func TestDataSourceName_AbsoluteFilePath(t *testing.T) {
	dsn, err := dataSourceName(adaptor.Config{DSN: "duckdb:///var/data/app.duckdb"})
	require.NoError(t, err)
	assert.Equal(t, "/var/data/app.duckdb", dsn)
}

func TestNew_RegistersThroughRegistry(t *testing.T) {
	a, err := adaptor.Open("duckdb://:memory:")
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, "duckdb", a.Capabilities().DriverName())
}

// TestInsertAndFetch_RoundTripsThroughRealDuckDB exercises the full
// Channel path against the real duckdb-go/v2 driver: CREATE TABLE via
// raw SQL, INSERT with a RETURNING-assigned primary key, then SELECT
// it back. The id column is supplied explicitly rather than relying on
// auto-increment: DuckDB has no SQLite/MySQL-style AUTOINCREMENT,
// generating surrogate keys from sequences/IDENTITY instead, which is
// DDL that CreateTableStatements does not emit.
func TestInsertAndFetch_RoundTripsThroughRealDuckDB(t *testing.T) {
	a := openMemory(t)
	m := personModel(t)
	a.BindModel(m)
	entity := m.Entity("Person")

	ctx := context.Background()
	ch, err := a.OpenChannel(ctx)
	require.NoError(t, err)
	defer ch.Close()

	_, err = ch.PerformSQL(ctx, `CREATE TABLE "people" ("id" BIGINT PRIMARY KEY, "name" VARCHAR NOT NULL)`, nil)
	require.NoError(t, err)

	insertStmt, err := a.ExpressionFactory().InsertStatementForRow(map[string]any{
		"id": int64(1), "name": "Ada",
	}, entity)
	require.NoError(t, err)
	op := &adaptor.Operation{EntityName: "Person", Operator: adaptor.OpInsert, Expression: insertStmt}
	affected, err := ch.PerformAdaptorOperation(ctx, op)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NotNil(t, op.ResultRow)
	assert.EqualValues(t, 1, op.ResultRow["id"])

	selectStmt, err := a.ExpressionFactory().SelectExpressionForAttributes(entity.Attributes, false, nil, entity)
	require.NoError(t, err)
	var names []string
	err = ch.EvaluateQueryExpression(ctx, selectStmt, func(row adaptor.Row) error {
		v, _ := row.Get("name")
		names = append(names, v.(string))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada"}, names)
}

func TestReflectSchema_DiscoversCreatedTable(t *testing.T) {
	a := openMemory(t)
	m := personModel(t)
	a.BindModel(m)

	ctx := context.Background()
	ch, err := a.OpenChannel(ctx)
	require.NoError(t, err)
	defer ch.Close()

	_, err = ch.PerformSQL(ctx, `CREATE TABLE "people" ("id" BIGINT PRIMARY KEY, "name" VARCHAR NOT NULL)`, nil)
	require.NoError(t, err)

	reflected, err := ch.ReflectModel(ctx)
	require.NoError(t, err)
	entity := reflected.Entity("people")
	require.NotNil(t, entity)
	_, err = entity.Attribute("name")
	assert.NoError(t, err)
}

func TestValueTypeFromDataType(t *testing.T) {
	cases := map[string]model.ValueType{
		"INTEGER":   model.TypeInt,
		"BIGINT":    model.TypeInt64,
		"DOUBLE":    model.TypeFloat,
		"DECIMAL":   model.TypeDecimal,
		"BOOLEAN":   model.TypeBool,
		"TIMESTAMP": model.TypeDateTime,
		"BLOB":      model.TypeBytes,
		"JSON":      model.TypeJSON,
		"VARCHAR":   model.TypeString,
	}
	for dataType, want := range cases {
		assert.Equal(t, want, valueTypeFromDataType(dataType), dataType)
	}
}
