package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/core-orm/coreql/adaptor"
	"github.com/core-orm/coreql/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDSN follows the teacher's drivers/postgresql/test_config.go
// convention: integration tests against a real server are opt-in via
// an environment variable, never run by default.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("COREQL_POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("COREQL_POSTGRES_TEST_DSN not set, skipping postgres integration test")
	}
	return dsn
}

func personModel(t *testing.T) *model.Model {
	t.Helper()
	person, err := model.NewEntityBuilder("Person").
		Table("coreql_people").
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

func TestNew_RegistersThroughRegistry(t *testing.T) {
	dsn := testDSN(t)
	a, err := adaptor.Open(dsn)
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, "postgres", a.Capabilities().DriverName())
}

// TestInsertAndFetch_RoundTripsThroughRealPostgres exercises the full
// Channel path against a live PostgreSQL server: CREATE TABLE, INSERT
// with a RETURNING-assigned primary key, SELECT it back, then drop the
// table so the test is repeatable.
func TestInsertAndFetch_RoundTripsThroughRealPostgres(t *testing.T) {
	dsn := testDSN(t)
	a, err := New(adaptor.Config{Scheme: "postgres", DSN: dsn})
	require.NoError(t, err)
	defer a.Close()

	m := personModel(t)
	a.BindModel(m)
	entity := m.Entity("Person")

	ctx := context.Background()
	ch, err := a.OpenChannel(ctx)
	require.NoError(t, err)
	defer ch.Close()

	_, _ = ch.PerformSQL(ctx, `DROP TABLE IF EXISTS "coreql_people"`, nil)
	_, err = ch.PerformSQL(ctx, `CREATE TABLE "coreql_people" ("id" SERIAL PRIMARY KEY, "name" TEXT NOT NULL)`, nil)
	require.NoError(t, err)
	defer ch.PerformSQL(ctx, `DROP TABLE IF EXISTS "coreql_people"`, nil)

	insertStmt, err := a.ExpressionFactory().InsertStatementForRow(map[string]any{"name": "Ada"}, entity)
	require.NoError(t, err)
	op := &adaptor.Operation{EntityName: "Person", Operator: adaptor.OpInsert, Expression: insertStmt}
	affected, err := ch.PerformAdaptorOperation(ctx, op)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NotNil(t, op.ResultRow)
	assert.NotZero(t, op.ResultRow["id"])

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
	dsn := testDSN(t)
	a, err := New(adaptor.Config{Scheme: "postgres", DSN: dsn})
	require.NoError(t, err)
	defer a.Close()

	m := personModel(t)
	a.BindModel(m)

	ctx := context.Background()
	ch, err := a.OpenChannel(ctx)
	require.NoError(t, err)
	defer ch.Close()

	_, _ = ch.PerformSQL(ctx, `DROP TABLE IF EXISTS "coreql_people"`, nil)
	_, err = ch.PerformSQL(ctx, `CREATE TABLE "coreql_people" ("id" SERIAL PRIMARY KEY, "name" TEXT NOT NULL)`, nil)
	require.NoError(t, err)
	defer ch.PerformSQL(ctx, `DROP TABLE IF EXISTS "coreql_people"`, nil)

	reflected, err := ch.ReflectModel(ctx)
	require.NoError(t, err)
	entity := reflected.Entity("coreql_people")
	require.NotNil(t, entity)
	_, err = entity.Attribute("name")
	assert.NoError(t, err)
}

func TestValueTypeFromDataType(t *testing.T) {
	cases := map[string]model.ValueType{
		"integer":                     model.TypeInt,
		"bigint":                      model.TypeInt64,
		"double precision":            model.TypeFloat,
		"numeric":                     model.TypeDecimal,
		"boolean":                     model.TypeBool,
		"timestamp without time zone": model.TypeDateTime,
		"bytea":                       model.TypeBytes,
		"jsonb":                       model.TypeJSON,
		"character varying":           model.TypeString,
	}
	for dataType, want := range cases {
		assert.Equal(t, want, valueTypeFromDataType(dataType), dataType)
	}
}
