package postgres

import (
	"context"
	"strings"

	"github.com/core-orm/coreql/adaptor/sqlcommon"
	"github.com/core-orm/coreql/corerr"
	"github.com/core-orm/coreql/model"
)

// reflectSchema implements sqlcommon.Reflector for PostgreSQL via
// information_schema, grounded on the teacher's
// drivers/postgresql/migrator.go table-introspection queries.
func reflectSchema(ctx context.Context, q sqlcommon.Queryer) (*model.Model, error) {
	pkCols, err := primaryKeyColumns(ctx, q)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT table_name, column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = 'public'
		ORDER BY table_name, ordinal_position
	`)
	if err != nil {
		return nil, corerr.Driver(err, "postgres: reading information_schema.columns")
	}
	defer rows.Close()

	schema := map[string][]sqlcommon.ColumnInfo{}
	for rows.Next() {
		var table, column, dataType, isNullable string
		var columnDefault *string
		if err := rows.Scan(&table, &column, &dataType, &isNullable, &columnDefault); err != nil {
			return nil, corerr.Driver(err, "postgres: scanning information_schema.columns row")
		}
		isPK := pkCols[table][column]
		autoIncrement := isPK && columnDefault != nil && strings.Contains(*columnDefault, "nextval(")
		schema[table] = append(schema[table], sqlcommon.ColumnInfo{
			Name:          column,
			Type:          valueTypeFromDataType(dataType),
			Nullable:      isNullable == "YES",
			PrimaryKey:    isPK,
			AutoIncrement: autoIncrement,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, corerr.Driver(err, "postgres: reading information_schema.columns")
	}

	return sqlcommon.BuildReflectedModel(schema)
}

// primaryKeyColumns maps table name -> column name -> true for every
// column participating in a primary key, via
// information_schema.table_constraints joined to key_column_usage.
func primaryKeyColumns(ctx context.Context, q sqlcommon.Queryer) (map[string]map[string]bool, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT tc.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = 'public'
	`)
	if err != nil {
		return nil, corerr.Driver(err, "postgres: reading primary key constraints")
	}
	defer rows.Close()

	result := map[string]map[string]bool{}
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, corerr.Driver(err, "postgres: scanning primary key constraint row")
		}
		if result[table] == nil {
			result[table] = map[string]bool{}
		}
		result[table][column] = true
	}
	return result, rows.Err()
}

// valueTypeFromDataType maps information_schema.columns.data_type
// (PostgreSQL's own type names) to model.ValueType.
func valueTypeFromDataType(dataType string) model.ValueType {
	switch strings.ToLower(dataType) {
	case "smallint", "integer":
		return model.TypeInt
	case "bigint":
		return model.TypeInt64
	case "real", "double precision":
		return model.TypeFloat
	case "numeric", "decimal":
		return model.TypeDecimal
	case "boolean":
		return model.TypeBool
	case "timestamp without time zone", "timestamp with time zone", "date", "time without time zone", "time with time zone":
		return model.TypeDateTime
	case "bytea":
		return model.TypeBytes
	case "json", "jsonb":
		return model.TypeJSON
	default:
		return model.TypeString
	}
}
