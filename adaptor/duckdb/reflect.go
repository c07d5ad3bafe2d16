package duckdb

import (
	"context"
	"strings"

	"github.com/core-orm/coreql/adaptor/sqlcommon"
	"github.com/core-orm/coreql/corerr"
	"github.com/core-orm/coreql/model"
)

// reflectSchema implements sqlcommon.Reflector for DuckDB, which
// exposes PostgreSQL-compatible information_schema views for
// introspection. Primary keys come from
// information_schema.table_constraints/key_column_usage exactly as in
// the postgres adaptor; DuckDB has no auto-increment columns of its
// own (sequences/IDENTITY are opt-in DDL the reflected schema doesn't
// need to distinguish), so AutoIncrement is always false here.
func reflectSchema(ctx context.Context, q sqlcommon.Queryer) (*model.Model, error) {
	pkCols, err := primaryKeyColumns(ctx, q)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT table_name, column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = 'main'
		ORDER BY table_name, ordinal_position
	`)
	if err != nil {
		return nil, corerr.Driver(err, "duckdb: reading information_schema.columns")
	}
	defer rows.Close()

	schema := map[string][]sqlcommon.ColumnInfo{}
	for rows.Next() {
		var table, column, dataType, isNullable string
		if err := rows.Scan(&table, &column, &dataType, &isNullable); err != nil {
			return nil, corerr.Driver(err, "duckdb: scanning information_schema.columns row")
		}
		schema[table] = append(schema[table], sqlcommon.ColumnInfo{
			Name:       column,
			Type:       valueTypeFromDataType(dataType),
			Nullable:   isNullable == "YES",
			PrimaryKey: pkCols[table][column],
		})
	}
	if err := rows.Err(); err != nil {
		return nil, corerr.Driver(err, "duckdb: reading information_schema.columns")
	}

	return sqlcommon.BuildReflectedModel(schema)
}

func primaryKeyColumns(ctx context.Context, q sqlcommon.Queryer) (map[string]map[string]bool, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT tc.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = 'main'
	`)
	if err != nil {
		return nil, corerr.Driver(err, "duckdb: reading primary key constraints")
	}
	defer rows.Close()

	result := map[string]map[string]bool{}
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, corerr.Driver(err, "duckdb: scanning primary key constraint row")
		}
		if result[table] == nil {
			result[table] = map[string]bool{}
		}
		result[table][column] = true
	}
	return result, rows.Err()
}

// valueTypeFromDataType maps information_schema.columns.data_type
// (DuckDB's own type names) to model.ValueType, grounded on the
// teacher pack's duckdb_type_mapper.go (the reverse direction).
func valueTypeFromDataType(dataType string) model.ValueType {
	switch strings.ToUpper(dataType) {
	case "SMALLINT", "INTEGER":
		return model.TypeInt
	case "BIGINT", "HUGEINT":
		return model.TypeInt64
	case "REAL", "FLOAT", "DOUBLE":
		return model.TypeFloat
	case "DECIMAL", "NUMERIC":
		return model.TypeDecimal
	case "BOOLEAN":
		return model.TypeBool
	case "DATE", "TIMESTAMP", "TIMESTAMP WITH TIME ZONE", "TIME":
		return model.TypeDateTime
	case "BLOB":
		return model.TypeBytes
	case "JSON":
		return model.TypeJSON
	default:
		return model.TypeString
	}
}
