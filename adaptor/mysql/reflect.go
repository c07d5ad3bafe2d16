package mysql

import (
	"context"
	"strings"

	"github.com/core-orm/coreql/adaptor/sqlcommon"
	"github.com/core-orm/coreql/corerr"
	"github.com/core-orm/coreql/model"
)

// reflectSchema implements sqlcommon.Reflector for MySQL via
// information_schema, grounded on the teacher's
// drivers/mysql/migrator.go table-introspection queries. DATABASE()
// scopes the query to the connection's current schema, matching
// mysql.Config.DBName set in dataSourceName.
func reflectSchema(ctx context.Context, q sqlcommon.Queryer) (*model.Model, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT table_name, column_name, data_type, is_nullable, column_key, extra
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		ORDER BY table_name, ordinal_position
	`)
	if err != nil {
		return nil, corerr.Driver(err, "mysql: reading information_schema.columns")
	}
	defer rows.Close()

	schema := map[string][]sqlcommon.ColumnInfo{}
	for rows.Next() {
		var table, column, dataType, isNullable, columnKey, extra string
		if err := rows.Scan(&table, &column, &dataType, &isNullable, &columnKey, &extra); err != nil {
			return nil, corerr.Driver(err, "mysql: scanning information_schema.columns row")
		}
		schema[table] = append(schema[table], sqlcommon.ColumnInfo{
			Name:          column,
			Type:          valueTypeFromDataType(dataType),
			Nullable:      isNullable == "YES",
			PrimaryKey:    columnKey == "PRI",
			AutoIncrement: strings.Contains(extra, "auto_increment"),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, corerr.Driver(err, "mysql: reading information_schema.columns")
	}

	return sqlcommon.BuildReflectedModel(schema)
}

// valueTypeFromDataType maps information_schema.columns.data_type
// (MySQL's own type names) to model.ValueType.
func valueTypeFromDataType(dataType string) model.ValueType {
	switch strings.ToLower(dataType) {
	case "tinyint", "smallint", "mediumint", "int", "integer":
		return model.TypeInt
	case "bigint":
		return model.TypeInt64
	case "float", "double":
		return model.TypeFloat
	case "decimal", "numeric":
		return model.TypeDecimal
	case "bool", "boolean":
		return model.TypeBool
	case "date", "datetime", "timestamp", "time":
		return model.TypeDateTime
	case "blob", "tinyblob", "mediumblob", "longblob", "binary", "varbinary":
		return model.TypeBytes
	case "json":
		return model.TypeJSON
	default:
		return model.TypeString
	}
}
