package sqlite

import (
	"context"
	"strings"

	"github.com/core-orm/coreql/adaptor/sqlcommon"
	"github.com/core-orm/coreql/corerr"
	"github.com/core-orm/coreql/model"
)

// reflectSchema implements sqlcommon.Reflector for SQLite: sqlite_master
// lists tables, PRAGMA table_info(name) lists each one's columns —
// grounded on the teacher's internal/drivers/sqlite mapping.go (the
// reverse direction: declared SQL type name back to model.ValueType).
func reflectSchema(ctx context.Context, q sqlcommon.Queryer) (*model.Model, error) {
	tableRows, err := q.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, corerr.Driver(err, "sqlite: listing tables")
	}
	var tables []string
	for tableRows.Next() {
		var name string
		if err := tableRows.Scan(&name); err != nil {
			tableRows.Close()
			return nil, corerr.Driver(err, "sqlite: scanning table name")
		}
		if Capabilities{}.IsSystemTable(name) {
			continue
		}
		tables = append(tables, name)
	}
	if err := tableRows.Err(); err != nil {
		tableRows.Close()
		return nil, corerr.Driver(err, "sqlite: listing tables")
	}
	tableRows.Close()

	schema := make(map[string][]sqlcommon.ColumnInfo, len(tables))
	for _, table := range tables {
		cols, err := reflectColumns(ctx, q, table)
		if err != nil {
			return nil, err
		}
		schema[table] = cols
	}
	return sqlcommon.BuildReflectedModel(schema)
}

func reflectColumns(ctx context.Context, q sqlcommon.Queryer, table string) ([]sqlcommon.ColumnInfo, error) {
	rows, err := q.QueryContext(ctx, `PRAGMA table_info(`+Capabilities{}.QuoteIdentifier(table)+`)`)
	if err != nil {
		return nil, corerr.Driver(err, "sqlite: reading table_info for %q", table)
	}
	defer rows.Close()

	var cols []sqlcommon.ColumnInfo
	for rows.Next() {
		var (
			cid       int
			name      string
			declType  string
			notNull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dfltValue, &pk); err != nil {
			return nil, corerr.Driver(err, "sqlite: scanning table_info row for %q", table)
		}
		cols = append(cols, sqlcommon.ColumnInfo{
			Name:          name,
			Type:          valueTypeFromDeclared(declType),
			Nullable:      notNull == 0 && pk == 0,
			PrimaryKey:    pk > 0,
			AutoIncrement: pk > 0 && strings.EqualFold(declType, "INTEGER"),
		})
	}
	return cols, rows.Err()
}

// valueTypeFromDeclared applies SQLite's own type-affinity rules
// (https://www.sqlite.org/datatype3.html §3.1) to a declared column
// type name.
func valueTypeFromDeclared(declType string) model.ValueType {
	upper := strings.ToUpper(declType)
	switch {
	case strings.Contains(upper, "INT"):
		return model.TypeInt64
	case strings.Contains(upper, "CHAR"), strings.Contains(upper, "CLOB"), strings.Contains(upper, "TEXT"):
		return model.TypeString
	case strings.Contains(upper, "BLOB"), upper == "":
		return model.TypeBytes
	case strings.Contains(upper, "REAL"), strings.Contains(upper, "FLOA"), strings.Contains(upper, "DOUB"):
		return model.TypeFloat
	case strings.Contains(upper, "BOOL"):
		return model.TypeBool
	case strings.Contains(upper, "DATE"), strings.Contains(upper, "TIME"):
		return model.TypeDateTime
	case strings.Contains(upper, "DECIMAL"), strings.Contains(upper, "NUMERIC"):
		return model.TypeDecimal
	default:
		return model.TypeString
	}
}
