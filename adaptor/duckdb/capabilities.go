// Package duckdb implements the DuckDB adaptor.Adaptor over
// duckdb/duckdb-go/v2, generalizing the teacher's dialect-capability
// shape (drivers/sqlite, drivers/postgresql) onto an embedded
// analytical engine, with SQL-generation conventions grounded on
// duckdb_sql_generator.go and duckdb_type_mapper.go.
package duckdb

import (
	"fmt"
	"strings"

	"github.com/core-orm/coreql/adaptor"
)

// Capabilities implements adaptor.Capabilities for DuckDB. DuckDB's
// SQL dialect is close to PostgreSQL's: it supports RETURNING,
// DEFAULT VALUES, and DISTINCT ON, and needs no LIMIT to use OFFSET.
type Capabilities struct{}

func (Capabilities) DriverName() string         { return "duckdb" }
func (Capabilities) SupportedSchemes() []string { return []string{"duckdb"} }

func (Capabilities) SupportsReturning() bool      { return true }
func (Capabilities) SupportsDefaultValues() bool  { return true }
func (Capabilities) RequiresLimitForOffset() bool { return false }
func (Capabilities) SupportsDistinctOn() bool     { return true }

func (Capabilities) QuoteIdentifier(name string) string { return `"` + name + `"` }
func (Capabilities) Placeholder(index int) string       { return fmt.Sprintf("$%d", index) }

func (Capabilities) BooleanLiteral(value bool) string {
	if value {
		return "TRUE"
	}
	return "FALSE"
}

func (Capabilities) NullsOrdering(direction adaptor.Order, nullsFirst bool) string {
	if nullsFirst {
		return " NULLS FIRST"
	}
	return " NULLS LAST"
}

func (Capabilities) LockClause() string { return "" }

func (Capabilities) IsSystemIndex(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), "duckdb_")
}

func (Capabilities) IsSystemTable(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, "duckdb_") || strings.HasPrefix(lower, "information_schema") ||
		strings.HasPrefix(lower, "pg_catalog") || strings.HasPrefix(lower, "sqlite_")
}

var _ adaptor.Capabilities = Capabilities{}
