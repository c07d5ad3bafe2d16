// Package postgres implements the PostgreSQL adaptor.Adaptor over
// lib/pq, generalizing the teacher's
// drivers/postgresql.PostgreSQLCapabilities onto CoreQL's interfaces.
package postgres

import (
	"fmt"
	"strings"

	"github.com/core-orm/coreql/adaptor"
)

// Capabilities implements adaptor.Capabilities for PostgreSQL,
// grounded on the teacher's drivers/postgresql/capabilities.go.
type Capabilities struct{}

func (Capabilities) DriverName() string         { return "postgres" }
func (Capabilities) SupportedSchemes() []string { return []string{"postgres", "postgresql"} }

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

func (Capabilities) LockClause() string { return "FOR UPDATE" }

func (Capabilities) IsSystemIndex(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, "_pkey") || strings.HasSuffix(lower, "_key") ||
		strings.HasSuffix(lower, "_fkey") || strings.HasPrefix(lower, "pg_")
}

func (Capabilities) IsSystemTable(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, "pg_") || strings.HasPrefix(lower, "information_schema")
}

var _ adaptor.Capabilities = Capabilities{}
