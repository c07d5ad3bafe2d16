// Package sqlite implements the SQLite adaptor.Adaptor — spec.md §6
// "Adaptor contract" — over mattn/go-sqlite3, generalizing the
// teacher's drivers/sqlite.SQLiteCapabilities /
// internal/drivers/sqlite driver.go onto CoreQL's leaner interfaces.
package sqlite

import (
	"strings"

	"github.com/core-orm/coreql/adaptor"
)

// Capabilities implements adaptor.Capabilities for SQLite, grounded on
// the teacher's drivers/sqlite/capabilities.go.
type Capabilities struct{}

func (Capabilities) DriverName() string        { return "sqlite" }
func (Capabilities) SupportedSchemes() []string { return []string{"sqlite", "sqlite3"} }

func (Capabilities) SupportsReturning() bool      { return true }
func (Capabilities) SupportsDefaultValues() bool  { return true }
func (Capabilities) RequiresLimitForOffset() bool { return true }
func (Capabilities) SupportsDistinctOn() bool     { return false }

func (Capabilities) QuoteIdentifier(name string) string { return `"` + name + `"` }
func (Capabilities) Placeholder(int) string             { return "?" }

func (Capabilities) BooleanLiteral(value bool) string {
	if value {
		return "1"
	}
	return "0"
}

func (Capabilities) NullsOrdering(direction adaptor.Order, nullsFirst bool) string {
	if nullsFirst {
		return " NULLS FIRST"
	}
	return " NULLS LAST"
}

func (Capabilities) LockClause() string { return "" }

func (Capabilities) IsSystemIndex(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, "sqlite_autoindex_") || strings.HasPrefix(lower, "sqlite_")
}

func (Capabilities) IsSystemTable(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), "sqlite_")
}

var _ adaptor.Capabilities = Capabilities{}
