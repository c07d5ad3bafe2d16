// Package mysql implements the MySQL adaptor.Adaptor over
// go-sql-driver/mysql, generalizing the teacher's
// drivers/mysql.MySQLCapabilities onto CoreQL's interfaces.
package mysql

import (
	"strings"

	"github.com/core-orm/coreql/adaptor"
)

// Capabilities implements adaptor.Capabilities for MySQL, grounded on
// the teacher's drivers/mysql/capabilities.go.
type Capabilities struct{}

func (Capabilities) DriverName() string         { return "mysql" }
func (Capabilities) SupportedSchemes() []string { return []string{"mysql", "mysql2"} }

func (Capabilities) SupportsReturning() bool      { return false }
func (Capabilities) SupportsDefaultValues() bool  { return false }
func (Capabilities) RequiresLimitForOffset() bool { return true }
func (Capabilities) SupportsDistinctOn() bool     { return false }

func (Capabilities) QuoteIdentifier(name string) string { return "`" + name + "`" }
func (Capabilities) Placeholder(int) string             { return "?" }

func (Capabilities) BooleanLiteral(value bool) string {
	if value {
		return "TRUE"
	}
	return "FALSE"
}

// NullsOrdering: MySQL has no NULLS FIRST/LAST syntax — it always
// sorts NULL first for ASC and last for DESC, so nothing needs
// appending here.
func (Capabilities) NullsOrdering(adaptor.Order, bool) string { return "" }

func (Capabilities) LockClause() string { return "FOR UPDATE" }

func (Capabilities) IsSystemIndex(name string) bool {
	lower := strings.ToLower(name)
	return lower == "primary" || strings.HasPrefix(lower, "fk_") || strings.HasPrefix(lower, "mysql_")
}

func (Capabilities) IsSystemTable(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, "mysql.") || strings.HasPrefix(lower, "information_schema") ||
		strings.HasPrefix(lower, "performance_schema") || strings.HasPrefix(lower, "sys") ||
		lower == "mysql"
}

var _ adaptor.Capabilities = Capabilities{}
