package sqlexpr

import (
	"github.com/core-orm/coreql/adaptor"
)

// testCapabilities is a minimal sqlite-flavored adaptor.Capabilities
// used only by this package's tests, so SQL assembly can be verified
// without depending on any concrete adaptor/* package.
type testCapabilities struct{}

func (testCapabilities) DriverName() string           { return "test" }
func (testCapabilities) SupportedSchemes() []string    { return []string{"test"} }
func (testCapabilities) SupportsReturning() bool       { return false }
func (testCapabilities) SupportsDefaultValues() bool   { return true }
func (testCapabilities) RequiresLimitForOffset() bool  { return true }
func (testCapabilities) SupportsDistinctOn() bool      { return false }
func (testCapabilities) QuoteIdentifier(name string) string { return `"` + name + `"` }
func (testCapabilities) Placeholder(index int) string  { return "?" }
func (testCapabilities) BooleanLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
func (testCapabilities) NullsOrdering(direction adaptor.Order, nullsFirst bool) string { return "" }
func (testCapabilities) LockClause() string                                           { return "FOR UPDATE" }
func (testCapabilities) IsSystemIndex(name string) bool                               { return false }
func (testCapabilities) IsSystemTable(name string) bool                               { return false }

var _ adaptor.Capabilities = testCapabilities{}
