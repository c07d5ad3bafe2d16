package adaptor

import (
	"github.com/core-orm/coreql/fetch"
	"github.com/core-orm/coreql/model"
	"github.com/core-orm/coreql/qualifier"
)

// ExpressionFactory is the dialect-parameterized SQL builder contract
// — spec.md §4.3 "The builder is dialect-parameterized via
// polymorphism (the factory returns a dialect-specific builder)".
//
// Declared here (not in package sqlexpr, which implements it) so that
// Adaptor can expose ExpressionFactory() without sqlexpr importing
// adaptor and adaptor importing sqlexpr back — only a one-way
// dependency (sqlexpr -> adaptor) is needed.
type ExpressionFactory interface {
	// SelectExpressionForAttributes builds a full SELECT over attrs
	// against entity, honoring fs's qualifier/order/limit/offset/
	// distinct/prefetch-irrelevant fields and lock.
	SelectExpressionForAttributes(attrs []model.Attribute, lock bool, fs *fetch.Specification, entity *model.Entity) (Expression, error)

	// InsertStatementForRow builds an INSERT for row (attribute name
	// -> value) against entity, using RETURNING when the dialect
	// supports it.
	InsertStatementForRow(row map[string]any, entity *model.Entity) (Expression, error)

	// UpdateStatementForRow builds an UPDATE for row against entity,
	// restricted by q.
	UpdateStatementForRow(row map[string]any, q qualifier.Qualifier, entity *model.Entity) (Expression, error)

	// DeleteStatementWithQualifier builds a DELETE against entity,
	// restricted by q.
	DeleteStatementWithQualifier(q qualifier.Qualifier, entity *model.Entity) (Expression, error)

	// ExpressionForString wraps verbatim SQL in an Expression shell,
	// recording attrs for result decoding — spec.md §4.3 "Custom-SQL
	// hint".
	ExpressionForString(sql string, args []any, attrs []model.Attribute) Expression

	// CreateTableStatements and DropTableStatements emit DDL for the
	// entity groups in m, topologically ordered per spec.md §4.3
	// "DDL" (fewer outgoing FK references first, stable by name on
	// tie, self-references uncounted).
	CreateTableStatements(m *model.Model) ([]Expression, error)
	DropTableStatements(m *model.Model) ([]Expression, error)
}
