// Package adaptor declares the contract between CoreQL's core
// (package channel, database, sqlexpr) and a concrete database driver
// (package adaptor/sqlite, adaptor/postgres, adaptor/mysql,
// adaptor/duckdb) — spec.md §6 "Adaptor contract".
package adaptor

import (
	"context"

	"github.com/core-orm/coreql/model"
)

// Order is a SortOrdering direction, mirrored here so Capabilities can
// render dialect-specific NULLS FIRST/LAST clauses without importing
// package qualifier (which in turn must not import adaptor, since
// qualifier.Render's LeafRenderer is implemented downstream in
// sqlexpr, not here).
type Order int

const (
	Ascending Order = iota
	Descending
)

// Capabilities reports a dialect's SQL surface so sqlexpr can
// synthesize portable-as-possible statements — grounded on the
// teacher's types.DriverCapabilities (types/driver_types.go).
type Capabilities interface {
	DriverName() string
	SupportedSchemes() []string

	SupportsReturning() bool
	SupportsDefaultValues() bool
	RequiresLimitForOffset() bool
	SupportsDistinctOn() bool

	QuoteIdentifier(name string) string
	Placeholder(index int) string

	BooleanLiteral(value bool) string
	NullsOrdering(direction Order, nullsFirst bool) string

	// LockClause renders the row-level locking suffix for a SELECT,
	// e.g. "FOR UPDATE", or "" if the dialect has none.
	LockClause() string

	IsSystemIndex(name string) bool
	IsSystemTable(name string) bool
}

// Row is a positionally- and name-addressed fetched record — spec.md
// §6 "Row format".
type Row struct {
	Attrs  []model.Attribute
	Values []any
}

// Get returns the value for the named attribute, or (nil, false) if
// attrName was not part of this row's projection.
func (r Row) Get(attrName string) (any, bool) {
	for i, a := range r.Attrs {
		if a.Name == attrName {
			return r.Values[i], true
		}
	}
	return nil, false
}

// AsMap projects Row into a name-keyed map, the shape
// Entity.GlobalIDForRow and model.Snapshot consume.
func (r Row) AsMap() map[string]any {
	m := make(map[string]any, len(r.Attrs))
	for i, a := range r.Attrs {
		m[a.Name] = r.Values[i]
	}
	return m
}

// Expression is the dialect-neutral output of the SQL expression
// builder: a statement plus its positionally-ordered bound values.
// Package sqlexpr constructs these; adaptor only needs the shape to
// execute them.
type Expression struct {
	Statement string
	Args      []any
	// Attrs lists the attributes the statement's result set (if any)
	// projects, in column order — carried alongside even a
	// custom-SQL hint so row materialization can still decode results
	// (spec.md §4.3 "Custom-SQL hint").
	Attrs []model.Attribute
}

// Operator is a write operation kind, ordered for safe batch
// sequencing (spec.md §4.6): none < lock < insert < update < delete.
type Operator int

const (
	OpNone Operator = iota
	OpLock
	OpInsert
	OpUpdate
	OpDelete
)

// Operation is one AdaptorOperation: a single statement dispatched to
// an AdaptorChannel, plus enough context to bind generated
// primary-key values back into the caller's row after execution.
type Operation struct {
	EntityName string
	Operator   Operator
	Expression Expression

	// ResultRow receives driver-assigned values (e.g. an
	// auto-increment primary key) after PerformAdaptorOperation returns,
	// keyed by attribute name — spec.md §6: "for inserts with
	// auto-increment, the generated PK values bound back into
	// resultRow".
	ResultRow map[string]any
}

// Less orders operations per spec.md §4.6: by entity name, then by
// operator ordinal.
func Less(a, b Operation) bool {
	if a.EntityName != b.EntityName {
		return a.EntityName < b.EntityName
	}
	return a.Operator < b.Operator
}

// Adaptor is a database driver factory: it knows how to open channels
// (directly, or recycled through a pool) and exposes the dialect's
// expression factory and capabilities — spec.md §6 "Adaptor contract
// (consumed by core)".
type Adaptor interface {
	// Capabilities reports this adaptor's dialect surface.
	Capabilities() Capabilities

	// ExpressionFactory returns this adaptor's dialect-specific SQL
	// builder.
	ExpressionFactory() ExpressionFactory

	// OpenChannel opens a brand-new connection.
	OpenChannel(ctx context.Context) (Channel, error)

	// OpenChannelFromPool returns a pooled channel if one is
	// available, else opens a new one.
	OpenChannelFromPool(ctx context.Context) (Channel, error)

	// ReleaseChannel returns ch to the pool (or closes it if the pool
	// already holds a channel, or ch has an open transaction that
	// cannot be safely pooled).
	ReleaseChannel(ch Channel) error

	// Model is the adaptor's bound model, or nil if none has been
	// bound yet (spec.md §6: "optional model (may be nil)").
	Model() *model.Model
	BindModel(m *model.Model)

	Close() error
}

// RowYield is called once per fetched row during a streaming
// evaluation; returning an error aborts the scan.
type RowYield func(Row) error

// Channel is a single live connection — spec.md §6 "AdaptorChannel".
// It owns its own transaction state and is never shared concurrently
// (spec.md §5 "Scheduling model": exclusively owned by the code
// currently using it).
type Channel interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error
	IsTransactionInProgress() bool

	// EvaluateQueryExpression executes expr and streams each row to
	// yield.
	EvaluateQueryExpression(ctx context.Context, expr Expression, yield RowYield) error

	// PerformAdaptorOperation executes op and returns the number of
	// rows it affected, populating op.ResultRow with any
	// driver-assigned values.
	PerformAdaptorOperation(ctx context.Context, op *Operation) (affected int64, err error)

	// QuerySQL and PerformSQL are the raw escape hatches spec.md §6
	// requires alongside the structured Expression path.
	QuerySQL(ctx context.Context, sql string, args []any, yield RowYield) error
	PerformSQL(ctx context.Context, sql string, args []any) (affected int64, err error)

	// ReflectModel inspects the live schema and returns a concrete
	// model a pattern model can merge against — spec.md §4.2
	// "Pattern models".
	ReflectModel(ctx context.Context) (*model.Model, error)

	Close() error
}
