// Package sqlcommon implements the database/sql-backed half of
// adaptor.Channel shared by every concrete SQL adaptor (sqlite,
// postgres, mysql, duckdb) — spec.md §6 "AdaptorChannel: a single live
// connection". Grounded on the teacher's internal/drivers/sqlite
// driver.go (Exec/Query/scanRows plumbing), generalized across
// database/sql so each dialect package only has to supply Capabilities,
// an ExpressionFactory, and schema reflection.
package sqlcommon

import (
	"context"
	"database/sql"
	"time"

	"github.com/core-orm/coreql/adaptor"
	"github.com/core-orm/coreql/corerr"
	"github.com/core-orm/coreql/model"
	"github.com/core-orm/coreql/utils"
)

// Queryer is the subset of *sql.DB / *sql.Conn / *sql.Tx this package
// needs; satisfied by all three so a Reflector can run against a bare
// *sql.DB while statement execution runs against a Channel's own
// *sql.Conn.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Reflector inspects a live connection's schema and returns a concrete
// model — the dialect-specific half of ReflectModel (spec.md §4.2
// "Pattern models"). Each adaptor package supplies its own, querying
// whatever system catalog its dialect exposes.
type Reflector func(ctx context.Context, q Queryer) (*model.Model, error)

// Channel wraps a single *sql.Conn — spec.md §6: "never shared
// concurrently" maps directly onto a database/sql connection checked
// out of its pool for the Channel's lifetime.
type Channel struct {
	conn *sql.Conn
	tx   *sql.Tx

	model             *model.Model
	supportsReturning bool
	reflect           Reflector
	logger            utils.Logger
}

// NewChannel wraps conn. supportsReturning mirrors the owning
// adaptor's Capabilities.SupportsReturning(): when true, inserts are
// dispatched via QueryContext to read back a RETURNING row instead of
// Exec+LastInsertId. Every statement run through the Channel is timed
// and handed to utils.GetGlobalLogger() at debug level, following the
// teacher's utils.Logger.LogSQL convention — a no-op until the caller
// installs a logger with utils.SetGlobalLogger.
func NewChannel(conn *sql.Conn, m *model.Model, supportsReturning bool, reflect Reflector) *Channel {
	return &Channel{conn: conn, model: m, supportsReturning: supportsReturning, reflect: reflect, logger: utils.GetGlobalLogger()}
}

func (c *Channel) execer() Queryer {
	if c.tx != nil {
		return c.tx
	}
	return c.conn
}

func (c *Channel) logSQL(statement string, args []any, start time.Time) {
	c.logger.LogSQL(statement, args, time.Since(start))
}

func (c *Channel) Begin(ctx context.Context) error {
	if c.tx != nil {
		return corerr.Lifecycle(nil, "sqlcommon: transaction already in progress")
	}
	start := time.Now()
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return corerr.Driver(err, "sqlcommon: beginning transaction")
	}
	c.tx = tx
	c.logger.LogCommand("begin", time.Since(start))
	return nil
}

func (c *Channel) Commit() error {
	if c.tx == nil {
		return corerr.Lifecycle(nil, "sqlcommon: no transaction in progress")
	}
	start := time.Now()
	err := c.tx.Commit()
	c.tx = nil
	if err != nil {
		return corerr.Driver(err, "sqlcommon: committing transaction")
	}
	c.logger.LogCommand("commit", time.Since(start))
	return nil
}

func (c *Channel) Rollback() error {
	if c.tx == nil {
		return nil
	}
	start := time.Now()
	err := c.tx.Rollback()
	c.tx = nil
	if err != nil {
		return corerr.Driver(err, "sqlcommon: rolling back transaction")
	}
	c.logger.LogCommand("rollback", time.Since(start))
	return nil
}

func (c *Channel) IsTransactionInProgress() bool { return c.tx != nil }

// EvaluateQueryExpression runs expr and streams each row to yield,
// scanning positionally into expr.Attrs (sqlexpr always emits one
// column per attribute, in order — spec.md §4.3 step 3).
func (c *Channel) EvaluateQueryExpression(ctx context.Context, expr adaptor.Expression, yield adaptor.RowYield) error {
	start := time.Now()
	rows, err := c.execer().QueryContext(ctx, expr.Statement, expr.Args...)
	c.logSQL(expr.Statement, expr.Args, start)
	if err != nil {
		return corerr.Driver(err, "sqlcommon: executing query")
	}
	defer rows.Close()

	for rows.Next() {
		values := make([]any, len(expr.Attrs))
		ptrs := make([]any, len(expr.Attrs))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return corerr.Driver(err, "sqlcommon: scanning row")
		}
		if err := yield(adaptor.Row{Attrs: expr.Attrs, Values: values}); err != nil {
			return err
		}
	}
	return rows.Err()
}

// PerformAdaptorOperation dispatches op.Expression and populates
// op.ResultRow with any driver-assigned primary-key values for inserts
// (spec.md §6 "for inserts with auto-increment, the generated PK
// values bound back into resultRow").
func (c *Channel) PerformAdaptorOperation(ctx context.Context, op *adaptor.Operation) (int64, error) {
	if op.Operator == adaptor.OpInsert {
		return c.performInsert(ctx, op)
	}
	start := time.Now()
	res, err := c.execer().ExecContext(ctx, op.Expression.Statement, op.Expression.Args...)
	c.logSQL(op.Expression.Statement, op.Expression.Args, start)
	if err != nil {
		return 0, corerr.Driver(err, "sqlcommon: performing operation on entity %q", op.EntityName)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, corerr.Driver(err, "sqlcommon: reading rows affected for entity %q", op.EntityName)
	}
	return affected, nil
}

// performInsert handles the two ways a driver can hand back a
// generated primary key: a RETURNING row (postgres, duckdb, sqlite) or
// sql.Result.LastInsertId (mysql) — spec.md §9 Open Question #3.
func (c *Channel) performInsert(ctx context.Context, op *adaptor.Operation) (int64, error) {
	if c.supportsReturning {
		entity := c.entityFor(op.EntityName)
		if entity == nil || len(entity.PrimaryKeyNames) == 0 {
			start := time.Now()
			res, err := c.execer().ExecContext(ctx, op.Expression.Statement, op.Expression.Args...)
			c.logSQL(op.Expression.Statement, op.Expression.Args, start)
			if err != nil {
				return 0, corerr.Driver(err, "sqlcommon: inserting into entity %q", op.EntityName)
			}
			return res.RowsAffected()
		}

		start := time.Now()
		rows, err := c.execer().QueryContext(ctx, op.Expression.Statement, op.Expression.Args...)
		c.logSQL(op.Expression.Statement, op.Expression.Args, start)
		if err != nil {
			return 0, corerr.Driver(err, "sqlcommon: inserting into entity %q", op.EntityName)
		}
		defer rows.Close()

		// RETURNING lists PrimaryKeyNames in the same order
		// InsertStatementForRow built them in, so scanning is purely
		// positional — no column-name matching needed.
		values := make([]any, len(entity.PrimaryKeyNames))
		ptrs := make([]any, len(entity.PrimaryKeyNames))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if !rows.Next() {
			return 0, corerr.Driver(rows.Err(), "sqlcommon: insert into entity %q returned no RETURNING row", op.EntityName)
		}
		if err := rows.Scan(ptrs...); err != nil {
			return 0, corerr.Driver(err, "sqlcommon: scanning RETURNING row for entity %q", op.EntityName)
		}
		result := make(map[string]any, len(entity.PrimaryKeyNames))
		for i, pk := range entity.PrimaryKeyNames {
			result[pk] = values[i]
		}
		op.ResultRow = result
		return 1, rows.Err()
	}

	start := time.Now()
	res, err := c.execer().ExecContext(ctx, op.Expression.Statement, op.Expression.Args...)
	c.logSQL(op.Expression.Statement, op.Expression.Args, start)
	if err != nil {
		return 0, corerr.Driver(err, "sqlcommon: inserting into entity %q", op.EntityName)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, corerr.Driver(err, "sqlcommon: reading rows affected for entity %q", op.EntityName)
	}
	if entity := c.entityFor(op.EntityName); entity != nil && len(entity.PrimaryKeyNames) == 1 {
		if id, idErr := res.LastInsertId(); idErr == nil {
			op.ResultRow = map[string]any{entity.PrimaryKeyNames[0]: id}
		}
	}
	return affected, nil
}

func (c *Channel) entityFor(name string) *model.Entity {
	if c.model == nil {
		return nil
	}
	return c.model.Entity(name)
}

// QuerySQL is the raw escape hatch — spec.md §6. Column names become
// attribute names verbatim since no entity projection applies.
func (c *Channel) QuerySQL(ctx context.Context, sqlText string, args []any, yield adaptor.RowYield) error {
	start := time.Now()
	rows, err := c.execer().QueryContext(ctx, sqlText, args...)
	c.logSQL(sqlText, args, start)
	if err != nil {
		return corerr.Driver(err, "sqlcommon: executing raw query")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return corerr.Driver(err, "sqlcommon: reading raw query columns")
	}
	attrs := make([]model.Attribute, len(cols))
	for i, name := range cols {
		attrs[i] = model.Attribute{Name: name}
	}

	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return corerr.Driver(err, "sqlcommon: scanning raw row")
		}
		if err := yield(adaptor.Row{Attrs: attrs, Values: values}); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (c *Channel) PerformSQL(ctx context.Context, sqlText string, args []any) (int64, error) {
	start := time.Now()
	res, err := c.execer().ExecContext(ctx, sqlText, args...)
	c.logSQL(sqlText, args, start)
	if err != nil {
		return 0, corerr.Driver(err, "sqlcommon: performing raw statement")
	}
	return res.RowsAffected()
}

func (c *Channel) ReflectModel(ctx context.Context) (*model.Model, error) {
	if c.reflect == nil {
		return nil, corerr.Configuration(nil, "sqlcommon: no schema reflector configured")
	}
	return c.reflect(ctx, c.conn)
}

func (c *Channel) Close() error {
	if c.tx != nil {
		_ = c.tx.Rollback()
		c.tx = nil
	}
	return c.conn.Close()
}

var _ adaptor.Channel = (*Channel)(nil)
