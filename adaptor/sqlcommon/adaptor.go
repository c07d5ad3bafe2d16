package sqlcommon

import (
	"context"
	"database/sql"
	"time"

	"github.com/core-orm/coreql/adaptor"
	"github.com/core-orm/coreql/corerr"
	"github.com/core-orm/coreql/model"
	"github.com/core-orm/coreql/pool"
)

// DefaultPoolMaxAge bounds how long a released Channel sits idle in a
// SQLAdaptor's own ChannelPool before it is closed, independent of
// database/sql's own connection pool (spec.md §4.4).
const DefaultPoolMaxAge = 5 * time.Minute

// SQLAdaptor is a generic adaptor.Adaptor over database/sql, shared by
// every concrete dialect package. It owns the *sql.DB connection pool
// and a pool.ChannelPool for CoreQL's own single-channel reuse;
// everything dialect-specific (Capabilities, ExpressionFactory,
// Reflector, driver name, DSN) is supplied by the caller.
type SQLAdaptor struct {
	db      *sql.DB
	caps    adaptor.Capabilities
	factory adaptor.ExpressionFactory
	reflect Reflector
	pool    *pool.ChannelPool
	model   *model.Model
}

// Open calls sql.Open(driverName, dsn) and wraps the result.
func Open(driverName, dsn string, caps adaptor.Capabilities, factory adaptor.ExpressionFactory, reflect Reflector) (*SQLAdaptor, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, corerr.Driver(err, "sqlcommon: opening %s connection", driverName)
	}
	return New(db, caps, factory, reflect), nil
}

// New wraps an already-open *sql.DB.
func New(db *sql.DB, caps adaptor.Capabilities, factory adaptor.ExpressionFactory, reflect Reflector) *SQLAdaptor {
	return &SQLAdaptor{db: db, caps: caps, factory: factory, reflect: reflect, pool: pool.New(DefaultPoolMaxAge)}
}

// DB exposes the underlying *sql.DB, e.g. for migrations or direct
// schema setup outside the Channel path.
func (a *SQLAdaptor) DB() *sql.DB { return a.db }

func (a *SQLAdaptor) Capabilities() adaptor.Capabilities           { return a.caps }
func (a *SQLAdaptor) ExpressionFactory() adaptor.ExpressionFactory { return a.factory }

func (a *SQLAdaptor) OpenChannel(ctx context.Context) (adaptor.Channel, error) {
	conn, err := a.db.Conn(ctx)
	if err != nil {
		return nil, corerr.Driver(err, "sqlcommon: acquiring connection")
	}
	return NewChannel(conn, a.model, a.caps.SupportsReturning(), a.reflect), nil
}

// OpenChannelFromPool returns the one pooled channel if CoreQL's own
// ChannelPool is holding one, else opens a fresh connection.
func (a *SQLAdaptor) OpenChannelFromPool(ctx context.Context) (adaptor.Channel, error) {
	if ch := a.pool.Grab(); ch != nil {
		return ch, nil
	}
	return a.OpenChannel(ctx)
}

func (a *SQLAdaptor) ReleaseChannel(ch adaptor.Channel) error {
	return a.pool.Add(ch)
}

func (a *SQLAdaptor) Model() *model.Model   { return a.model }
func (a *SQLAdaptor) BindModel(m *model.Model) { a.model = m }

func (a *SQLAdaptor) Close() error {
	if err := a.pool.Close(); err != nil {
		return err
	}
	return a.db.Close()
}

var _ adaptor.Adaptor = (*SQLAdaptor)(nil)
