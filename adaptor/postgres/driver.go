package postgres

import (
	"github.com/core-orm/coreql/adaptor"
	"github.com/core-orm/coreql/adaptor/sqlcommon"
	"github.com/core-orm/coreql/sqlexpr"
	_ "github.com/lib/pq"
)

func init() {
	adaptor.Register("postgres", New, "postgres", "postgresql")
}

// New builds an adaptor.Adaptor over lib/pq from cfg. lib/pq's
// sql.Open accepts a postgres:// URL verbatim, so cfg.DSN (the
// original connection URI) is passed straight through.
func New(cfg adaptor.Config) (adaptor.Adaptor, error) {
	return sqlcommon.Open("postgres", cfg.DSN, Capabilities{}, sqlexpr.New(Capabilities{}), reflectSchema)
}
