package duckdb

import (
	"net/url"
	"strings"

	"github.com/core-orm/coreql/adaptor"
	"github.com/core-orm/coreql/adaptor/sqlcommon"
	"github.com/core-orm/coreql/sqlexpr"
	_ "github.com/duckdb/duckdb-go/v2"
)

func init() {
	adaptor.Register("duckdb", New, "duckdb")
}

// New builds an adaptor.Adaptor over duckdb-go/v2 from cfg, grounded
// on the teacher pack's duckdb_conn.go NewDuckDBClient (sql.Open
// "duckdb" with a file path or ":memory:"), limited here to the
// single-connection usage CoreQL's sqlcommon.Channel already assumes.
func New(cfg adaptor.Config) (adaptor.Adaptor, error) {
	dsn, err := dataSourceName(cfg)
	if err != nil {
		return nil, err
	}
	return sqlcommon.Open("duckdb", dsn, Capabilities{}, sqlexpr.New(Capabilities{}), reflectSchema)
}

// dataSourceName mirrors the sqlite adaptor's handling of "duckdb://:memory:"
// and file paths, since duckdb-go/v2 accepts the same bare path/
// ":memory:" forms that mattn/go-sqlite3 does.
func dataSourceName(cfg adaptor.Config) (string, error) {
	if strings.HasSuffix(cfg.DSN, "://:memory:") || cfg.DSN == ":memory:" {
		return ":memory:", nil
	}

	parsed, err := url.Parse(cfg.DSN)
	if err != nil {
		return "", err
	}

	path := parsed.Path
	switch {
	case parsed.Host != "":
		path = parsed.Host + path
	case strings.HasPrefix(cfg.DSN, "duckdb:///"):
		// three slashes: absolute path, path already carries the
		// leading "/" from url.Parse
	case strings.HasPrefix(path, "/"):
		path = path[1:]
	}

	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}
	return path, nil
}
