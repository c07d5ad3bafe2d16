package sqlite

import (
	"net/url"
	"strings"

	"github.com/core-orm/coreql/adaptor"
	"github.com/core-orm/coreql/adaptor/sqlcommon"
	"github.com/core-orm/coreql/sqlexpr"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	adaptor.Register("sqlite", New, "sqlite", "sqlite3")
}

// New builds an adaptor.Adaptor over mattn/go-sqlite3 from cfg —
// grounded on the teacher's drivers/sqlite/uri_parser.go, simplified
// to the file-path and :memory: cases CoreQL needs.
func New(cfg adaptor.Config) (adaptor.Adaptor, error) {
	dsn, err := dataSourceName(cfg)
	if err != nil {
		return nil, err
	}
	return sqlcommon.Open("sqlite3", dsn, Capabilities{}, sqlexpr.New(Capabilities{}), reflectSchema)
}

// dataSourceName is checked against cfg.DSN verbatim before any URL
// parsing: ":memory:" appearing right after the scheme's "//" is
// ambiguous authority syntax for net/url (it looks like a bare port),
// so the common in-memory forms are recognized as literal strings
// first.
func dataSourceName(cfg adaptor.Config) (string, error) {
	switch {
	case strings.HasSuffix(cfg.DSN, "://:memory:"):
		return ":memory:", nil
	case strings.HasSuffix(cfg.DSN, "://file::memory:?cache=shared"):
		return "file::memory:?cache=shared", nil
	}

	parsed, err := url.Parse(cfg.DSN)
	if err != nil {
		return "", err
	}

	path := parsed.Path
	switch {
	case parsed.Host != "":
		path = parsed.Host + path
	case strings.HasPrefix(cfg.DSN, "sqlite:///") || strings.HasPrefix(cfg.DSN, "sqlite3:///"):
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
