package mysql

import (
	"net/url"
	"strings"

	"github.com/core-orm/coreql/adaptor"
	"github.com/core-orm/coreql/adaptor/sqlcommon"
	"github.com/core-orm/coreql/sqlexpr"
	mysqldriver "github.com/go-sql-driver/mysql"
)

func init() {
	adaptor.Register("mysql", New, "mysql", "mysql2")
}

// New builds an adaptor.Adaptor over go-sql-driver/mysql from cfg.
// Unlike lib/pq, go-sql-driver/mysql does not accept a bare mysql://
// URL as its DSN — it wants user:pass@tcp(host:port)/db?params — so
// cfg.DSN is parsed and re-encoded via mysql.Config/FormatDSN,
// grounded on the teacher's drivers/mysql/uri_parser.go.
func New(cfg adaptor.Config) (adaptor.Adaptor, error) {
	dsn, err := dataSourceName(cfg)
	if err != nil {
		return nil, err
	}
	return sqlcommon.Open("mysql", dsn, Capabilities{}, sqlexpr.New(Capabilities{}), reflectSchema)
}

func dataSourceName(cfg adaptor.Config) (string, error) {
	parsed, err := url.Parse(cfg.DSN)
	if err != nil {
		return "", err
	}

	mc := mysqldriver.NewConfig()
	mc.Net = "tcp"
	mc.Addr = parsed.Host
	if parsed.Port() == "" {
		mc.Addr += ":3306"
	}
	mc.DBName = strings.TrimPrefix(parsed.Path, "/")
	mc.ParseTime = true
	if parsed.User != nil {
		mc.User = parsed.User.Username()
		mc.Passwd, _ = parsed.User.Password()
	}

	mc.Params = map[string]string{"charset": "utf8mb4"}
	for key, values := range parsed.Query() {
		if len(values) > 0 {
			mc.Params[key] = values[0]
		}
	}

	return mc.FormatDSN(), nil
}
