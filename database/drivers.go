package database

// Importing this package registers every built-in adaptor through
// their init() functions, so database.Open(uri) resolves a scheme
// without the caller importing dialect packages directly.
import (
	_ "github.com/core-orm/coreql/adaptor/duckdb"
	_ "github.com/core-orm/coreql/adaptor/mysql"
	_ "github.com/core-orm/coreql/adaptor/postgres"
	_ "github.com/core-orm/coreql/adaptor/sqlite"
)
