// Package database implements Database and DataSource (spec.md §4.6):
// the top-level handle an application opens against a connection URI,
// and the per-entity repository view it hands out for fetches and
// writes.
//
// Grounded on the teacher's types.Database / types.ModelQuery
// (types/database.go) for the operation surface (FindMany/FindFirst/
// Count/Exec/ExecAndReturn), renamed to this package's Go-idiomatic
// verbs (FetchObjects/FindByID/FindByQualifier/Save/Delete) since
// FetchSpecification — not a chained query builder — is the single
// value DataSource, DatabaseChannel, and sqlexpr all pass around
// (spec.md §3).
package database

import (
	"github.com/core-orm/coreql/adaptor"
	"github.com/core-orm/coreql/channel"
	"github.com/core-orm/coreql/corerr"
	"github.com/core-orm/coreql/model"
)

// Database is a bound (adaptor, model) pair — spec.md §4.6 "Database".
type Database struct {
	Adaptor adaptor.Adaptor
	Model   *model.Model
}

// Open parses uri, resolves the owning adaptor via the registry, and
// returns an unbound Database (BindModel still required before any
// DataSource can be obtained).
func Open(uri string) (*Database, error) {
	a, err := adaptor.Open(uri)
	if err != nil {
		return nil, err
	}
	return New(a), nil
}

// New wraps an already-constructed Adaptor.
func New(a adaptor.Adaptor) *Database {
	return &Database{Adaptor: a, Model: a.Model()}
}

// BindModel binds m to both the Database and its Adaptor, connecting
// every entity's relationships (spec.md §4.2).
func (db *Database) BindModel(m *model.Model) error {
	if err := m.ConnectRelationships(); err != nil {
		return corerr.Configuration(err, "database: connecting relationships")
	}
	db.Model = m
	db.Adaptor.BindModel(m)
	return nil
}

// DataSource returns the repository view for entityName.
func (db *Database) DataSource(entityName string) (*DataSource, error) {
	if db.Model == nil {
		return nil, corerr.Configuration(nil, "database: no model bound")
	}
	e := db.Model.Entity(entityName)
	if e == nil {
		return nil, corerr.Configuration(nil, "database: no entity named %q", entityName)
	}
	return &DataSource{db: db, entity: e}, nil
}

func (db *Database) newChannel() *channel.DatabaseChannel {
	return channel.New(db.Adaptor, db.Model)
}

// Close releases the underlying adaptor (and every channel it pools).
func (db *Database) Close() error {
	return db.Adaptor.Close()
}
