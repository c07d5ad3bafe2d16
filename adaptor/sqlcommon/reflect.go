package sqlcommon

import (
	"github.com/core-orm/coreql/corerr"
	"github.com/core-orm/coreql/model"
)

// ColumnInfo is one reflected column, already translated to a
// model.ValueType by the dialect-specific Reflector (sqlite/postgres/
// mysql/duckdb each know their own type-name vocabulary; only entity
// assembly is shared here).
type ColumnInfo struct {
	Name          string
	Type          model.ValueType
	Nullable      bool
	PrimaryKey    bool
	AutoIncrement bool
}

// BuildReflectedModel assembles a concrete model.Model from a table ->
// columns map, one entity per table named after the table itself
// (spec.md §4.2 "Pattern models": the reflected model is later merged
// against a pattern model, which is where renaming/overrides happen).
func BuildReflectedModel(tables map[string][]ColumnInfo) (*model.Model, error) {
	m := model.New()
	for table, cols := range tables {
		entity, err := BuildEntity(table, cols)
		if err != nil {
			return nil, err
		}
		if err := m.AddEntity(entity); err != nil {
			return nil, corerr.Configuration(err, "sqlcommon: adding reflected entity %q", table)
		}
	}
	return m, nil
}

// BuildEntity assembles a single table's reflected columns into an
// Entity via the explicit EntityBuilder.
func BuildEntity(table string, cols []ColumnInfo) (*model.Entity, error) {
	b := model.NewEntityBuilder(table).Table(table)

	var pk []string
	for _, c := range cols {
		var opts []model.AttributeOption
		if c.Nullable {
			opts = append(opts, model.Nullable())
		}
		if c.AutoIncrement {
			opts = append(opts, model.AutoIncrement())
		}
		b = b.Attribute(c.Name, c.Type, opts...)
		if c.PrimaryKey {
			pk = append(pk, c.Name)
		}
	}
	if len(pk) > 0 {
		b = b.PrimaryKey(pk...)
	}

	entity, err := b.Build()
	if err != nil {
		return nil, corerr.Configuration(err, "sqlcommon: building reflected entity %q", table)
	}
	return entity, nil
}
