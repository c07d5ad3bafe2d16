// Package sqlexpr implements CoreQL's dialect-parameterized SQL
// Expression Builder — spec.md §4.3. One Factory, parameterized by an
// adaptor.Capabilities, implements adaptor.ExpressionFactory for every
// dialect; per-dialect packages (adaptor/sqlite, adaptor/postgres,
// adaptor/mysql, adaptor/duckdb) construct a Factory over their own
// Capabilities rather than each hand-rolling their own builder.
//
// Grounded on the teacher's query/select_query.go (BuildSQL's
// clause-by-clause assembly: select/from/join/where/groupBy/having/
// orderBy/limit/offset) and query/insert_query.go (BuildSQL's
// empty-insert/DEFAULT VALUES handling, field/value extraction).
package sqlexpr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/core-orm/coreql/adaptor"
	"github.com/core-orm/coreql/model"
	"github.com/core-orm/coreql/qualifier"
)

// aliasPlan records the table-alias bookkeeping accumulated while
// walking a qualifier's referenced relationship key-paths — spec.md
// §4.3 step 2.
type aliasPlan struct {
	rootAlias  string
	rootEntity *model.Entity
	aliasOf    map[string]string        // relationship path -> alias
	entityOf   map[string]*model.Entity // relationship path -> resolved destination entity
	joins      []string                 // ordered JOIN clauses, in allocation order
	next       int                      // next alias ordinal to allocate (T0 is root, so starts at 1)
}

func newAliasPlan(root *model.Entity) *aliasPlan {
	return &aliasPlan{
		rootAlias:  "T0",
		rootEntity: root,
		aliasOf:    map[string]string{},
		entityOf:   map[string]*model.Entity{},
		next:       1,
	}
}

// collectJoinPaths returns every distinct relationship key-path
// prefix referenced by q's leaves, ordered shallowest-first so a
// parent path is always resolved before any child path that depends
// on it (spec.md §4.3 step 2: "Walk the qualifier once collecting all
// referenced relationship key-paths").
func collectJoinPaths(q qualifier.Qualifier) []string {
	seen := map[string]bool{}
	var paths []string
	add := func(key string) {
		segs := strings.Split(key, ".")
		for i := 1; i < len(segs); i++ {
			prefix := strings.Join(segs[:i], ".")
			if !seen[prefix] {
				seen[prefix] = true
				paths = append(paths, prefix)
			}
		}
	}
	var walk func(q qualifier.Qualifier)
	walk = func(q qualifier.Qualifier) {
		switch v := q.(type) {
		case qualifier.And:
			for _, o := range v.Operands {
				walk(o)
			}
		case qualifier.Or:
			for _, o := range v.Operands {
				walk(o)
			}
		case qualifier.Not:
			walk(v.Operand)
		case qualifier.KeyValue:
			add(v.Key)
		case qualifier.KeyComparison:
			add(v.LeftKey)
			add(v.RightKey)
		}
	}
	walk(q)
	sort.Slice(paths, func(i, j int) bool {
		di := strings.Count(paths[i], ".")
		dj := strings.Count(paths[j], ".")
		if di != dj {
			return di < dj
		}
		return paths[i] < paths[j]
	})
	return paths
}

// resolve walks or allocates the alias/join chain for path (a
// dotted relationship key-path, e.g. "person.addresses") against
// plan, emitting JOIN clauses for any segment not already resolved.
func (p *aliasPlan) resolve(path string, caps adaptor.Capabilities) (alias string, entity *model.Entity, err error) {
	if path == "" {
		return p.rootAlias, p.rootEntity, nil
	}
	if alias, ok := p.aliasOf[path]; ok {
		return alias, p.entityOf[path], nil
	}

	segs := strings.Split(path, ".")
	parentPath := strings.Join(segs[:len(segs)-1], ".")
	relName := segs[len(segs)-1]

	parentAlias, parentEntity, err := p.resolve(parentPath, caps)
	if err != nil {
		return "", nil, err
	}

	rel, err := parentEntity.Relationship(relName)
	if err != nil {
		return "", nil, fmt.Errorf("sqlexpr: %w", err)
	}
	dest := rel.Destination()
	if dest == nil {
		return "", nil, fmt.Errorf("sqlexpr: relationship %q is unconnected (call Model.ConnectRelationships first)", rel.Name)
	}

	destAlias := fmt.Sprintf("T%d", p.next)
	p.next++

	var onParts []string
	for _, j := range rel.Joins {
		src := j.SourceAttribute()
		dst := j.DestinationAttribute()
		onParts = append(onParts, fmt.Sprintf("%s.%s = %s.%s",
			parentAlias, caps.QuoteIdentifier(src.ColumnNameOrName()),
			destAlias, caps.QuoteIdentifier(dst.ColumnNameOrName())))
	}

	joinKind := string(rel.Semantic) + " JOIN"
	p.joins = append(p.joins, fmt.Sprintf("%s %s AS %s ON %s",
		joinKind, caps.QuoteIdentifier(dest.TableName()), destAlias, strings.Join(onParts, " AND ")))

	p.aliasOf[path] = destAlias
	p.entityOf[path] = dest
	return destAlias, dest, nil
}

// columnRef resolves a (possibly dotted) attribute key against plan,
// returning its dialect-quoted, alias-qualified column expression and
// the owning Attribute.
func columnRef(plan *aliasPlan, caps adaptor.Capabilities, key string) (string, *model.Attribute, error) {
	dot := strings.LastIndex(key, ".")
	path, attrName := "", key
	if dot >= 0 {
		path, attrName = key[:dot], key[dot+1:]
	}
	alias, entity, err := plan.resolve(path, caps)
	if err != nil {
		return "", nil, err
	}
	attr, err := entity.Attribute(attrName)
	if err != nil {
		return "", nil, fmt.Errorf("sqlexpr: %w", err)
	}
	return fmt.Sprintf("%s.%s", alias, caps.QuoteIdentifier(attr.ColumnNameOrName())), attr, nil
}
