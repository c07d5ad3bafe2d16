package sqlexpr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/core-orm/coreql/adaptor"
	"github.com/core-orm/coreql/model"
)

// entityGroup is one row of model.Model.EntityGroups(): the table
// name plus the entities that share it (spec.md §4.3 "DDL": "for each
// entity group (entities sharing an external name)").
type entityGroup struct {
	table    string
	entities []*model.Entity
}

// orderedGroups topologically sorts m's entity groups by outgoing
// foreign-key reference count to other groups (fewer references
// first; stable by table name on tie; self-references uncounted) —
// spec.md §4.3 "Group ordering for creation". Not grounded on the
// teacher (its migration/differ.go diffs one table at a time and
// never orders a multi-table creation batch); this ordering logic is
// new, built to satisfy spec.md directly.
func orderedGroups(m *model.Model) []entityGroup {
	raw := m.EntityGroups()
	groups := make([]entityGroup, 0, len(raw))
	for table, entities := range raw {
		groups = append(groups, entityGroup{table: table, entities: entities})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].table < groups[j].table })

	outDegree := make(map[string]int, len(groups))
	for _, g := range groups {
		degree := 0
		for _, e := range g.entities {
			for _, rel := range e.Relationships {
				if !rel.IsForeignKey() {
					continue
				}
				dest := rel.Destination()
				if dest == nil || dest.TableName() == g.table {
					continue // self-reference, uncounted
				}
				degree++
			}
		}
		outDegree[g.table] = degree
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return outDegree[groups[i].table] < outDegree[groups[j].table]
	})
	return groups
}

// CreateTableStatements emits DROP-less CREATE TABLE statements (plus a
// trailing ALTER TABLE ADD CONSTRAINT for every connected foreign-key
// relationship; no foreign key is declared inline in CREATE TABLE) for
// every entity group in m, in creation order.
func (f *Factory) CreateTableStatements(m *model.Model) ([]adaptor.Expression, error) {
	var stmts []adaptor.Expression
	usedConstraintNames := map[string]bool{}

	for _, g := range orderedGroups(m) {
		createSQL, alterStmts, err := f.createTableSQL(g, usedConstraintNames)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, adaptor.Expression{Statement: createSQL})
		stmts = append(stmts, alterStmts...)
	}
	return stmts, nil
}

// DropTableStatements emits DROP TABLE statements in reverse creation
// order, so dependents drop before the tables they reference.
func (f *Factory) DropTableStatements(m *model.Model) ([]adaptor.Expression, error) {
	groups := orderedGroups(m)
	stmts := make([]adaptor.Expression, 0, len(groups))
	for i := len(groups) - 1; i >= 0; i-- {
		stmts = append(stmts, adaptor.Expression{
			Statement: fmt.Sprintf("DROP TABLE IF EXISTS %s", f.Caps.QuoteIdentifier(groups[i].table)),
		})
	}
	return stmts, nil
}

func (f *Factory) createTableSQL(g entityGroup, usedConstraintNames map[string]bool) (string, []adaptor.Expression, error) {
	columns, pkNames, seenCols := []string{}, []string{}, map[string]bool{}
	var alters []adaptor.Expression

	for _, e := range g.entities {
		for _, a := range e.Attributes {
			col := a.ColumnNameOrName()
			if seenCols[col] {
				continue // the same column may appear on more than one entity in an inheritance group
			}
			seenCols[col] = true
			columns = append(columns, f.columnSpec(a))
		}
		for _, pk := range e.PrimaryKeyNames {
			pkNames = append(pkNames, pk)
		}
		for _, rel := range e.Relationships {
			if !rel.IsForeignKey() || rel.Destination() == nil {
				continue
			}
			stmt, err := f.foreignKeyAlter(g.table, e, rel, usedConstraintNames)
			if err != nil {
				return "", nil, err
			}
			alters = append(alters, stmt)
		}
	}

	if len(pkNames) > 0 {
		quoted := make([]string, len(pkNames))
		for i, pk := range pkNames {
			quoted[i] = f.Caps.QuoteIdentifier(pk)
		}
		columns = append(columns, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}

	sql := fmt.Sprintf("CREATE TABLE %s (%s)", f.Caps.QuoteIdentifier(g.table), strings.Join(columns, ", "))
	return sql, alters, nil
}

func (f *Factory) columnSpec(a model.Attribute) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", f.Caps.QuoteIdentifier(a.ColumnNameOrName()), sqlTypeFor(a))
	if !a.Nullable {
		b.WriteString(" NOT NULL")
	}
	if a.Default != nil {
		fmt.Fprintf(&b, " DEFAULT %s", inlineLiteral(a.Default))
	}
	if a.AutoIncrement {
		b.WriteString(" AUTOINCREMENT")
	}
	return b.String()
}

func sqlTypeFor(a model.Attribute) string {
	switch a.Type {
	case model.TypeString:
		if a.Width > 0 {
			return fmt.Sprintf("VARCHAR(%d)", a.Width)
		}
		return "TEXT"
	case model.TypeInt:
		return "INTEGER"
	case model.TypeInt64:
		return "BIGINT"
	case model.TypeFloat:
		return "DOUBLE PRECISION"
	case model.TypeBool:
		return "BOOLEAN"
	case model.TypeDateTime:
		return "TIMESTAMP"
	case model.TypeBytes:
		return "BLOB"
	case model.TypeDecimal:
		if a.Precision > 0 {
			return fmt.Sprintf("DECIMAL(%d,%d)", a.Width, a.Precision)
		}
		return "DECIMAL"
	case model.TypeJSON:
		return "JSON"
	default:
		return "TEXT"
	}
}

// foreignKeyAlter builds an ALTER TABLE ... ADD CONSTRAINT for rel,
// suffixing the constraint name on a collision (spec.md §4.3:
// "Constraint names must be unique within the batch; collisions
// trigger suffixed renaming").
func (f *Factory) foreignKeyAlter(table string, e *model.Entity, rel *model.Relationship, used map[string]bool) (adaptor.Expression, error) {
	dest := rel.Destination()
	name := rel.ConstraintName
	if name == "" {
		name = fmt.Sprintf("fk_%s_%s", e.TableName(), rel.Name)
	}
	candidate := name
	for suffix := 2; used[candidate]; suffix++ {
		candidate = fmt.Sprintf("%s_%d", name, suffix)
	}
	used[candidate] = true

	var srcCols, dstCols []string
	for _, j := range rel.Joins {
		src := j.SourceAttribute()
		dst := j.DestinationAttribute()
		if src == nil || dst == nil {
			return adaptor.Expression{}, fmt.Errorf("sqlexpr: relationship %q: join not resolved", rel.Name)
		}
		srcCols = append(srcCols, f.Caps.QuoteIdentifier(src.ColumnNameOrName()))
		dstCols = append(dstCols, f.Caps.QuoteIdentifier(dst.ColumnNameOrName()))
	}

	sql := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		f.Caps.QuoteIdentifier(table), f.Caps.QuoteIdentifier(candidate),
		strings.Join(srcCols, ", "), f.Caps.QuoteIdentifier(dest.TableName()), strings.Join(dstCols, ", "))
	return adaptor.Expression{Statement: sql}, nil
}
