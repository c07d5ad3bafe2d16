package sqlexpr

import (
	"fmt"
	"strings"

	"github.com/core-orm/coreql/adaptor"
	"github.com/core-orm/coreql/corerr"
	"github.com/core-orm/coreql/fetch"
	"github.com/core-orm/coreql/model"
	"github.com/core-orm/coreql/qualifier"
)

// Factory is a dialect-parameterized adaptor.ExpressionFactory: all
// dialect variance is pushed into the adaptor.Capabilities it holds
// (spec.md §4.3: "dialect-parameterized via polymorphism").
type Factory struct {
	Caps adaptor.Capabilities
}

// New builds a Factory over caps.
func New(caps adaptor.Capabilities) *Factory {
	return &Factory{Caps: caps}
}

var _ adaptor.ExpressionFactory = (*Factory)(nil)

// resolvedQualifier combines entity's restricting qualifier with
// fs.Qualifier (AND) and substitutes fs.Hints — spec.md §4.3 step 1.
func resolvedQualifier(entity *model.Entity, fs *fetch.Specification) (qualifier.Qualifier, error) {
	var restricting qualifier.Qualifier
	if entity.RestrictingQualifier != nil {
		if q, ok := entity.RestrictingQualifier.(qualifier.Qualifier); ok {
			restricting = q
		}
	}

	var fsQualifier qualifier.Qualifier
	var hints map[string]any
	requiresAll := false
	if fs != nil {
		fsQualifier = fs.Qualifier
		hints = fs.Hints
		requiresAll = fs.Flags.RequiresAllQualifierBindingVariables
	}

	combined := restricting
	switch {
	case combined == nil:
		combined = fsQualifier
	case fsQualifier != nil:
		combined = qualifier.NewAnd(combined, fsQualifier)
	}
	if combined == nil {
		return nil, nil
	}
	return qualifier.QualifierWith(combined, hints, requiresAll)
}

// SelectExpressionForAttributes implements spec.md §4.3's seven-step
// SELECT algorithm.
func (f *Factory) SelectExpressionForAttributes(attrs []model.Attribute, lock bool, fs *fetch.Specification, entity *model.Entity) (adaptor.Expression, error) {
	if fs != nil && fs.Custom != nil {
		return f.ExpressionForString(fs.Custom.Raw, fs.Custom.Args, attrs), nil
	}

	resolved, err := resolvedQualifier(entity, fs)
	if err != nil {
		return adaptor.Expression{}, corerr.Configuration(err, "sqlexpr: resolving qualifier for entity %q", entity.Name)
	}

	plan := newAliasPlan(entity)
	if resolved != nil {
		for _, path := range collectJoinPaths(resolved) {
			if _, _, err := plan.resolve(path, f.Caps); err != nil {
				return adaptor.Expression{}, corerr.Configuration(err, "sqlexpr: resolving join path %q on entity %q", path, entity.Name)
			}
		}
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if fs != nil && fs.Flags.Distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(selectList(plan, f.Caps, attrs))
	b.WriteString(" FROM ")
	b.WriteString(f.Caps.QuoteIdentifier(entity.TableName()))
	b.WriteString(" AS ")
	b.WriteString(plan.rootAlias)
	for _, j := range plan.joins {
		b.WriteString(" ")
		b.WriteString(j)
	}

	var args []any
	if resolved != nil {
		renderer := newLeafRenderer(f.Caps, plan)
		whereSQL, whereArgs, err := qualifier.Render(resolved, renderer)
		if err != nil {
			return adaptor.Expression{}, corerr.Configuration(err, "sqlexpr: rendering WHERE for entity %q", entity.Name)
		}
		if whereSQL != "" {
			b.WriteString(" WHERE ")
			b.WriteString(whereSQL)
			args = whereArgs
		}
	}

	if fs != nil && len(fs.SortOrderings) > 0 {
		orderParts, err := orderByList(plan, f.Caps, fs.SortOrderings)
		if err != nil {
			return adaptor.Expression{}, corerr.Configuration(err, "sqlexpr: resolving ORDER BY for entity %q", entity.Name)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(orderParts, ", "))
	}

	writeLimitOffset(&b, f.Caps, fs)

	if lock {
		if lc := f.Caps.LockClause(); lc != "" {
			b.WriteString(" ")
			b.WriteString(lc)
		}
	}

	return adaptor.Expression{Statement: b.String(), Args: args, Attrs: attrs}, nil
}

func selectList(plan *aliasPlan, caps adaptor.Capabilities, attrs []model.Attribute) string {
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		col := fmt.Sprintf("%s.%s", plan.rootAlias, caps.QuoteIdentifier(a.ColumnNameOrName()))
		if a.ReadFormat != "" {
			parts[i] = strings.ReplaceAll(a.ReadFormat, "%@", col)
		} else {
			parts[i] = col
		}
	}
	return strings.Join(parts, ", ")
}

func orderByList(plan *aliasPlan, caps adaptor.Capabilities, orderings qualifier.SortOrderings) ([]string, error) {
	parts := make([]string, 0, len(orderings))
	for _, o := range orderings {
		col, _, err := columnRef(plan, caps, o.Key)
		if err != nil {
			return nil, err
		}
		switch o.Selector {
		case qualifier.Asc:
			parts = append(parts, col+" ASC")
		case qualifier.Desc:
			parts = append(parts, col+" DESC")
		case qualifier.CaseInsensitiveAsc:
			parts = append(parts, fmt.Sprintf("LOWER(%s) ASC", col))
		case qualifier.CaseInsensitiveDesc:
			parts = append(parts, fmt.Sprintf("LOWER(%s) DESC", col))
		default:
			return nil, fmt.Errorf("sqlexpr: unknown sort selector %v", o.Selector)
		}
	}
	return parts, nil
}

func writeLimitOffset(b *strings.Builder, caps adaptor.Capabilities, fs *fetch.Specification) {
	if fs == nil {
		return
	}
	switch {
	case fs.Limit > 0:
		fmt.Fprintf(b, " LIMIT %d", fs.Limit)
		if fs.Offset > 0 {
			fmt.Fprintf(b, " OFFSET %d", fs.Offset)
		}
	case fs.Offset > 0 && caps.RequiresLimitForOffset():
		// spec.md §4.3 "Emit ORDER BY and LIMIT / OFFSET per
		// dialect": some dialects (sqlite) require a LIMIT clause to
		// accompany a bare OFFSET; -1 means "unlimited".
		fmt.Fprintf(b, " LIMIT -1 OFFSET %d", fs.Offset)
	case fs.Offset > 0:
		fmt.Fprintf(b, " OFFSET %d", fs.Offset)
	}
}

// InsertStatementForRow builds an INSERT for row against entity,
// grounded on the teacher's query/insert_query.go BuildSQL (empty-row
// DEFAULT VALUES handling, deterministic column ordering via the
// entity's own attribute order rather than map iteration order).
func (f *Factory) InsertStatementForRow(row map[string]any, entity *model.Entity) (adaptor.Expression, error) {
	var cols []string
	var placeholders []string
	var args []any
	idx := 1
	for _, a := range entity.Attributes {
		v, present := row[a.Name]
		if !present {
			continue
		}
		cols = append(cols, f.Caps.QuoteIdentifier(a.ColumnNameOrName()))
		placeholders = append(placeholders, f.Caps.Placeholder(idx))
		idx++
		args = append(args, v)
	}

	var b strings.Builder
	table := f.Caps.QuoteIdentifier(entity.TableName())
	if len(cols) == 0 {
		if !f.Caps.SupportsDefaultValues() {
			return adaptor.Expression{}, corerr.Configuration(nil, "sqlexpr: entity %q: empty insert requires DEFAULT VALUES support", entity.Name)
		}
		fmt.Fprintf(&b, "INSERT INTO %s DEFAULT VALUES", table)
	} else {
		fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	}

	if f.Caps.SupportsReturning() && len(entity.PrimaryKeyNames) > 0 {
		pkCols := make([]string, len(entity.PrimaryKeyNames))
		for i, pk := range entity.PrimaryKeyNames {
			attr, err := entity.Attribute(pk)
			if err != nil {
				return adaptor.Expression{}, corerr.Configuration(err, "sqlexpr: entity %q", entity.Name)
			}
			pkCols[i] = f.Caps.QuoteIdentifier(attr.ColumnNameOrName())
		}
		fmt.Fprintf(&b, " RETURNING %s", strings.Join(pkCols, ", "))
	}

	return adaptor.Expression{Statement: b.String(), Args: args, Attrs: entity.Attributes}, nil
}

// UpdateStatementForRow builds an UPDATE restricted by q. Mutation
// statements address the table directly (no alias, no joins) since
// spec.md never describes a joined UPDATE/DELETE — only PK-qualifier
// restricted mutations.
func (f *Factory) UpdateStatementForRow(row map[string]any, q qualifier.Qualifier, entity *model.Entity) (adaptor.Expression, error) {
	plan := newAliasPlan(entity)
	plan.rootAlias = f.Caps.QuoteIdentifier(entity.TableName())

	var sets []string
	var args []any
	idx := 1
	for _, a := range entity.Attributes {
		v, present := row[a.Name]
		if !present {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = %s", f.Caps.QuoteIdentifier(a.ColumnNameOrName()), f.Caps.Placeholder(idx)))
		idx++
		args = append(args, v)
	}
	if len(sets) == 0 {
		return adaptor.Expression{}, corerr.Configuration(nil, "sqlexpr: entity %q: update requires at least one changed attribute", entity.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "UPDATE %s SET %s", f.Caps.QuoteIdentifier(entity.TableName()), strings.Join(sets, ", "))

	if q != nil {
		renderer := newLeafRenderer(f.Caps, plan)
		renderer.nextBindIx = idx
		whereSQL, whereArgs, err := qualifier.Render(q, renderer)
		if err != nil {
			return adaptor.Expression{}, corerr.Configuration(err, "sqlexpr: rendering UPDATE WHERE for entity %q", entity.Name)
		}
		if whereSQL != "" {
			b.WriteString(" WHERE ")
			b.WriteString(whereSQL)
			args = append(args, whereArgs...)
		}
	}

	return adaptor.Expression{Statement: b.String(), Args: args}, nil
}

// DeleteStatementWithQualifier builds a DELETE restricted by q.
func (f *Factory) DeleteStatementWithQualifier(q qualifier.Qualifier, entity *model.Entity) (adaptor.Expression, error) {
	plan := newAliasPlan(entity)
	plan.rootAlias = f.Caps.QuoteIdentifier(entity.TableName())

	var b strings.Builder
	fmt.Fprintf(&b, "DELETE FROM %s", f.Caps.QuoteIdentifier(entity.TableName()))

	var args []any
	if q != nil {
		renderer := newLeafRenderer(f.Caps, plan)
		whereSQL, whereArgs, err := qualifier.Render(q, renderer)
		if err != nil {
			return adaptor.Expression{}, corerr.Configuration(err, "sqlexpr: rendering DELETE WHERE for entity %q", entity.Name)
		}
		if whereSQL != "" {
			b.WriteString(" WHERE ")
			b.WriteString(whereSQL)
			args = whereArgs
		}
	}

	return adaptor.Expression{Statement: b.String(), Args: args}, nil
}

// ExpressionForString wraps verbatim SQL, still recording attrs for
// result decoding (spec.md §4.3 "Custom-SQL hint").
func (f *Factory) ExpressionForString(sql string, args []any, attrs []model.Attribute) adaptor.Expression {
	return adaptor.Expression{Statement: sql, Args: args, Attrs: attrs}
}
