package sqlexpr

import (
	"fmt"
	"strings"

	"github.com/core-orm/coreql/adaptor"
	"github.com/core-orm/coreql/qualifier"
)

// leafRenderer implements qualifier.LeafRenderer, the delegation seam
// spec.md §4.1's sqlStringForQualifier describes: it turns qualifier
// leaves into dialect-specific SQL text and positional bind arguments,
// using plan for alias/column resolution and a shared counter so
// placeholders are numbered in the same left-to-right order the bind
// values are appended (spec.md §8: "bound values ... equals ... leaf
// keyValue values in left-to-right order").
type leafRenderer struct {
	caps       adaptor.Capabilities
	plan       *aliasPlan
	nextBindIx int
}

func newLeafRenderer(caps adaptor.Capabilities, plan *aliasPlan) *leafRenderer {
	return &leafRenderer{caps: caps, plan: plan, nextBindIx: 1}
}

func (r *leafRenderer) RenderKeyValue(kv qualifier.KeyValue) (string, []any, error) {
	col, attr, err := columnRef(r.plan, r.caps, kv.Key)
	if err != nil {
		return "", nil, err
	}

	switch kv.Op {
	case qualifier.IsNull:
		return fmt.Sprintf("%s IS NULL", col), nil, nil
	case qualifier.IsNotNull:
		return fmt.Sprintf("%s IS NOT NULL", col), nil, nil
	}

	if kv.Op == qualifier.In || kv.Op == qualifier.NotIn {
		values, ok := kv.Value.([]any)
		if !ok {
			return "", nil, fmt.Errorf("sqlexpr: %s qualifier on %q requires a []any value, got %T", kv.Op, kv.Key, kv.Value)
		}
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = r.caps.Placeholder(r.nextBindIx)
			r.nextBindIx++
			_ = v
		}
		return fmt.Sprintf("%s %s (%s)", col, kv.Op, strings.Join(placeholders, ", ")), values, nil
	}

	if kv.Op == qualifier.Between {
		bounds, ok := kv.Value.([2]any)
		if !ok {
			return "", nil, fmt.Errorf("sqlexpr: BETWEEN qualifier on %q requires a [2]any value, got %T", kv.Key, kv.Value)
		}
		lo, hi := r.caps.Placeholder(r.nextBindIx), r.caps.Placeholder(r.nextBindIx+1)
		r.nextBindIx += 2
		return fmt.Sprintf("%s BETWEEN %s AND %s", col, lo, hi), []any{bounds[0], bounds[1]}, nil
	}

	if !attr.ShouldUseBindVariable() {
		return fmt.Sprintf("%s %s %s", col, kv.Op, inlineLiteral(kv.Value)), nil, nil
	}

	placeholder := r.caps.Placeholder(r.nextBindIx)
	r.nextBindIx++
	return fmt.Sprintf("%s %s %s", col, kv.Op, placeholder), []any{kv.Value}, nil
}

func (r *leafRenderer) RenderKeyComparison(kc qualifier.KeyComparison) (string, error) {
	leftCol, _, err := columnRef(r.plan, r.caps, kc.LeftKey)
	if err != nil {
		return "", err
	}
	rightCol, _, err := columnRef(r.plan, r.caps, kc.RightKey)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", leftCol, kc.Op, rightCol), nil
}

func (r *leafRenderer) RenderSQL(s qualifier.SQL) (string, []any) {
	return s.Raw, s.Args
}

func (r *leafRenderer) RenderBoolean(b qualifier.Boolean) string {
	return r.caps.BooleanLiteral(b.Value)
}

// inlineLiteral renders a value directly into the SQL text: integral or
// boolean qualifier leaves (spec.md §4.3 "Bind handling": "Integral and
// boolean leaves may inline") and column DEFAULT values in DDL. A string
// is single-quoted with embedded quotes doubled; anything else uses %v.
func inlineLiteral(v any) string {
	if s, ok := v.(string); ok {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	return fmt.Sprintf("%v", v)
}
