package qualifier

import (
	"fmt"
	"strings"
)

// LeafRenderer knows how to turn qualifier leaves into dialect-specific
// SQL text; implemented by package sqlexpr so that quoting and bind
// placeholder syntax stay dialect-specific while the qualifier tree
// itself stays dialect-agnostic (spec.md §4.1:
// "sqlStringForQualifier(expr) delegates leaf emission to the SQL
// expression builder").
type LeafRenderer interface {
	RenderKeyValue(kv KeyValue) (sql string, args []any, err error)
	RenderKeyComparison(kc KeyComparison) (sql string, err error)
	RenderSQL(s SQL) (sql string, args []any)
	RenderBoolean(b Boolean) (sql string)
}

// Render walks q, combining AND/OR/NOT structurally and delegating
// every leaf to r. Returns an error if q still contains an unresolved
// Binding/Var — callers must run QualifierWith(requiresAll=true) (or
// otherwise guarantee full resolution) before rendering.
func Render(q Qualifier, r LeafRenderer) (string, []any, error) {
	switch v := q.(type) {
	case And:
		return renderConjunction(v.Operands, "AND", r)
	case Or:
		return renderConjunction(v.Operands, "OR", r)
	case Not:
		sql, args, err := Render(v.Operand, r)
		if err != nil {
			return "", nil, err
		}
		if sql == "" {
			return "", nil, nil
		}
		return fmt.Sprintf("NOT (%s)", sql), args, nil
	case KeyValue:
		if vr, ok := v.Value.(Var); ok {
			return "", nil, fmt.Errorf("qualifier: cannot render unresolved binding %q", vr.Key)
		}
		sql, args, err := r.RenderKeyValue(v)
		return sql, args, err
	case KeyComparison:
		sql, err := r.RenderKeyComparison(v)
		return sql, nil, err
	case Boolean:
		return r.RenderBoolean(v), nil, nil
	case SQL:
		sql, args := r.RenderSQL(v)
		return sql, args, nil
	case Binding:
		return "", nil, fmt.Errorf("qualifier: cannot render unresolved binding %q", v.Key)
	default:
		return "", nil, fmt.Errorf("qualifier: unknown qualifier type %T", q)
	}
}

func renderConjunction(operands []Qualifier, joiner string, r LeafRenderer) (string, []any, error) {
	var parts []string
	var args []any
	for _, o := range operands {
		sql, a, err := Render(o, r)
		if err != nil {
			return "", nil, err
		}
		if sql == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("(%s)", sql))
		args = append(args, a...)
	}
	if len(parts) == 0 {
		return "", nil, nil
	}
	return strings.Join(parts, " "+joiner+" "), args, nil
}

// LeafValues returns every KeyValue leaf's Value, and every SQL leaf's
// Args, in left-to-right tree order — spec.md §8 invariant: "the set of bound values emitted by
// the expression builder equals the set of leaf keyValue values (in
// left-to-right order)" for a fully-resolved qualifier.
func LeafValues(q Qualifier) []any {
	var values []any
	collectLeafValues(q, &values)
	return values
}

func collectLeafValues(q Qualifier, values *[]any) {
	switch v := q.(type) {
	case And:
		for _, o := range v.Operands {
			collectLeafValues(o, values)
		}
	case Or:
		for _, o := range v.Operands {
			collectLeafValues(o, values)
		}
	case Not:
		collectLeafValues(v.Operand, values)
	case KeyValue:
		*values = append(*values, v.Value)
	case SQL:
		*values = append(*values, v.Args...)
	}
}
