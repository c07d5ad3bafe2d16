package qualifier

import "fmt"

// BindingKeys returns the set of unresolved binding variable names
// referenced anywhere in q — both whole-qualifier Binding holes and
// value-level Var placeholders inside KeyValue leaves (spec.md §4.1:
// "bindingKeys() → set of unresolved variable names").
func BindingKeys(q Qualifier) map[string]struct{} {
	keys := make(map[string]struct{})
	collectBindingKeys(q, keys)
	return keys
}

func collectBindingKeys(q Qualifier, keys map[string]struct{}) {
	switch v := q.(type) {
	case And:
		for _, o := range v.Operands {
			collectBindingKeys(o, keys)
		}
	case Or:
		for _, o := range v.Operands {
			collectBindingKeys(o, keys)
		}
	case Not:
		collectBindingKeys(v.Operand, keys)
	case KeyValue:
		if vr, ok := v.Value.(Var); ok {
			keys[vr.Key] = struct{}{}
		}
	case Binding:
		keys[v.Key] = struct{}{}
	}
}

// QualifierWith resolves every Binding and Var placeholder in q against
// bindings. If requiresAll is true, any referenced key absent from
// bindings is an error; otherwise unresolved placeholders are left in
// the returned tree. Boolean short-circuit is honored during
// resolution: and(true, x) == x, and(false, _) == false, dually for
// or — spec.md §4.1.
func QualifierWith(q Qualifier, bindings map[string]any, requiresAll bool) (Qualifier, error) {
	switch v := q.(type) {
	case And:
		resolved := make([]Qualifier, 0, len(v.Operands))
		for _, o := range v.Operands {
			r, err := QualifierWith(o, bindings, requiresAll)
			if err != nil {
				return nil, err
			}
			if b, ok := r.(Boolean); ok {
				if !b.Value {
					return Boolean{Value: false}, nil
				}
				continue // true operand drops out of an AND
			}
			resolved = append(resolved, r)
		}
		switch len(resolved) {
		case 0:
			return Boolean{Value: true}, nil
		case 1:
			return resolved[0], nil
		default:
			return And{Operands: resolved}, nil
		}

	case Or:
		resolved := make([]Qualifier, 0, len(v.Operands))
		for _, o := range v.Operands {
			r, err := QualifierWith(o, bindings, requiresAll)
			if err != nil {
				return nil, err
			}
			if b, ok := r.(Boolean); ok {
				if b.Value {
					return Boolean{Value: true}, nil
				}
				continue // false operand drops out of an OR
			}
			resolved = append(resolved, r)
		}
		switch len(resolved) {
		case 0:
			return Boolean{Value: false}, nil
		case 1:
			return resolved[0], nil
		default:
			return Or{Operands: resolved}, nil
		}

	case Not:
		r, err := QualifierWith(v.Operand, bindings, requiresAll)
		if err != nil {
			return nil, err
		}
		if b, ok := r.(Boolean); ok {
			return Boolean{Value: !b.Value}, nil
		}
		return Not{Operand: r}, nil

	case KeyValue:
		vr, ok := v.Value.(Var)
		if !ok {
			return v, nil
		}
		val, present := bindings[vr.Key]
		if !present {
			if requiresAll {
				return nil, fmt.Errorf("qualifier: unresolved required binding %q", vr.Key)
			}
			return v, nil
		}
		return KeyValue{Key: v.Key, Op: v.Op, Value: val}, nil

	case Binding:
		sub, present := bindings[v.Key]
		if !present {
			if requiresAll {
				return nil, fmt.Errorf("qualifier: unresolved required binding %q", v.Key)
			}
			return v, nil
		}
		q2, ok := sub.(Qualifier)
		if !ok {
			return nil, fmt.Errorf("qualifier: binding %q must supply a Qualifier, got %T", v.Key, sub)
		}
		return QualifierWith(q2, bindings, requiresAll)

	default:
		// KeyComparison, Boolean, SQL carry no bindings.
		return q, nil
	}
}
