// Package fetch declares FetchSpecification — a declarative request
// for entity + predicate + order + limits + prefetch key-paths — the
// single value that flows from a Database/DataSource call down into
// the SQL expression builder and the DatabaseChannel orchestrator
// (spec.md §3, §4.5, §4.6).
//
// Grounded on the parameter surface the teacher's types.ModelQuery /
// types.SelectQuery interfaces expose (types/database.go: Where,
// Include, OrderBy, GroupBy, Having, Limit, Offset, Distinct) but
// collected into one value object rather than a chained query
// builder, since spec.md treats FetchSpecification as the single
// artifact DataSource, DatabaseChannel, and the SQL builder all pass
// around (rather than each owning its own builder state).
package fetch

import (
	"reflect"

	"github.com/core-orm/coreql/model"
	"github.com/core-orm/coreql/qualifier"
)

// CustomSQL is a verbatim SQL hint: when set, the expression builder
// uses Raw as-is (still recording the attribute list for result
// decoding) instead of synthesizing a SELECT — spec.md §4.3
// "Custom-SQL hint".
type CustomSQL struct {
	Raw  string
	Args []any
}

// Flags bundles FetchSpecification's boolean modifiers (spec.md §3).
type Flags struct {
	Distinct                             bool
	LocksObjects                         bool
	Deep                                  bool
	FetchesRawRows                       bool
	FetchesReadOnly                      bool
	RequiresAllQualifierBindingVariables bool
}

// Specification is a declarative fetch request.
type Specification struct {
	EntityName     string
	Entity         *model.Entity // optional resolved back-reference
	AttributeNames []string      // empty means "all attributes"
	// Attributes, when non-empty, overrides AttributeNames entirely
	// with an explicit projection list — used for synthetic
	// projections that aren't named entity attributes, e.g. a
	// COUNT(*) read-format pseudo-attribute (spec.md §4.6
	// "fetchCount ... rewrites the fetch specification to use a
	// COUNT(*) read-format attribute").
	Attributes []model.Attribute
	Qualifier  qualifier.Qualifier
	SortOrderings  qualifier.SortOrderings
	Limit          int // 0 means unlimited
	Offset         int
	Hints          map[string]any // bindings for qualifier.Var/Binding resolution
	Flags          Flags
	Prefetches     []string // top-level key-paths, e.g. "addresses", "person.addresses"
	Custom         *CustomSQL
}

// New builds a Specification for entityName.
func New(entityName string) *Specification {
	return &Specification{EntityName: entityName, Hints: map[string]any{}}
}

// ForEntity builds a Specification bound to a resolved entity.
func ForEntity(e *model.Entity) *Specification {
	return &Specification{EntityName: e.Name, Entity: e, Hints: map[string]any{}}
}

func (s *Specification) WithQualifier(q qualifier.Qualifier) *Specification {
	s.Qualifier = q
	return s
}

func (s *Specification) WithSortOrderings(o qualifier.SortOrderings) *Specification {
	s.SortOrderings = o
	return s
}

func (s *Specification) WithLimit(limit int) *Specification {
	s.Limit = limit
	return s
}

func (s *Specification) WithOffset(offset int) *Specification {
	s.Offset = offset
	return s
}

func (s *Specification) WithAttributeNames(names ...string) *Specification {
	s.AttributeNames = names
	return s
}

func (s *Specification) WithAttributes(attrs ...model.Attribute) *Specification {
	s.Attributes = attrs
	return s
}

func (s *Specification) WithPrefetch(keyPaths ...string) *Specification {
	s.Prefetches = append(s.Prefetches, keyPaths...)
	return s
}

func (s *Specification) WithHint(key string, value any) *Specification {
	if s.Hints == nil {
		s.Hints = map[string]any{}
	}
	s.Hints[key] = value
	return s
}

// ResolvedQualifier substitutes s.Hints into s.Qualifier, honoring
// Flags.RequiresAllQualifierBindingVariables (spec.md §3, §4.1).
func (s *Specification) ResolvedQualifier() (qualifier.Qualifier, error) {
	if s.Qualifier == nil {
		return nil, nil
	}
	return qualifier.QualifierWith(s.Qualifier, s.Hints, s.Flags.RequiresAllQualifierBindingVariables)
}

// Clone returns a deep-enough copy safe for a caller (e.g.
// DataSource.FetchCount, FetchGlobalIDs) to mutate without disturbing
// the original specification — spec.md §4.6: both rewrite the fetch
// specification before dispatching it.
func (s *Specification) Clone() *Specification {
	clone := *s
	clone.AttributeNames = append([]string(nil), s.AttributeNames...)
	clone.Attributes = append([]model.Attribute(nil), s.Attributes...)
	clone.SortOrderings = append(qualifier.SortOrderings(nil), s.SortOrderings...)
	clone.Prefetches = append([]string(nil), s.Prefetches...)
	clone.Hints = make(map[string]any, len(s.Hints))
	for k, v := range s.Hints {
		clone.Hints[k] = v
	}
	return &clone
}

// Typed carries a static Go object type alongside the untyped
// Specification (spec.md §3: "A typed variant carries a static object
// type").
type Typed[T any] struct {
	*Specification
}

// NewTyped builds a Typed[T] for entityName.
func NewTyped[T any](entityName string) *Typed[T] {
	return &Typed[T]{Specification: New(entityName)}
}

// ObjectType returns T's reflect.Type, unwrapping one level of pointer
// so Typed[Person] and Typed[*Person] report the same type.
func (t *Typed[T]) ObjectType() reflect.Type {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return typ
}
