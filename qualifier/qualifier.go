// Package qualifier implements the boolean-predicate tree CoreQL uses
// to describe fetch/update/delete restrictions — spec.md §3 Qualifier,
// §4.1.
//
// Grounded on the teacher's types.Condition tree
// (github.com/rediwo/redi-orm types/conditions.go: BaseCondition,
// AndCondition, OrCondition, NotCondition, RawCondition,
// FieldConditionImpl) but redesigned as the closed sum type spec.md
// requires (and, or, not, keyValue, keyComparison, boolean, sql,
// binding) with leaf emission delegated to the SQL expression builder
// instead of baked into the tree — see SPEC_FULL.md §4.1 for why this
// is the one deliberate divergence from the teacher's approach.
package qualifier

// Op is a qualifier comparison operator.
type Op string

const (
	Equal              Op = "="
	NotEqual           Op = "!="
	Less               Op = "<"
	LessOrEqual        Op = "<="
	Greater            Op = ">"
	GreaterOrEqual     Op = ">="
	Like               Op = "LIKE"
	ILike              Op = "ILIKE"
	In                 Op = "IN"
	NotIn              Op = "NOT IN"
	Contains           Op = "CONTAINS"
	Between            Op = "BETWEEN"
	IsNull             Op = "IS NULL"
	IsNotNull          Op = "IS NOT NULL"
)

// Qualifier is the closed sum type of predicate-tree nodes. Only the
// types defined in this file implement it.
type Qualifier interface {
	isQualifier()
}

// And is the conjunction of its Operands.
type And struct{ Operands []Qualifier }

// Or is the disjunction of its Operands.
type Or struct{ Operands []Qualifier }

// Not negates Operand.
type Not struct{ Operand Qualifier }

// KeyValue compares an attribute (by schema key, possibly a dotted
// relationship key-path) against a literal or bound Value.
type KeyValue struct {
	Key   string
	Op    Op
	Value any // may be a Var placeholder pending binding substitution
}

// KeyComparison compares two attributes (by key) against each other,
// e.g. "invoice.total = invoice.paidAmount".
type KeyComparison struct {
	LeftKey  string
	Op       Op
	RightKey string
}

// Boolean is a constant true/false leaf, used both directly and as the
// result of short-circuit simplification during binding resolution.
type Boolean struct{ Value bool }

// SQL is a verbatim escape hatch: raw SQL text plus its positional
// bind arguments.
type SQL struct {
	Raw  string
	Args []any
}

// Binding is a whole-qualifier hole: at bind time it is replaced by
// whatever Qualifier the caller supplies under Key, or reported as
// unresolved if none is supplied.
type Binding struct{ Key string }

// Var is a value-level placeholder usable as a KeyValue.Value —
// resolved independently of (and in addition to) whole-qualifier
// Binding holes.
type Var struct{ Key string }

func (And) isQualifier()           {}
func (Or) isQualifier()            {}
func (Not) isQualifier()           {}
func (KeyValue) isQualifier()      {}
func (KeyComparison) isQualifier() {}
func (Boolean) isQualifier()       {}
func (SQL) isQualifier()           {}
func (Binding) isQualifier()       {}

// Constructors, grounded on the teacher's And()/Or()/Not()/Raw() free
// functions in types/conditions.go.

func NewAnd(operands ...Qualifier) Qualifier { return And{Operands: operands} }
func NewOr(operands ...Qualifier) Qualifier  { return Or{Operands: operands} }
func NewNot(q Qualifier) Qualifier           { return Not{Operand: q} }

func KV(key string, op Op, value any) Qualifier {
	return KeyValue{Key: key, Op: op, Value: value}
}

func KeyCmp(leftKey string, op Op, rightKey string) Qualifier {
	return KeyComparison{LeftKey: leftKey, Op: op, RightKey: rightKey}
}

func True() Qualifier  { return Boolean{Value: true} }
func False() Qualifier { return Boolean{Value: false} }

func Raw(sql string, args ...any) Qualifier { return SQL{Raw: sql, Args: args} }

func Bind(key string) Qualifier { return Binding{Key: key} }
