package model

import "fmt"

// ValueType is the nullable-aware set of value kinds an Attribute can
// hold, grounded on the teacher's schema.FieldType but folding
// nullability into the attribute itself rather than leaving it to a
// sibling bool only (spec.md §3: "value type (nullable-aware)").
type ValueType string

const (
	TypeString   ValueType = "string"
	TypeInt      ValueType = "int"
	TypeInt64    ValueType = "int64"
	TypeFloat    ValueType = "float"
	TypeBool     ValueType = "bool"
	TypeDateTime ValueType = "datetime"
	TypeBytes    ValueType = "bytes"
	TypeDecimal  ValueType = "decimal"
	TypeJSON     ValueType = "json"
)

// Attribute describes one column of an Entity.
type Attribute struct {
	Name          string
	ColumnName    string // optional; empty means derive from Name
	Type          ValueType
	Nullable      bool
	Width         int // 0 means unspecified
	Precision     int // 0 means unspecified
	Default       any
	AutoIncrement bool

	// ReadFormat, when non-empty, is a format string with a single "%@"
	// placeholder substituted with the attribute's qualified column
	// expression at SELECT-list emission time (spec.md §4.3 step 3),
	// e.g. "COUNT(*)" or "LOWER(%@)".
	ReadFormat string

	// UseBindVariable controls whether a leaf keyValue qualifier on this
	// attribute is emitted as a bound placeholder or inlined. Defaults
	// to true for variable-width string/blob types (spec.md §4.3,
	// "Bind handling").
	UseBindVariable bool
}

// ColumnNameOrName returns ColumnName if set, else Name — spec.md §3
// invariant "columnNameOrName = columnName ?? name".
func (a Attribute) ColumnNameOrName() string {
	if a.ColumnName != "" {
		return a.ColumnName
	}
	return a.Name
}

// ShouldUseBindVariable reports whether leaves against this attribute
// should bind a placeholder rather than inline the literal value.
// Integral and boolean types default to inlining unless the attribute
// opts in explicitly; variable-width types (string, bytes, json,
// decimal) default to binding.
func (a Attribute) ShouldUseBindVariable() bool {
	if a.UseBindVariable {
		return true
	}
	switch a.Type {
	case TypeString, TypeBytes, TypeJSON, TypeDecimal:
		return true
	default:
		return false
	}
}

func (a Attribute) String() string {
	return fmt.Sprintf("Attribute(%s:%s)", a.Name, a.Type)
}

// AttributeOption mutates an Attribute at construction time; used by
// the explicit EntityBuilder (spec.md §9 Design Notes).
type AttributeOption func(*Attribute)

func PrimaryKeyColumn(name string) AttributeOption {
	return func(a *Attribute) { a.ColumnName = name }
}

func Nullable() AttributeOption {
	return func(a *Attribute) { a.Nullable = true }
}

func AutoIncrement() AttributeOption {
	return func(a *Attribute) { a.AutoIncrement = true }
}

func WithDefault(v any) AttributeOption {
	return func(a *Attribute) { a.Default = v }
}

// UUIDGeneratorMarker is a Default sentinel meaning "generate a random
// UUID at insert time if the caller left this attribute unset",
// grounded on velox's contrib/mixin.ID mixin ("Adds UUID primary key
// with auto-generation"). The actual generation happens in package
// object, which alone knows how to mutate a live value; model only
// carries the marker so WithDefault(GenerateUUID) reads naturally on
// an EntityBuilder attribute declaration.
type UUIDGeneratorMarker struct{}

// GenerateUUID is the Default value for an auto-generated UUID column.
var GenerateUUID = UUIDGeneratorMarker{}

func WithWidth(width int) AttributeOption {
	return func(a *Attribute) { a.Width = width }
}

func WithPrecision(precision int) AttributeOption {
	return func(a *Attribute) { a.Precision = precision }
}

func WithReadFormat(format string) AttributeOption {
	return func(a *Attribute) { a.ReadFormat = format }
}

func WithColumnName(name string) AttributeOption {
	return func(a *Attribute) { a.ColumnName = name }
}

func BindVariable(use bool) AttributeOption {
	return func(a *Attribute) { a.UseBindVariable = use }
}

// NewAttribute builds an Attribute applying the given options in order.
func NewAttribute(name string, t ValueType, opts ...AttributeOption) Attribute {
	a := Attribute{Name: name, Type: t}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// CountAttribute is the conventional pseudo-attribute for COUNT(*)
// projections (spec.md §4.3 step 3 and §8 scenario 1).
func CountAttribute() Attribute {
	return Attribute{
		Name:       "_count",
		Type:       TypeInt64,
		ReadFormat: "COUNT(*)",
	}
}
