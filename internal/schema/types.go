package schema

// Type is a fiboa property data type.
type Type string

const (
	TypeBoolean  Type = "boolean"
	TypeInt8     Type = "int8"
	TypeUint8    Type = "uint8"
	TypeInt16    Type = "int16"
	TypeUint16   Type = "uint16"
	TypeInt32    Type = "int32"
	TypeUint32   Type = "uint32"
	TypeInt64    Type = "int64"
	TypeUint64   Type = "uint64"
	TypeFloat    Type = "float"
	TypeDouble   Type = "double"
	TypeString   Type = "string"
	TypeDate     Type = "date"
	TypeDateTime Type = "date-time"
	TypeArray    Type = "array"
	TypeGeometry Type = "geometry"
)

// IsNumeric reports whether the type carries numeric range constraints.
func (t Type) IsNumeric() bool {
	switch t {
	case TypeInt8, TypeUint8, TypeInt16, TypeUint16, TypeInt32, TypeUint32,
		TypeInt64, TypeUint64, TypeFloat, TypeDouble:
		return true
	}
	return false
}

// IsInteger reports whether the type is a fixed-width integer.
func (t Type) IsInteger() bool {
	switch t {
	case TypeInt8, TypeUint8, TypeInt16, TypeUint16, TypeInt32, TypeUint32,
		TypeInt64, TypeUint64:
		return true
	}
	return false
}

// Property describes the declared type and constraints of a single
// fiboa property.
type Property struct {
	Type             Type      `yaml:"type"`
	Items            *Property `yaml:"items,omitempty"`
	Minimum          *float64  `yaml:"minimum,omitempty"`
	Maximum          *float64  `yaml:"maximum,omitempty"`
	ExclusiveMinimum *float64  `yaml:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64  `yaml:"exclusiveMaximum,omitempty"`
	MinLength        *int      `yaml:"minLength,omitempty"`
	MaxLength        *int      `yaml:"maxLength,omitempty"`
	Pattern          string    `yaml:"pattern,omitempty"`
	Enum             []string  `yaml:"enum,omitempty"`
}

// Document is one schema source: the base fiboa schema, an extension
// schema, or a dataset's fragment for properties the others omit.
type Document struct {
	Required   []string             `yaml:"required"`
	Properties map[string]*Property `yaml:"properties"`
}

// Resolved is the merged, authoritative property map a conversion run
// coerces and validates against.
type Resolved struct {
	Properties map[string]*Property
	Required   map[string]bool
}

// IsRequired reports whether the named property must be fully
// non-null in the final table.
func (r *Resolved) IsRequired(name string) bool {
	return r.Required[name]
}
