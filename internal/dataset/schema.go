package dataset

import (
	"fmt"

	"datajoin/internal/common/errors"
)

// ColumnType is the declared scalar type of a column
type ColumnType string

const (
	// TypeString holds UTF-8 text
	TypeString ColumnType = "string"
	// TypeNumber holds float64 values
	TypeNumber ColumnType = "number"
	// TypeBool holds boolean values
	TypeBool ColumnType = "bool"
)

// ParseColumnType converts a string to a ColumnType
func ParseColumnType(s string) (ColumnType, error) {
	switch s {
	case "", "string":
		return TypeString, nil
	case "number", "float", "int":
		return TypeNumber, nil
	case "bool", "boolean":
		return TypeBool, nil
	default:
		return "", errors.NewConfigError("type", fmt.Sprintf("unknown column type %q", s))
	}
}

// Column is a named, typed schema column
type Column struct {
	Name string
	Type ColumnType
}

// Schema is the ordered set of columns shared by all records of a dataset
type Schema struct {
	Columns []Column
}

// NewSchema creates a schema from columns
func NewSchema(columns ...Column) Schema {
	return Schema{Columns: append([]Column(nil), columns...)}
}

// Index returns the position of the named column
func (s Schema) Index(name string) (int, bool) {
	for i, c := range s.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Has reports whether the schema contains the named column
func (s Schema) Has(name string) bool {
	_, ok := s.Index(name)
	return ok
}

// Names returns the column names in schema order
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Missing returns the subset of names absent from the schema, in input order
func (s Schema) Missing(names []string) []string {
	var missing []string
	for _, n := range names {
		if !s.Has(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// Equal reports whether two schemas have identical columns in identical order
func (s Schema) Equal(other Schema) bool {
	if len(s.Columns) != len(other.Columns) {
		return false
	}
	for i, c := range s.Columns {
		if other.Columns[i] != c {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the schema
func (s Schema) Clone() Schema {
	return NewSchema(s.Columns...)
}
