package dataset

import (
	"fmt"
	"strconv"

	"datajoin/internal/common/errors"
)

// ShapePolicy controls how records that do not conform to their declared
// schema are handled during load.
type ShapePolicy string

const (
	// ShapeAbort fails the run on the first non-conforming record
	ShapeAbort ShapePolicy = "abort"
	// ShapeSkip drops non-conforming records and continues
	ShapeSkip ShapePolicy = "skip"
	// ShapeCoerce nulls cells that cannot be coerced and pads or truncates
	// records to the schema arity
	ShapeCoerce ShapePolicy = "coerce"
)

// ParseShapePolicy converts a string to a ShapePolicy
func ParseShapePolicy(s string) (ShapePolicy, error) {
	switch s {
	case "", string(ShapeAbort):
		return ShapeAbort, nil
	case string(ShapeSkip):
		return ShapeSkip, nil
	case string(ShapeCoerce):
		return ShapeCoerce, nil
	default:
		return "", errors.NewConfigError("on_shape_error", fmt.Sprintf("unknown shape policy %q", s))
	}
}

// CoerceString converts a raw text cell to the column's declared type.
// The empty string is null for every type.
func CoerceString(raw string, t ColumnType) (interface{}, error) {
	if raw == "" {
		return nil, nil
	}
	switch t {
	case TypeString:
		return raw, nil
	case TypeNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as number", raw)
		}
		return f, nil
	case TypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as bool", raw)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown column type %q", t)
	}
}

// CoerceValue converts an already-typed value (e.g. from a database driver)
// to the column's declared type.
func CoerceValue(v interface{}, t ColumnType) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case TypeString:
		switch x := v.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		default:
			return fmt.Sprintf("%v", x), nil
		}
	case TypeNumber:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int:
			return float64(x), nil
		case int32:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case string:
			return CoerceString(x, TypeNumber)
		case []byte:
			return CoerceString(string(x), TypeNumber)
		default:
			return nil, fmt.Errorf("cannot coerce %T to number", v)
		}
	case TypeBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		case string:
			return CoerceString(x, TypeBool)
		default:
			return nil, fmt.Errorf("cannot coerce %T to bool", v)
		}
	default:
		return nil, fmt.Errorf("unknown column type %q", t)
	}
}

// Format renders a value as a CSV cell. Null renders as the empty field;
// integral numbers render without a decimal point.
func Format(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// ConformStrings validates and coerces one raw text row against the schema.
// A nil record with a nil error means the record was skipped by policy.
func (s Schema) ConformStrings(dsName string, row int, raw []string, policy ShapePolicy) (Record, error) {
	if len(raw) != len(s.Columns) {
		if policy == ShapeSkip {
			return nil, nil
		}
		if policy != ShapeCoerce {
			return nil, errors.NewRecordShapeError(dsName, row,
				fmt.Sprintf("expected %d columns, got %d", len(s.Columns), len(raw)), nil)
		}
	}
	rec := make(Record, len(s.Columns))
	for i, col := range s.Columns {
		var cell string
		if i < len(raw) {
			cell = raw[i]
		}
		v, err := CoerceString(cell, col.Type)
		if err != nil {
			switch policy {
			case ShapeSkip:
				return nil, nil
			case ShapeCoerce:
				v = nil
			default:
				return nil, errors.NewRecordShapeError(dsName, row,
					fmt.Sprintf("column '%s': %v", col.Name, err), err)
			}
		}
		rec[i] = v
	}
	return rec, nil
}

// ConformValues validates and coerces one typed row against the schema.
// A nil record with a nil error means the record was skipped by policy.
func (s Schema) ConformValues(dsName string, row int, vals []interface{}, policy ShapePolicy) (Record, error) {
	if len(vals) != len(s.Columns) {
		if policy == ShapeSkip {
			return nil, nil
		}
		if policy != ShapeCoerce {
			return nil, errors.NewRecordShapeError(dsName, row,
				fmt.Sprintf("expected %d columns, got %d", len(s.Columns), len(vals)), nil)
		}
	}
	rec := make(Record, len(s.Columns))
	for i, col := range s.Columns {
		var cell interface{}
		if i < len(vals) {
			cell = vals[i]
		}
		v, err := CoerceValue(cell, col.Type)
		if err != nil {
			switch policy {
			case ShapeSkip:
				return nil, nil
			case ShapeCoerce:
				v = nil
			default:
				return nil, errors.NewRecordShapeError(dsName, row,
					fmt.Sprintf("column '%s': %v", col.Name, err), err)
			}
		}
		rec[i] = v
	}
	return rec, nil
}
