package transform

import (
	"fmt"
	"reflect"

	"datajoin/internal/common/errors"
	"datajoin/internal/dataset"
)

func init() {
	Register("filter", newFilterRule)
}

// Filter operators
const (
	OpNotNull   = "not_null"
	OpIsNull    = "is_null"
	OpEquals    = "equals"
	OpNotEquals = "not_equals"
)

// FilterRule keeps records whose column satisfies the configured predicate
type FilterRule struct {
	Column string      `json:"column"`
	Op     string      `json:"op"`
	Value  interface{} `json:"value"`
}

func newFilterRule(config map[string]interface{}) (Rule, error) {
	r := &FilterRule{}
	if err := decodeConfig(config, r); err != nil {
		return nil, err
	}
	if r.Column == "" {
		return nil, errors.NewConfigError("filter", "'column' is required")
	}
	switch r.Op {
	case OpNotNull, OpIsNull, OpEquals, OpNotEquals:
	case "":
		return nil, errors.NewConfigError("filter", "'op' is required")
	default:
		return nil, errors.NewConfigError("filter", fmt.Sprintf("unknown op %q", r.Op))
	}
	return r, nil
}

func (r *FilterRule) Name() string { return "filter" }

func (r *FilterRule) OutputSchema(in dataset.Schema) (dataset.Schema, error) {
	if !in.Has(r.Column) {
		return dataset.Schema{}, errors.NewConfigError("filter", fmt.Sprintf("column '%s' not in schema", r.Column))
	}
	return in, nil
}

func (r *FilterRule) Apply(in dataset.Schema, rec dataset.Record) (dataset.Record, bool, error) {
	idx, _ := in.Index(r.Column)
	v := rec[idx]
	switch r.Op {
	case OpNotNull:
		return rec, v != nil, nil
	case OpIsNull:
		return rec, v == nil, nil
	case OpEquals:
		return rec, valuesEqual(v, r.Value, in.Columns[idx].Type), nil
	case OpNotEquals:
		return rec, !valuesEqual(v, r.Value, in.Columns[idx].Type), nil
	}
	return rec, true, nil
}

// valuesEqual compares a record value against a configured literal, coercing
// the literal to the column's declared type first
func valuesEqual(v, literal interface{}, t dataset.ColumnType) bool {
	if v == nil || literal == nil {
		return v == nil && literal == nil
	}
	coerced, err := dataset.CoerceValue(literal, t)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(v, coerced)
}
