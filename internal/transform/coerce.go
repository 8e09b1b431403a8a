package transform

import (
	"fmt"

	"datajoin/internal/common/errors"
	"datajoin/internal/dataset"
)

func init() {
	Register("coerce", newCoerceRule)
}

// CoerceRule converts a column to a different declared type
type CoerceRule struct {
	Column string `json:"column"`
	To     string `json:"to"`

	toType dataset.ColumnType
}

func newCoerceRule(config map[string]interface{}) (Rule, error) {
	r := &CoerceRule{}
	if err := decodeConfig(config, r); err != nil {
		return nil, err
	}
	if r.Column == "" {
		return nil, errors.NewConfigError("coerce", "'column' is required")
	}
	t, err := dataset.ParseColumnType(r.To)
	if err != nil {
		return nil, err
	}
	r.toType = t
	return r, nil
}

func (r *CoerceRule) Name() string { return "coerce" }

func (r *CoerceRule) OutputSchema(in dataset.Schema) (dataset.Schema, error) {
	idx, ok := in.Index(r.Column)
	if !ok {
		return dataset.Schema{}, errors.NewConfigError("coerce", fmt.Sprintf("column '%s' not in schema", r.Column))
	}
	out := in.Clone()
	out.Columns[idx].Type = r.toType
	return out, nil
}

func (r *CoerceRule) Apply(in dataset.Schema, rec dataset.Record) (dataset.Record, bool, error) {
	idx, _ := in.Index(r.Column)
	v, err := dataset.CoerceValue(rec[idx], r.toType)
	if err != nil {
		return nil, false, err
	}
	out := rec.Clone()
	out[idx] = v
	return out, true, nil
}
