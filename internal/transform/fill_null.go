package transform

import (
	"fmt"

	"datajoin/internal/common/errors"
	"datajoin/internal/dataset"
)

func init() {
	Register("fill_null", newFillNullRule)
}

// FillNullRule replaces nulls with a configured value, coerced to each
// column's declared type. With no columns configured it applies to every
// column the value can coerce to.
type FillNullRule struct {
	Columns []string    `json:"columns"`
	Value   interface{} `json:"value"`
}

func newFillNullRule(config map[string]interface{}) (Rule, error) {
	r := &FillNullRule{}
	if err := decodeConfig(config, r); err != nil {
		return nil, err
	}
	if r.Value == nil {
		return nil, errors.NewConfigError("fill_null", "'value' is required")
	}
	return r, nil
}

func (r *FillNullRule) Name() string { return "fill_null" }

func (r *FillNullRule) OutputSchema(in dataset.Schema) (dataset.Schema, error) {
	if missing := in.Missing(r.Columns); len(missing) > 0 {
		return dataset.Schema{}, errors.NewConfigError("fill_null", fmt.Sprintf("column(s) not in schema: %v", missing))
	}
	return in, nil
}

func (r *FillNullRule) Apply(in dataset.Schema, rec dataset.Record) (dataset.Record, bool, error) {
	targets := make(map[string]bool, len(r.Columns))
	for _, c := range r.Columns {
		targets[c] = true
	}
	out := rec.Clone()
	for i, col := range in.Columns {
		if out[i] != nil {
			continue
		}
		if len(r.Columns) > 0 && !targets[col.Name] {
			continue
		}
		v, err := dataset.CoerceValue(r.Value, col.Type)
		if err != nil {
			if len(r.Columns) == 0 {
				continue // fill-all skips columns the value cannot take
			}
			return nil, false, err
		}
		out[i] = v
	}
	return out, true, nil
}
