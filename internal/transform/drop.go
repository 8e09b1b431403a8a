package transform

import (
	"fmt"

	"datajoin/internal/common/errors"
	"datajoin/internal/dataset"
)

func init() {
	Register("drop", newDropRule)
}

// DropRule removes columns from the record
type DropRule struct {
	Columns []string `json:"columns"`
}

func newDropRule(config map[string]interface{}) (Rule, error) {
	r := &DropRule{}
	if err := decodeConfig(config, r); err != nil {
		return nil, err
	}
	if len(r.Columns) == 0 {
		return nil, errors.NewConfigError("drop", "'columns' must name at least one column")
	}
	return r, nil
}

func (r *DropRule) Name() string { return "drop" }

func (r *DropRule) dropSet() map[string]bool {
	set := make(map[string]bool, len(r.Columns))
	for _, c := range r.Columns {
		set[c] = true
	}
	return set
}

func (r *DropRule) OutputSchema(in dataset.Schema) (dataset.Schema, error) {
	if missing := in.Missing(r.Columns); len(missing) > 0 {
		return dataset.Schema{}, errors.NewConfigError("drop", fmt.Sprintf("column(s) not in schema: %v", missing))
	}
	set := r.dropSet()
	var cols []dataset.Column
	for _, c := range in.Columns {
		if !set[c.Name] {
			cols = append(cols, c)
		}
	}
	return dataset.NewSchema(cols...), nil
}

func (r *DropRule) Apply(in dataset.Schema, rec dataset.Record) (dataset.Record, bool, error) {
	set := r.dropSet()
	out := make(dataset.Record, 0, len(rec)-len(r.Columns))
	for i, c := range in.Columns {
		if !set[c.Name] {
			out = append(out, rec[i])
		}
	}
	return out, true, nil
}
