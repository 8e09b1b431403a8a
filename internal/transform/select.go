package transform

import (
	"fmt"

	"datajoin/internal/common/errors"
	"datajoin/internal/dataset"
)

func init() {
	Register("select", newSelectRule)
}

// SelectRule projects the record to the named columns, in the given order.
// It fixes the final column order of the result.
type SelectRule struct {
	Columns []string `json:"columns"`
}

func newSelectRule(config map[string]interface{}) (Rule, error) {
	r := &SelectRule{}
	if err := decodeConfig(config, r); err != nil {
		return nil, err
	}
	if len(r.Columns) == 0 {
		return nil, errors.NewConfigError("select", "'columns' must name at least one column")
	}
	return r, nil
}

func (r *SelectRule) Name() string { return "select" }

func (r *SelectRule) OutputSchema(in dataset.Schema) (dataset.Schema, error) {
	if missing := in.Missing(r.Columns); len(missing) > 0 {
		return dataset.Schema{}, errors.NewConfigError("select", fmt.Sprintf("column(s) not in schema: %v", missing))
	}
	cols := make([]dataset.Column, len(r.Columns))
	for i, name := range r.Columns {
		idx, _ := in.Index(name)
		cols[i] = in.Columns[idx]
	}
	return dataset.NewSchema(cols...), nil
}

func (r *SelectRule) Apply(in dataset.Schema, rec dataset.Record) (dataset.Record, bool, error) {
	out := make(dataset.Record, len(r.Columns))
	for i, name := range r.Columns {
		idx, _ := in.Index(name)
		out[i] = rec[idx]
	}
	return out, true, nil
}
