package transform

import (
	"fmt"

	"datajoin/internal/common/errors"
	"datajoin/internal/dataset"
)

func init() {
	Register("rename", newRenameRule)
}

// RenameRule renames one column, keeping its position and type
type RenameRule struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func newRenameRule(config map[string]interface{}) (Rule, error) {
	r := &RenameRule{}
	if err := decodeConfig(config, r); err != nil {
		return nil, err
	}
	if r.From == "" || r.To == "" {
		return nil, errors.NewConfigError("rename", "'from' and 'to' are required")
	}
	return r, nil
}

func (r *RenameRule) Name() string { return "rename" }

func (r *RenameRule) OutputSchema(in dataset.Schema) (dataset.Schema, error) {
	idx, ok := in.Index(r.From)
	if !ok {
		return dataset.Schema{}, errors.NewConfigError("rename", fmt.Sprintf("column '%s' not in schema", r.From))
	}
	if in.Has(r.To) {
		return dataset.Schema{}, errors.NewConfigError("rename", fmt.Sprintf("column '%s' already in schema", r.To))
	}
	out := in.Clone()
	out.Columns[idx].Name = r.To
	return out, nil
}

func (r *RenameRule) Apply(in dataset.Schema, rec dataset.Record) (dataset.Record, bool, error) {
	return rec, true, nil
}
