package prepare

import (
	"fmt"
	"reflect"

	"datajoin/internal/common/errors"
	"datajoin/internal/dataset"
)

func init() {
	Register("drop_columns", newDropColumnsOp)
	Register("filter", newFilterOp)
}

// DropColumnsOp removes columns from the dataset
type DropColumnsOp struct {
	Columns []string `json:"columns"`
}

func newDropColumnsOp(config map[string]interface{}) (Op, error) {
	op := &DropColumnsOp{}
	if err := decodeConfig(config, op); err != nil {
		return nil, err
	}
	if len(op.Columns) == 0 {
		return nil, errors.NewConfigError("drop_columns", "'columns' must name at least one column")
	}
	return op, nil
}

func (op *DropColumnsOp) Name() string { return "drop_columns" }

func (op *DropColumnsOp) OutputSchema(in dataset.Schema) (dataset.Schema, error) {
	if missing := in.Missing(op.Columns); len(missing) > 0 {
		return dataset.Schema{}, errors.NewConfigError("drop_columns", fmt.Sprintf("column(s) not in schema: %v", missing))
	}
	set := make(map[string]bool, len(op.Columns))
	for _, c := range op.Columns {
		set[c] = true
	}
	var cols []dataset.Column
	for _, c := range in.Columns {
		if !set[c.Name] {
			cols = append(cols, c)
		}
	}
	return dataset.NewSchema(cols...), nil
}

func (op *DropColumnsOp) Apply(in *dataset.Dataset) (*dataset.Dataset, error) {
	schema, err := op.OutputSchema(in.Schema)
	if err != nil {
		return nil, err
	}
	keep := make([]int, 0, len(schema.Columns))
	for _, c := range schema.Columns {
		idx, _ := in.Schema.Index(c.Name)
		keep = append(keep, idx)
	}
	out := dataset.New(in.Name, schema)
	for _, rec := range in.Records {
		row := make(dataset.Record, len(keep))
		for i, idx := range keep {
			row[i] = rec[idx]
		}
		out.Append(row)
	}
	return out, nil
}

// FilterOp keeps rows whose column equals the configured value
type FilterOp struct {
	Column string      `json:"column"`
	Equals interface{} `json:"equals"`
}

func newFilterOp(config map[string]interface{}) (Op, error) {
	op := &FilterOp{}
	if err := decodeConfig(config, op); err != nil {
		return nil, err
	}
	if op.Column == "" {
		return nil, errors.NewConfigError("filter", "'column' is required")
	}
	return op, nil
}

func (op *FilterOp) Name() string { return "filter" }

func (op *FilterOp) OutputSchema(in dataset.Schema) (dataset.Schema, error) {
	if !in.Has(op.Column) {
		return dataset.Schema{}, errors.NewConfigError("filter", fmt.Sprintf("column '%s' not in schema", op.Column))
	}
	return in, nil
}

func (op *FilterOp) Apply(in *dataset.Dataset) (*dataset.Dataset, error) {
	idx, ok := in.Schema.Index(op.Column)
	if !ok {
		return nil, errors.NewConfigError("filter", fmt.Sprintf("column '%s' not in schema", op.Column))
	}
	want, err := dataset.CoerceValue(op.Equals, in.Schema.Columns[idx].Type)
	if err != nil {
		return nil, errors.NewConfigError("filter", fmt.Sprintf("'equals': %v", err))
	}
	out := dataset.New(in.Name, in.Schema)
	for _, rec := range in.Records {
		if reflect.DeepEqual(rec[idx], want) {
			out.Append(rec)
		}
	}
	return out, nil
}
