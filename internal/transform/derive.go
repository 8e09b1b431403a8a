package transform

import (
	"fmt"
	"strings"

	"datajoin/internal/common/errors"
	"datajoin/internal/dataset"
)

func init() {
	Register("derive", newDeriveRule)
}

// Derive functions
const (
	FuncMax    = "max"
	FuncMin    = "min"
	FuncSum    = "sum"
	FuncConcat = "concat"
)

// DeriveRule appends a column computed from existing columns. Numeric
// functions skip nulls; if every input is null the derived value is null.
type DeriveRule struct {
	As      string   `json:"as"`
	Func    string   `json:"func"`
	Columns []string `json:"columns"`
}

func newDeriveRule(config map[string]interface{}) (Rule, error) {
	r := &DeriveRule{}
	if err := decodeConfig(config, r); err != nil {
		return nil, err
	}
	if r.As == "" {
		return nil, errors.NewConfigError("derive", "'as' is required")
	}
	if len(r.Columns) == 0 {
		return nil, errors.NewConfigError("derive", "'columns' must name at least one column")
	}
	switch r.Func {
	case FuncMax, FuncMin, FuncSum, FuncConcat:
	default:
		return nil, errors.NewConfigError("derive", fmt.Sprintf("unknown func %q", r.Func))
	}
	return r, nil
}

func (r *DeriveRule) Name() string { return "derive" }

func (r *DeriveRule) outType() dataset.ColumnType {
	if r.Func == FuncConcat {
		return dataset.TypeString
	}
	return dataset.TypeNumber
}

func (r *DeriveRule) OutputSchema(in dataset.Schema) (dataset.Schema, error) {
	if missing := in.Missing(r.Columns); len(missing) > 0 {
		return dataset.Schema{}, errors.NewConfigError("derive", fmt.Sprintf("column(s) not in schema: %v", missing))
	}
	if in.Has(r.As) {
		return dataset.Schema{}, errors.NewConfigError("derive", fmt.Sprintf("column '%s' already in schema", r.As))
	}
	if r.Func != FuncConcat {
		for _, name := range r.Columns {
			idx, _ := in.Index(name)
			if in.Columns[idx].Type != dataset.TypeNumber {
				return dataset.Schema{}, errors.NewConfigError("derive",
					fmt.Sprintf("func %q requires number columns, '%s' is %s", r.Func, name, in.Columns[idx].Type))
			}
		}
	}
	out := in.Clone()
	out.Columns = append(out.Columns, dataset.Column{Name: r.As, Type: r.outType()})
	return out, nil
}

func (r *DeriveRule) Apply(in dataset.Schema, rec dataset.Record) (dataset.Record, bool, error) {
	var derived interface{}
	if r.Func == FuncConcat {
		var b strings.Builder
		for _, name := range r.Columns {
			idx, _ := in.Index(name)
			b.WriteString(dataset.Format(rec[idx]))
		}
		derived = b.String()
	} else {
		var acc float64
		seen := false
		for _, name := range r.Columns {
			idx, _ := in.Index(name)
			v := rec[idx]
			if v == nil {
				continue
			}
			f, ok := v.(float64)
			if !ok {
				return nil, false, fmt.Errorf("column '%s' holds %T, expected number", name, v)
			}
			switch {
			case !seen:
				acc = f
			case r.Func == FuncMax && f > acc:
				acc = f
			case r.Func == FuncMin && f < acc:
				acc = f
			case r.Func == FuncSum:
				acc += f
			}
			seen = true
		}
		if seen {
			derived = acc
		}
	}
	out := make(dataset.Record, len(rec)+1)
	copy(out, rec)
	out[len(rec)] = derived
	return out, true, nil
}
