package prepare

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"datajoin/internal/common/errors"
	"datajoin/internal/dataset"
)

func init() {
	Register("aggregate", newAggregateOp)
}

// Aggregation functions
const (
	AggSum   = "sum"
	AggMax   = "max"
	AggMin   = "min"
	AggCount = "count"
)

// Guard restricts which rows contribute to one aggregation
type Guard struct {
	Column string      `json:"column"`
	Equals interface{} `json:"equals"`
}

// Aggregation computes one output column over each group
type Aggregation struct {
	Column string `json:"column"`
	Func   string `json:"func"`
	As     string `json:"as"`
	When   *Guard `json:"when"`
}

// AggregateOp groups rows by a column set and computes aggregations per
// group. Groups are emitted in first-seen input order, keeping the output
// deterministic. A group with no contributing rows for an aggregation gets
// null for that column.
type AggregateOp struct {
	GroupBy      []string      `json:"group_by"`
	Aggregations []Aggregation `json:"aggregations"`
}

func newAggregateOp(config map[string]interface{}) (Op, error) {
	op := &AggregateOp{}
	if err := decodeConfig(config, op); err != nil {
		return nil, err
	}
	if len(op.GroupBy) == 0 {
		return nil, errors.NewConfigError("aggregate", "'group_by' must name at least one column")
	}
	if len(op.Aggregations) == 0 {
		return nil, errors.NewConfigError("aggregate", "'aggregations' must define at least one aggregation")
	}
	seen := make(map[string]bool)
	for _, a := range op.Aggregations {
		if a.As == "" {
			return nil, errors.NewConfigError("aggregate", "every aggregation needs an 'as' name")
		}
		if seen[a.As] {
			return nil, errors.NewConfigError("aggregate", fmt.Sprintf("duplicate output column '%s'", a.As))
		}
		seen[a.As] = true
		switch a.Func {
		case AggSum, AggMax, AggMin, AggCount:
		default:
			return nil, errors.NewConfigError("aggregate", fmt.Sprintf("unknown func %q", a.Func))
		}
		if a.Column == "" {
			return nil, errors.NewConfigError("aggregate", fmt.Sprintf("aggregation '%s' needs a 'column'", a.As))
		}
	}
	return op, nil
}

func (op *AggregateOp) Name() string { return "aggregate" }

func (op *AggregateOp) OutputSchema(in dataset.Schema) (dataset.Schema, error) {
	if missing := in.Missing(op.GroupBy); len(missing) > 0 {
		return dataset.Schema{}, errors.NewConfigError("aggregate", fmt.Sprintf("group_by column(s) not in schema: %v", missing))
	}
	cols := make([]dataset.Column, 0, len(op.GroupBy)+len(op.Aggregations))
	for _, g := range op.GroupBy {
		idx, _ := in.Index(g)
		cols = append(cols, in.Columns[idx])
	}
	for _, a := range op.Aggregations {
		idx, ok := in.Index(a.Column)
		if !ok {
			return dataset.Schema{}, errors.NewConfigError("aggregate", fmt.Sprintf("column '%s' not in schema", a.Column))
		}
		if a.Func != AggCount && in.Columns[idx].Type != dataset.TypeNumber {
			return dataset.Schema{}, errors.NewConfigError("aggregate",
				fmt.Sprintf("func %q requires a number column, '%s' is %s", a.Func, a.Column, in.Columns[idx].Type))
		}
		if a.When != nil && !in.Has(a.When.Column) {
			return dataset.Schema{}, errors.NewConfigError("aggregate", fmt.Sprintf("when column '%s' not in schema", a.When.Column))
		}
		cols = append(cols, dataset.Column{Name: a.As, Type: dataset.TypeNumber})
	}
	return dataset.NewSchema(cols...), nil
}

// groupState accumulates one group's aggregation values
type groupState struct {
	key    dataset.Record // group-by values
	accs   []float64
	filled []bool
}

func (op *AggregateOp) Apply(in *dataset.Dataset) (*dataset.Dataset, error) {
	schema, err := op.OutputSchema(in.Schema)
	if err != nil {
		return nil, err
	}

	groupCols := make([]int, len(op.GroupBy))
	for i, g := range op.GroupBy {
		groupCols[i], _ = in.Schema.Index(g)
	}
	aggCols := make([]int, len(op.Aggregations))
	guardCols := make([]int, len(op.Aggregations))
	guardVals := make([]interface{}, len(op.Aggregations))
	for i, a := range op.Aggregations {
		aggCols[i], _ = in.Schema.Index(a.Column)
		guardCols[i] = -1
		if a.When != nil {
			gi, _ := in.Schema.Index(a.When.Column)
			guardCols[i] = gi
			want, err := dataset.CoerceValue(a.When.Equals, in.Schema.Columns[gi].Type)
			if err != nil {
				return nil, errors.NewConfigError("aggregate", fmt.Sprintf("when.equals: %v", err))
			}
			guardVals[i] = want
		}
	}

	groups := make(map[string]*groupState)
	var order []string
	for _, rec := range in.Records {
		var kb strings.Builder
		key := make(dataset.Record, len(groupCols))
		for i, gc := range groupCols {
			key[i] = rec[gc]
			s := dataset.Format(rec[gc])
			kb.WriteString(strconv.Itoa(len(s)))
			kb.WriteByte(':')
			kb.WriteString(s)
		}
		ks := kb.String()
		g, found := groups[ks]
		if !found {
			g = &groupState{
				key:    key,
				accs:   make([]float64, len(op.Aggregations)),
				filled: make([]bool, len(op.Aggregations)),
			}
			groups[ks] = g
			order = append(order, ks)
		}
		for i, a := range op.Aggregations {
			if guardCols[i] >= 0 && !reflect.DeepEqual(rec[guardCols[i]], guardVals[i]) {
				continue
			}
			v := rec[aggCols[i]]
			if v == nil {
				continue
			}
			if a.Func == AggCount {
				g.accs[i]++
				g.filled[i] = true
				continue
			}
			f, ok := v.(float64)
			if !ok {
				return nil, errors.NewRecordShapeError(in.Name, 0,
					fmt.Sprintf("column '%s' holds %T, expected number", a.Column, v), nil)
			}
			switch {
			case !g.filled[i]:
				g.accs[i] = f
			case a.Func == AggSum:
				g.accs[i] += f
			case a.Func == AggMax && f > g.accs[i]:
				g.accs[i] = f
			case a.Func == AggMin && f < g.accs[i]:
				g.accs[i] = f
			}
			g.filled[i] = true
		}
	}

	out := dataset.New(in.Name, schema)
	for _, ks := range order {
		g := groups[ks]
		rec := make(dataset.Record, 0, len(schema.Columns))
		rec = append(rec, g.key...)
		for i := range op.Aggregations {
			if g.filled[i] {
				rec = append(rec, g.accs[i])
			} else {
				rec = append(rec, nil)
			}
		}
		out.Append(rec)
	}
	return out, nil
}
