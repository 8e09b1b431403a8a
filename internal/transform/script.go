package transform

import (
	"fmt"

	"github.com/dop251/goja"

	"datajoin/internal/common/errors"
	"datajoin/internal/dataset"
)

func init() {
	Register("script", newScriptRule)
}

// ScriptColumn declares one output column of a script rule
type ScriptColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ScriptRule runs a JavaScript expression against each record using the
// goja engine. The script sees the record as a `record` object keyed by
// column name; its completion value becomes the output record. Returning
// null or undefined drops the record. The script is compiled once; a fresh
// runtime is created per record, so the rule is safe under parallel
// execution.
type ScriptRule struct {
	Source  string         `json:"source"`
	Columns []ScriptColumn `json:"columns"`

	program *goja.Program
	outCols []dataset.Column
}

func newScriptRule(config map[string]interface{}) (Rule, error) {
	r := &ScriptRule{}
	if err := decodeConfig(config, r); err != nil {
		return nil, err
	}
	if r.Source == "" {
		return nil, errors.NewConfigError("script", "'source' is required")
	}
	program, err := goja.Compile("script", r.Source, true)
	if err != nil {
		return nil, errors.NewConfigError("script", fmt.Sprintf("failed to compile script: %v", err))
	}
	r.program = program
	for _, c := range r.Columns {
		t, err := dataset.ParseColumnType(c.Type)
		if err != nil {
			return nil, err
		}
		r.outCols = append(r.outCols, dataset.Column{Name: c.Name, Type: t})
	}
	return r, nil
}

func (r *ScriptRule) Name() string { return "script" }

// OutputSchema is the declared column list, or the input schema unchanged
// when the script does not reshape the record
func (r *ScriptRule) OutputSchema(in dataset.Schema) (dataset.Schema, error) {
	if len(r.outCols) == 0 {
		return in, nil
	}
	return dataset.NewSchema(r.outCols...), nil
}

func (r *ScriptRule) Apply(in dataset.Schema, rec dataset.Record) (dataset.Record, bool, error) {
	vm := goja.New()

	input := make(map[string]interface{}, len(in.Columns))
	for i, col := range in.Columns {
		input[col.Name] = rec[i]
	}
	if err := vm.Set("record", input); err != nil {
		return nil, false, err
	}

	result, err := vm.RunProgram(r.program)
	if err != nil {
		return nil, false, fmt.Errorf("script execution error: %w", err)
	}
	if result == nil || goja.IsNull(result) || goja.IsUndefined(result) {
		return nil, false, nil
	}

	exported := result.Export()
	obj, ok := exported.(map[string]interface{})
	if !ok {
		return nil, false, fmt.Errorf("script must return an object or null, got %T", exported)
	}

	schema, err := r.OutputSchema(in)
	if err != nil {
		return nil, false, err
	}
	out := make(dataset.Record, len(schema.Columns))
	for i, col := range schema.Columns {
		v, err := dataset.CoerceValue(obj[col.Name], col.Type)
		if err != nil {
			return nil, false, fmt.Errorf("column '%s': %w", col.Name, err)
		}
		out[i] = v
	}
	return out, true, nil
}
