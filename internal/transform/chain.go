package transform

import (
	"datajoin/internal/common/errors"
	"datajoin/internal/dataset"
)

// Chain applies an ordered rule list. Schema transitions are computed once
// at construction, so Apply is a pure per-record operation safe for
// concurrent use over disjoint records.
type Chain struct {
	rules   []Rule
	schemas []dataset.Schema // schemas[i] is the input schema of rules[i]
}

// NewChain validates the rule sequence against the input schema and
// precomputes the schema after each rule.
func NewChain(in dataset.Schema, rules []Rule) (*Chain, error) {
	c := &Chain{rules: rules, schemas: make([]dataset.Schema, 0, len(rules)+1)}
	schema := in
	c.schemas = append(c.schemas, schema)
	for _, r := range rules {
		out, err := r.OutputSchema(schema)
		if err != nil {
			return nil, err
		}
		schema = out
		c.schemas = append(c.schemas, schema)
	}
	return c, nil
}

// OutputSchema returns the schema after the final rule
func (c *Chain) OutputSchema() dataset.Schema {
	return c.schemas[len(c.schemas)-1]
}

// Apply runs every rule in order on one record. row identifies the record
// in error diagnostics. keep=false means a rule filtered the record out.
func (c *Chain) Apply(row int, rec dataset.Record) (dataset.Record, bool, error) {
	cur := rec
	for i, r := range c.rules {
		out, keep, err := r.Apply(c.schemas[i], cur)
		if err != nil {
			return nil, false, errors.NewTransformError(r.Name(), row, err.Error(), err)
		}
		if !keep {
			return nil, false, nil
		}
		cur = out
	}
	return cur, true, nil
}
