// Package transform implements the ordered, deterministic record transform
// rules applied to joined records. Rules are registered by type name and
// constructed from job configuration; each rule declares its output schema
// so the full schema chain is validated before any record is processed.
package transform

import (
	"encoding/json"
	"fmt"

	"datajoin/internal/common/errors"
	"datajoin/internal/dataset"
)

// Rule is a deterministic record-to-record mapping. Apply returns the
// transformed record and whether to keep it; returning keep=false drops the
// record (filtering). Rules must not retain or mutate the input record.
type Rule interface {
	// Name returns the rule type name
	Name() string

	// OutputSchema computes the schema this rule produces from its input
	// schema, validating referenced columns exist
	OutputSchema(in dataset.Schema) (dataset.Schema, error)

	// Apply transforms one record
	Apply(in dataset.Schema, rec dataset.Record) (dataset.Record, bool, error)
}

// ErrorPolicy controls how a rule failure on a record is handled
type ErrorPolicy string

const (
	// PolicyAbort fails the run on the first rule failure
	PolicyAbort ErrorPolicy = "abort"
	// PolicySkip drops the offending record and continues
	PolicySkip ErrorPolicy = "skip"
	// PolicyKeep passes the offending record through untransformed
	PolicyKeep ErrorPolicy = "keep"
)

// ParseErrorPolicy converts a string to an ErrorPolicy
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch s {
	case "", string(PolicyAbort):
		return PolicyAbort, nil
	case string(PolicySkip):
		return PolicySkip, nil
	case string(PolicyKeep):
		return PolicyKeep, nil
	default:
		return "", errors.NewConfigError("on_transform_error", fmt.Sprintf("unknown error policy %q", s))
	}
}

// decodeConfig converts a raw config map into a rule's typed config struct
func decodeConfig(config map[string]interface{}, out interface{}) error {
	data, err := json.Marshal(config)
	if err != nil {
		return errors.NewConfigError("transform", fmt.Sprintf("failed to marshal config: %v", err))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.NewConfigError("transform", fmt.Sprintf("failed to unmarshal config: %v", err))
	}
	return nil
}
