// Package prepare implements per-source dataset preparation applied after
// load and before the join: dropping columns, row filtering, and group-by
// aggregation. Ops declare their output schema so the join key can be
// validated against the post-prepare schema before any row is loaded.
package prepare

import (
	"encoding/json"
	"fmt"
	"sync"

	"datajoin/internal/common/errors"
	"datajoin/internal/dataset"
)

// Op transforms a whole dataset. Ops are applied in configured order.
type Op interface {
	// Name returns the op type name
	Name() string

	// OutputSchema computes the schema this op produces from its input schema
	OutputSchema(in dataset.Schema) (dataset.Schema, error)

	// Apply transforms the dataset
	Apply(in *dataset.Dataset) (*dataset.Dataset, error)
}

// Factory builds an op from its raw configuration
type Factory func(config map[string]interface{}) (Op, error)

var (
	registry = make(map[string]Factory)
	mu       sync.RWMutex
)

// Register adds an op factory to the registry
func Register(opType string, factory Factory) error {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := registry[opType]; exists {
		return fmt.Errorf("prepare op already registered: %s", opType)
	}
	registry[opType] = factory
	return nil
}

// New creates an op from its type name and configuration
func New(opType string, config map[string]interface{}) (Op, error) {
	mu.RLock()
	factory, found := registry[opType]
	mu.RUnlock()

	if !found {
		return nil, errors.NewConfigError("prepare", fmt.Sprintf("unknown prepare op %q", opType))
	}
	return factory(config)
}

// Apply runs an ordered op list over a dataset
func Apply(in *dataset.Dataset, ops []Op) (*dataset.Dataset, error) {
	cur := in
	for _, op := range ops {
		out, err := op.Apply(cur)
		if err != nil {
			return nil, err
		}
		cur = out
	}
	return cur, nil
}

// OutputSchema computes the schema after an ordered op list
func OutputSchema(in dataset.Schema, ops []Op) (dataset.Schema, error) {
	schema := in
	for _, op := range ops {
		out, err := op.OutputSchema(schema)
		if err != nil {
			return dataset.Schema{}, err
		}
		schema = out
	}
	return schema, nil
}

// decodeConfig converts a raw config map into an op's typed config struct
func decodeConfig(config map[string]interface{}, out interface{}) error {
	data, err := json.Marshal(config)
	if err != nil {
		return errors.NewConfigError("prepare", fmt.Sprintf("failed to marshal config: %v", err))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.NewConfigError("prepare", fmt.Sprintf("failed to unmarshal config: %v", err))
	}
	return nil
}
