package transform

import (
	"fmt"
	"sync"

	"datajoin/internal/common/errors"
)

// Factory builds a rule from its raw configuration
type Factory func(config map[string]interface{}) (Rule, error)

// registry is the global rule factory registry
var (
	registry = make(map[string]Factory)
	mu       sync.RWMutex
)

// Register adds a rule factory to the registry
func Register(ruleType string, factory Factory) error {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := registry[ruleType]; exists {
		return fmt.Errorf("rule type already registered: %s", ruleType)
	}
	registry[ruleType] = factory
	return nil
}

// New creates a rule from its type name and configuration
func New(ruleType string, config map[string]interface{}) (Rule, error) {
	mu.RLock()
	factory, found := registry[ruleType]
	mu.RUnlock()

	if !found {
		return nil, errors.NewConfigError("transforms", fmt.Sprintf("unknown rule type %q", ruleType))
	}
	return factory(config)
}

// RegisteredTypes returns all registered rule type names
func RegisteredTypes() []string {
	mu.RLock()
	defer mu.RUnlock()

	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	return types
}
