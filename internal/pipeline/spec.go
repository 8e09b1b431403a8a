// Package pipeline wires sources, the join, transform rules, engines, and
// sinks into one runnable job, configured by a YAML job spec.
package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"datajoin/internal/common/errors"
)

// ColumnSpec declares one schema column
type ColumnSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// StepSpec is one prepare op or transform rule: a type name plus its
// type-specific configuration keys inline
type StepSpec struct {
	Type   string                 `yaml:"type"`
	Config map[string]interface{} `yaml:",inline"`
}

// SourceSpec declares one dataset source
type SourceSpec struct {
	Type         string       `yaml:"type"`
	Path         string       `yaml:"path"`
	DSN          string       `yaml:"dsn"`
	Table        string       `yaml:"table"`
	Query        string       `yaml:"query"`
	Schema       []ColumnSpec `yaml:"schema"`
	OnShapeError string       `yaml:"on_shape_error"`
	Prepare      []StepSpec   `yaml:"prepare"`
}

// JoinSpec declares the join between two named sources
type JoinSpec struct {
	Left  string   `yaml:"left"`
	Right string   `yaml:"right"`
	Key   []string `yaml:"key"`
	Mode  string   `yaml:"mode"`
}

// OutputSpec declares one destination and the engine that computes it
type OutputSpec struct {
	Path   string `yaml:"path"`
	Engine string `yaml:"engine"`
}

// JobSpec is the full YAML job configuration
type JobSpec struct {
	Name             string                `yaml:"name"`
	Sources          map[string]SourceSpec `yaml:"sources"`
	Join             JoinSpec              `yaml:"join"`
	Transforms       []StepSpec            `yaml:"transforms"`
	OnTransformError string                `yaml:"on_transform_error"`
	Outputs          []OutputSpec          `yaml:"outputs"`
}

// LoadSpec reads and validates a job spec file
func LoadSpec(path string) (*JobSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job spec %s: %w", path, err)
	}
	return ParseSpec(data)
}

// ParseSpec parses and validates a YAML job spec
func ParseSpec(data []byte) (*JobSpec, error) {
	spec := &JobSpec{}
	if err := yaml.Unmarshal(data, spec); err != nil {
		return nil, errors.NewConfigError("", fmt.Sprintf("invalid job spec: %v", err))
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// Validate checks the spec's structural requirements
func (s *JobSpec) Validate() error {
	if s.Name == "" {
		return errors.NewConfigError("name", "job name is required")
	}
	if len(s.Sources) == 0 {
		return errors.NewConfigError("sources", "at least two sources are required")
	}
	if s.Join.Left == "" || s.Join.Right == "" {
		return errors.NewConfigError("join", "'left' and 'right' must name sources")
	}
	if _, ok := s.Sources[s.Join.Left]; !ok {
		return errors.NewConfigError("join.left", fmt.Sprintf("source '%s' is not defined", s.Join.Left))
	}
	if _, ok := s.Sources[s.Join.Right]; !ok {
		return errors.NewConfigError("join.right", fmt.Sprintf("source '%s' is not defined", s.Join.Right))
	}
	if len(s.Join.Key) == 0 {
		return errors.NewConfigError("join.key", "join key must name at least one column")
	}
	if len(s.Outputs) == 0 {
		return errors.NewConfigError("outputs", "at least one output is required")
	}
	for i, out := range s.Outputs {
		if out.Path == "" {
			return errors.NewConfigError("outputs", fmt.Sprintf("output %d: 'path' is required", i))
		}
	}
	for name, src := range s.Sources {
		if len(src.Schema) == 0 {
			return errors.NewConfigError("sources", fmt.Sprintf("source '%s': schema is required", name))
		}
	}
	return nil
}
