// Package source loads tabular datasets from external storage. Every source
// carries a declared schema; records are validated and coerced against it at
// load time under the configured shape policy.
package source

import (
	"context"
	"fmt"

	"datajoin/internal/common/errors"
	"datajoin/internal/dataset"
)

// Source is a one-shot, whole-dataset reader
type Source interface {
	// Name returns the logical dataset name
	Name() string

	// Schema returns the declared schema, available without loading
	Schema() dataset.Schema

	// Load reads the full dataset
	Load(ctx context.Context) (*dataset.Dataset, error)
}

// Config selects and parameterizes a source
type Config struct {
	Type   string // csv, sqlite, postgres
	Name   string
	Schema dataset.Schema
	Policy dataset.ShapePolicy
	Path   string // csv file path, or sqlite database path
	DSN    string // postgres connection string
	Table  string // sqlite/postgres table name
	Query  string // optional SQL overriding Table
}

// New creates a source from its configuration
func New(cfg Config) (Source, error) {
	if cfg.Name == "" {
		return nil, errors.NewConfigError("sources", "source name is required")
	}
	if len(cfg.Schema.Columns) == 0 {
		return nil, errors.NewConfigError("sources", fmt.Sprintf("source '%s': schema is required", cfg.Name))
	}
	switch cfg.Type {
	case "csv":
		return NewCSVSource(cfg)
	case "sqlite":
		return NewSQLiteSource(cfg)
	case "postgres":
		return NewPostgresSource(cfg)
	default:
		return nil, errors.NewConfigError("sources", fmt.Sprintf("source '%s': unknown type %q", cfg.Name, cfg.Type))
	}
}

// MemorySource wraps an in-memory dataset, used by tests and engine fixtures
type MemorySource struct {
	ds *dataset.Dataset
}

// NewMemorySource wraps a dataset as a source
func NewMemorySource(ds *dataset.Dataset) *MemorySource {
	return &MemorySource{ds: ds}
}

func (s *MemorySource) Name() string           { return s.ds.Name }
func (s *MemorySource) Schema() dataset.Schema { return s.ds.Schema }
func (s *MemorySource) Load(ctx context.Context) (*dataset.Dataset, error) {
	return s.ds, nil
}
