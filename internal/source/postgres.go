package source

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"datajoin/internal/common/errors"
	"datajoin/internal/common/logging"
	"datajoin/internal/dataset"
)

// PostgresSource reads a dataset from a PostgreSQL table or query
type PostgresSource struct {
	name   string
	dsn    string
	query  string
	schema dataset.Schema
	policy dataset.ShapePolicy
}

// NewPostgresSource creates a PostgreSQL source
func NewPostgresSource(cfg Config) (*PostgresSource, error) {
	if cfg.DSN == "" {
		return nil, errors.NewConfigError("sources", fmt.Sprintf("source '%s': postgres 'dsn' is required", cfg.Name))
	}
	query := cfg.Query
	if query == "" {
		if cfg.Table == "" {
			return nil, errors.NewConfigError("sources", fmt.Sprintf("source '%s': postgres needs 'table' or 'query'", cfg.Name))
		}
		query = selectColumns(cfg.Schema, cfg.Table)
	}
	return &PostgresSource{
		name:   cfg.Name,
		dsn:    cfg.DSN,
		query:  query,
		schema: cfg.Schema,
		policy: cfg.Policy,
	}, nil
}

func (s *PostgresSource) Name() string           { return s.name }
func (s *PostgresSource) Schema() dataset.Schema { return s.schema }

// Load runs the query and reads all rows
func (s *PostgresSource) Load(ctx context.Context) (*dataset.Dataset, error) {
	conn, err := pgx.Connect(ctx, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close(ctx)

	rows, err := conn.Query(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("query postgres: %w", err)
	}
	defer rows.Close()

	out := dataset.New(s.name, s.schema)
	row := 0
	for rows.Next() {
		row++
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read postgres row %d: %w", row, err)
		}
		rec, err := s.schema.ConformValues(s.name, row, vals, s.policy)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			logging.Warn("skipped non-conforming record",
				logging.String("dataset", s.name),
				logging.Int("row", row),
			)
			continue
		}
		out.Append(rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read postgres rows: %w", err)
	}
	return out, nil
}
