package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"datajoin/internal/common/errors"
	"datajoin/internal/common/logging"
	"datajoin/internal/dataset"
)

// SQLiteSource reads a dataset from a SQLite table or query
type SQLiteSource struct {
	name   string
	path   string
	query  string
	schema dataset.Schema
	policy dataset.ShapePolicy
}

// NewSQLiteSource creates a SQLite source
func NewSQLiteSource(cfg Config) (*SQLiteSource, error) {
	if cfg.Path == "" {
		return nil, errors.NewConfigError("sources", fmt.Sprintf("source '%s': sqlite 'path' is required", cfg.Name))
	}
	query := cfg.Query
	if query == "" {
		if cfg.Table == "" {
			return nil, errors.NewConfigError("sources", fmt.Sprintf("source '%s': sqlite needs 'table' or 'query'", cfg.Name))
		}
		query = selectColumns(cfg.Schema, cfg.Table)
	}
	return &SQLiteSource{
		name:   cfg.Name,
		path:   cfg.Path,
		query:  query,
		schema: cfg.Schema,
		policy: cfg.Policy,
	}, nil
}

func (s *SQLiteSource) Name() string           { return s.name }
func (s *SQLiteSource) Schema() dataset.Schema { return s.schema }

// Load runs the query and reads all rows
func (s *SQLiteSource) Load(ctx context.Context) (*dataset.Dataset, error) {
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", s.path, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("query sqlite %s: %w", s.path, err)
	}
	defer rows.Close()

	out := dataset.New(s.name, s.schema)
	row := 0
	vals := make([]interface{}, len(s.schema.Columns))
	ptrs := make([]interface{}, len(vals))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		row++
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan sqlite row %d: %w", row, err)
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
		return nil, fmt.Errorf("read sqlite rows: %w", err)
	}
	return out, nil
}

// selectColumns builds a SELECT for the schema columns in schema order
func selectColumns(schema dataset.Schema, table string) string {
	cols := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		cols[i] = `"` + c.Name + `"`
	}
	return fmt.Sprintf(`SELECT %s FROM "%s"`, strings.Join(cols, ", "), table)
}
