package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"datajoin/internal/common/errors"
	"datajoin/internal/common/logging"
	"datajoin/internal/dataset"
)

// CSVSource reads a UTF-8 CSV file with a header row. The declared schema
// columns are matched to header positions by name, so column order in the
// file does not have to match the schema.
type CSVSource struct {
	name   string
	path   string
	schema dataset.Schema
	policy dataset.ShapePolicy
}

// NewCSVSource creates a CSV file source
func NewCSVSource(cfg Config) (*CSVSource, error) {
	if cfg.Path == "" {
		return nil, errors.NewConfigError("sources", fmt.Sprintf("source '%s': csv 'path' is required", cfg.Name))
	}
	return &CSVSource{
		name:   cfg.Name,
		path:   cfg.Path,
		schema: cfg.Schema,
		policy: cfg.Policy,
	}, nil
}

func (s *CSVSource) Name() string           { return s.name }
func (s *CSVSource) Schema() dataset.Schema { return s.schema }

// Load reads the whole file
func (s *CSVSource) Load(ctx context.Context) (*dataset.Dataset, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // arity handled by the shape policy

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewSchemaError(s.name, s.schema.Names())
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", s.path, err)
	}

	// Map declared columns to header positions
	positions := make([]int, len(s.schema.Columns))
	var missing []string
	for i, col := range s.schema.Columns {
		positions[i] = -1
		for hi, h := range header {
			if h == col.Name {
				positions[i] = hi
				break
			}
		}
		if positions[i] < 0 {
			missing = append(missing, col.Name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewSchemaError(s.name, missing)
	}

	out := dataset.New(s.name, s.schema)
	row := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s row %d: %w", s.path, row+1, err)
		}
		row++

		aligned := make([]string, len(positions))
		short := false
		for i, pos := range positions {
			if pos >= len(raw) {
				short = true
				continue
			}
			aligned[i] = raw[pos]
		}
		if short {
			switch s.policy {
			case dataset.ShapeSkip:
				logging.Warn("skipped short record",
					logging.String("dataset", s.name),
					logging.Int("row", row),
				)
				continue
			case dataset.ShapeCoerce:
				// missing trailing fields load as null
			default:
				return nil, errors.NewRecordShapeError(s.name, row,
					fmt.Sprintf("expected %d fields, got %d", len(header), len(raw)), nil)
			}
		}

		rec, err := s.schema.ConformStrings(s.name, row, aligned, s.policy)
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
	return out, nil
}
