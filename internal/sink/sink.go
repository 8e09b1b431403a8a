// Package sink serializes result datasets. The CSV sink writes
// all-or-nothing: output lands in a temp file that is renamed into place
// only after every row has been written, so a failed run leaves no partial
// output behind.
package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"datajoin/internal/dataset"
)

// Sink writes one result dataset to a destination
type Sink interface {
	// Destination identifies the sink target for logs and diagnostics
	Destination() string

	// Write serializes the dataset
	Write(ctx context.Context, ds *dataset.Dataset) error
}

// EncodeCSV renders a dataset as CSV bytes: UTF-8, header row with the
// schema's column order, one row per record, empty field for null. The
// encoding is a pure function of the dataset, so encoding the same dataset
// twice yields identical bytes.
func EncodeCSV(ds *dataset.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(ds.Schema.Names()); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(ds.Schema.Columns))
	for i, rec := range ds.Records {
		for j := range row {
			row[j] = dataset.Format(rec[j])
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CSVSink writes a dataset to a CSV file
type CSVSink struct {
	path string
}

// NewCSVSink creates a CSV file sink
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// Destination returns the output file path
func (s *CSVSink) Destination() string { return s.path }

// Write encodes the dataset and atomically replaces the destination file
func (s *CSVSink) Write(ctx context.Context, ds *dataset.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := EncodeCSV(ds)
	if err != nil {
		return err
	}
	return s.WriteBytes(data)
}

// WriteBytes atomically replaces the destination file with pre-encoded data
func (s *CSVSink) WriteBytes(data []byte) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename to %s: %w", s.path, err)
	}
	return nil
}
