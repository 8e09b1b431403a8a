// Package dataset defines the tabular data model shared by sources, the
// join, transform rules, and sinks. A Dataset is an ordered sequence of
// records positionally aligned with a fixed schema; record values are
// scalars (string, float64, bool) or nil for null.
package dataset

// Record is one row of a dataset. Values are positionally aligned with the
// dataset's schema columns; nil represents null.
type Record []interface{}

// Clone returns a copy of the record
func (r Record) Clone() Record {
	out := make(Record, len(r))
	copy(out, r)
	return out
}

// Dataset is an ordered sequence of schema-conforming records.
type Dataset struct {
	Name    string
	Schema  Schema
	Records []Record
}

// New creates an empty dataset with the given schema
func New(name string, schema Schema) *Dataset {
	return &Dataset{Name: name, Schema: schema}
}

// Append adds a record to the dataset
func (d *Dataset) Append(rec Record) {
	d.Records = append(d.Records, rec)
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.Records)
}

// Value returns the value of the named column in the given record
func (d *Dataset) Value(rec Record, column string) (interface{}, bool) {
	idx, ok := d.Schema.Index(column)
	if !ok || idx >= len(rec) {
		return nil, false
	}
	return rec[idx], true
}
