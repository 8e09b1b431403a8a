// Package join implements equality joins between two datasets on a shared
// key column set. Output ordering is deterministic: for each left record in
// input order, its matches are emitted in right input order; for full-outer
// joins, unmatched right records follow in right input order.
package join

import (
	"fmt"
	"strconv"
	"strings"

	"datajoin/internal/common/errors"
	"datajoin/internal/dataset"
)

// Key is an ordered, non-empty set of column names shared by both datasets
type Key []string

// Mode is the join cardinality policy
type Mode string

const (
	// Inner emits only matched pairs
	Inner Mode = "inner"
	// LeftOuter emits matched pairs plus unmatched left records with right
	// columns null-filled
	LeftOuter Mode = "left-outer"
	// FullOuter is LeftOuter plus unmatched right records with left columns
	// null-filled, appended in right input order
	FullOuter Mode = "full-outer"
)

// ParseMode converts a string to a join Mode
func ParseMode(s string) (Mode, error) {
	switch s {
	case string(Inner):
		return Inner, nil
	case string(LeftOuter), "left", "left_outer":
		return LeftOuter, nil
	case string(FullOuter), "full", "full_outer", "outer":
		return FullOuter, nil
	default:
		return "", errors.NewConfigError("join.mode", fmt.Sprintf("unknown join mode %q", s))
	}
}

// ValidateKey checks that every key column exists in both schemas. It is
// called before any record is loaded so a misconfigured key fails fast.
func ValidateKey(key Key, leftName string, left dataset.Schema, rightName string, right dataset.Schema) error {
	if len(key) == 0 {
		return errors.NewConfigError("join.key", "join key must name at least one column")
	}
	if missing := left.Missing(key); len(missing) > 0 {
		return errors.NewSchemaError(leftName, missing)
	}
	if missing := right.Missing(key); len(missing) > 0 {
		return errors.NewSchemaError(rightName, missing)
	}
	return nil
}

// OutputSchema is the joined schema: left columns followed by right columns
// minus the key columns. A non-key column present on both sides is a
// configuration error; rename it on one side before joining.
func OutputSchema(left, right dataset.Schema, key Key) (dataset.Schema, error) {
	keySet := make(map[string]bool, len(key))
	for _, k := range key {
		keySet[k] = true
	}
	cols := append([]dataset.Column(nil), left.Columns...)
	for _, c := range right.Columns {
		if keySet[c.Name] {
			continue
		}
		if left.Has(c.Name) {
			return dataset.Schema{}, errors.NewConfigError("join",
				fmt.Sprintf("column '%s' exists on both sides; rename one side before joining", c.Name))
		}
		cols = append(cols, c)
	}
	return dataset.NewSchema(cols...), nil
}

// keyString encodes a record's key tuple for index lookup. Each value is
// tagged with its type and length-prefixed so distinct tuples never collide.
// A null in any key column yields ok=false: nulls match nothing.
func keyString(rec dataset.Record, cols []int) (string, bool) {
	var b strings.Builder
	for _, i := range cols {
		v := rec[i]
		if v == nil {
			return "", false
		}
		s := dataset.Format(v)
		switch v.(type) {
		case string:
			b.WriteByte('s')
		case float64:
			b.WriteByte('n')
		case bool:
			b.WriteByte('b')
		default:
			b.WriteByte('?')
		}
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	return b.String(), true
}

// Index maps key tuples to right-record positions in right input order.
type Index struct {
	buckets map[string][]int
}

// BuildIndex indexes the right dataset by the key columns
func BuildIndex(right *dataset.Dataset, key Key) (*Index, error) {
	cols := make([]int, len(key))
	for i, k := range key {
		idx, ok := right.Schema.Index(k)
		if !ok {
			return nil, errors.NewSchemaError(right.Name, []string{k})
		}
		cols[i] = idx
	}
	idx := &Index{buckets: make(map[string][]int)}
	for pos, rec := range right.Records {
		ks, ok := keyString(rec, cols)
		if !ok {
			continue
		}
		idx.buckets[ks] = append(idx.buckets[ks], pos)
	}
	return idx, nil
}

// Lookup returns the right-record positions matching the key string
func (ix *Index) Lookup(ks string) []int {
	return ix.buckets[ks]
}
