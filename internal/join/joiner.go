package join

import (
	"datajoin/internal/dataset"
)

// Joiner joins a left dataset against an index of the right dataset.
// The zero value is not usable; construct with New. A Joiner is read-only
// after construction, so JoinRange may be called concurrently over disjoint
// ranges.
type Joiner struct {
	left, right *dataset.Dataset
	key         Key
	mode        Mode
	index       *Index

	schema       dataset.Schema
	leftKeyCols  []int
	rightKeyCols []int
	rightValCols []int
}

// New validates the key against both datasets, builds the right-side index,
// and computes the joined schema.
func New(left, right *dataset.Dataset, key Key, mode Mode) (*Joiner, error) {
	if err := ValidateKey(key, left.Name, left.Schema, right.Name, right.Schema); err != nil {
		return nil, err
	}
	schema, err := OutputSchema(left.Schema, right.Schema, key)
	if err != nil {
		return nil, err
	}
	index, err := BuildIndex(right, key)
	if err != nil {
		return nil, err
	}

	j := &Joiner{
		left:   left,
		right:  right,
		key:    key,
		mode:   mode,
		index:  index,
		schema: schema,
	}
	keySet := make(map[string]bool, len(key))
	for _, k := range key {
		keySet[k] = true
		li, _ := left.Schema.Index(k)
		ri, _ := right.Schema.Index(k)
		j.leftKeyCols = append(j.leftKeyCols, li)
		j.rightKeyCols = append(j.rightKeyCols, ri)
	}
	for i, c := range right.Schema.Columns {
		if !keySet[c.Name] {
			j.rightValCols = append(j.rightValCols, i)
		}
	}
	return j, nil
}

// Schema returns the joined schema
func (j *Joiner) Schema() dataset.Schema {
	return j.schema
}

// Mode returns the join mode
func (j *Joiner) Mode() Mode {
	return j.mode
}

// RightLen returns the number of right records
func (j *Joiner) RightLen() int {
	return j.right.Len()
}

// JoinRange joins left records in [lo, hi) and returns the joined records
// plus the right-record positions that matched. Emission order follows the
// tie-break contract: left input order, then right input order per match.
func (j *Joiner) JoinRange(lo, hi int) ([]dataset.Record, []int) {
	var out []dataset.Record
	var matched []int
	for li := lo; li < hi; li++ {
		lrec := j.left.Records[li]
		var positions []int
		if ks, ok := keyString(lrec, j.leftKeyCols); ok {
			positions = j.index.Lookup(ks)
		}
		if len(positions) == 0 {
			if j.mode == LeftOuter || j.mode == FullOuter {
				out = append(out, j.combine(lrec, nil))
			}
			continue
		}
		for _, ri := range positions {
			out = append(out, j.combine(lrec, j.right.Records[ri]))
			matched = append(matched, ri)
		}
	}
	return out, matched
}

// Tail returns the full-outer right-unmatched records in right input order,
// with left columns null-filled except the key columns, which carry the
// right record's key values. matchedRight is indexed by right position.
func (j *Joiner) Tail(matchedRight []bool) []dataset.Record {
	if j.mode != FullOuter {
		return nil
	}
	var out []dataset.Record
	for ri, rrec := range j.right.Records {
		if matchedRight[ri] {
			continue
		}
		rec := make(dataset.Record, len(j.schema.Columns))
		for i, li := range j.leftKeyCols {
			rec[li] = rrec[j.rightKeyCols[i]]
		}
		base := len(j.left.Schema.Columns)
		for i, ri2 := range j.rightValCols {
			rec[base+i] = rrec[ri2]
		}
		out = append(out, rec)
	}
	return out
}

// combine builds one joined record from a left record and an optional
// right match (nil right means null-filled right columns).
func (j *Joiner) combine(lrec, rrec dataset.Record) dataset.Record {
	rec := make(dataset.Record, len(j.schema.Columns))
	copy(rec, lrec)
	if rrec != nil {
		base := len(j.left.Schema.Columns)
		for i, ri := range j.rightValCols {
			rec[base+i] = rrec[ri]
		}
	}
	return rec
}
