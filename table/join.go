package table

import (
	"fmt"
)

// LeftJoin returns a new Dataset containing every row of left, in order, plus the named columns of right
// taken from the first row of right whose rightKey matches the row's leftKey.
// Rows without a match get nil in the joined columns. No rows are dropped or duplicated.
func LeftJoin(left *Dataset, right *Dataset, leftKey string, rightKey string, columns ...string) (*Dataset, error) {
	keys, err := left.Column(leftKey)
	if err != nil {
		return nil, err
	}
	lookup, err := NewLookup(right, rightKey)
	if err != nil {
		return nil, err
	}
	cols := make([]Column, 0, len(left.columns)+len(columns))
	for _, c := range left.columns {
		values := make([]interface{}, len(c.Values))
		copy(values, c.Values)
		cols = append(cols, Column{Name: c.Name, Values: values})
	}
	for _, name := range columns {
		if left.HasColumn(name) {
			return nil, fmt.Errorf("joined column %q already exists in the left dataset", name)
		}
		if !right.HasColumn(name) {
			return nil, fmt.Errorf("joined column %q not found in the right dataset", name)
		}
		values := make([]interface{}, len(keys))
		for idx, k := range keys {
			values[idx] = lookup.Get(k, name)
		}
		cols = append(cols, Column{Name: name, Values: values})
	}
	return New(cols...)
}

// Filter returns a new Dataset containing only the rows for which keep returns true.
func (d *Dataset) Filter(keep func(row int) bool) *Dataset {
	rows := make([]int, 0, d.numRows)
	for i := 0; i < d.numRows; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	cols := make([]Column, len(d.columns))
	for idx, c := range d.columns {
		values := make([]interface{}, len(rows))
		for j, r := range rows {
			values[j] = c.Values[r]
		}
		cols[idx] = Column{Name: c.Name, Values: values}
	}
	out, _ := New(cols...) // lengths are equal by construction.
	return out
}

// Select returns a new Dataset with only the named columns in the order given.
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		values, err := d.Column(name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, Column{Name: name, Values: values})
	}
	return New(cols...)
}
