package table

import (
	"fmt"
	"math"
)

// Builder appends rows in a fixed column order and produces a Dataset.
type Builder struct {
	names  []string
	values [][]interface{}
}

// NewBuilder returns a Builder for the supplied column names.
func NewBuilder(names ...string) *Builder {
	b := &Builder{names: make([]string, len(names)), values: make([][]interface{}, len(names))}
	copy(b.names, names)
	for idx := range b.values {
		b.values[idx] = make([]interface{}, 0)
	}
	return b
}

// Append adds a row. The number of values must match the number of columns.
func (b *Builder) Append(values ...interface{}) error {
	if len(values) != len(b.names) {
		return fmt.Errorf("row has %v values; expected %v", len(values), len(b.names))
	}
	for idx, v := range values {
		b.values[idx] = append(b.values[idx], v)
	}
	return nil
}

// Len returns the number of rows appended so far.
func (b *Builder) Len() int {
	if len(b.values) == 0 {
		return 0
	}
	return len(b.values[0])
}

// Build returns the Dataset. Calling Append after Build does not affect the returned Dataset.
func (b *Builder) Build() (*Dataset, error) {
	cols := make([]Column, len(b.names))
	for idx, name := range b.names {
		values := make([]interface{}, len(b.values[idx]))
		copy(values, b.values[idx])
		cols[idx] = Column{Name: name, Values: values}
	}
	return New(cols...)
}

// Lookup indexes the rows of a dataset by the value of a key column.
// When a key repeats, the first row wins so joins never duplicate driving rows.
type Lookup struct {
	ds   *Dataset
	rows map[interface{}]int
}

// NewLookup builds a Lookup on column key of ds.
func NewLookup(ds *Dataset, key string) (*Lookup, error) {
	values, err := ds.Column(key)
	if err != nil {
		return nil, err
	}
	l := &Lookup{ds: ds, rows: make(map[interface{}]int, len(values))}
	for idx, v := range values {
		k := NormaliseKey(v)
		if k == nil {
			continue
		}
		if _, ok := l.rows[k]; !ok {
			l.rows[k] = idx
		}
	}
	return l, nil
}

// Get returns the value of column name for the row matching key.
// It returns nil if there is no match.
func (l *Lookup) Get(key interface{}, name string) interface{} {
	k := NormaliseKey(key)
	if k == nil {
		return nil
	}
	idx, ok := l.rows[k]
	if !ok {
		return nil
	}
	return l.ds.Value(idx, name)
}

// Contains returns true if key matches a row.
func (l *Lookup) Contains(key interface{}) bool {
	k := NormaliseKey(key)
	if k == nil {
		return false
	}
	_, ok := l.rows[k]
	return ok
}

// NormaliseKey converts whole float64 values to int64 so that keys compare equal across numeric types.
// Other values are returned unchanged.
func NormaliseKey(v interface{}) interface{} {
	switch x := v.(type) {
	case float64:
		if !math.IsNaN(x) && x == math.Trunc(x) && math.Abs(x) < math.MaxInt64 {
			return int64(x)
		}
		return x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	default:
		return v
	}
}
