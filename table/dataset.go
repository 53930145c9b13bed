package table

import (
	"fmt"
	"reflect"
	"strings"

	om "github.com/cevaris/ordered_map"
	"github.com/pkg/errors"
)

// Column is a named, ordered slice of scalar values.
// Values are nil, string, int64, float64, bool or time.Time.
type Column struct {
	Name   string
	Values []interface{}
}

// Dataset is a columnar table: ordered named columns of equal length.
// Datasets are treated as immutable once built; operations return new Datasets.
type Dataset struct {
	columns []Column
	index   map[string]int // column name to position in columns.
	numRows int
}

// New creates a Dataset from the supplied columns.
// It returns an error if a column name repeats or the column lengths differ.
func New(columns ...Column) (*Dataset, error) {
	d := &Dataset{
		columns: make([]Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for idx, c := range columns {
		if _, ok := d.index[c.Name]; ok {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		if idx == 0 {
			d.numRows = len(c.Values)
		} else if len(c.Values) != d.numRows {
			return nil, fmt.Errorf("column %q has %v values; expected %v", c.Name, len(c.Values), d.numRows)
		}
		d.index[c.Name] = idx
		d.columns = append(d.columns, c)
	}
	return d, nil
}

// MustNew is New that panics on error, for use with literal test data.
func MustNew(columns ...Column) *Dataset {
	d, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return d
}

// FromOrderedMap builds a Dataset using the keys of m as column names and the values, which must
// be of type []interface{}, as column values.
func FromOrderedMap(m *om.OrderedMap) (*Dataset, error) {
	cols := make([]Column, 0, m.Len())
	iter := m.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		name, isString := kv.Key.(string)
		if !isString {
			return nil, fmt.Errorf("unexpected column name type %T", kv.Key)
		}
		values, isSlice := kv.Value.([]interface{})
		if !isSlice {
			return nil, fmt.Errorf("unexpected values type %T for column %q", kv.Value, name)
		}
		cols = append(cols, Column{Name: name, Values: values})
	}
	return New(cols...)
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return d.numRows
}

// Columns returns the column names in order.
func (d *Dataset) Columns() []string {
	if d == nil {
		return nil
	}
	names := make([]string, len(d.columns))
	for idx, c := range d.columns {
		names[idx] = c.Name
	}
	return names
}

// HasColumn returns true if name is a column of the dataset (case-sensitive).
func (d *Dataset) HasColumn(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.index[name]
	return ok
}

// Column returns a copy of the values of the named column.
func (d *Dataset) Column(name string) ([]interface{}, error) {
	if d == nil {
		return nil, errors.New("nil dataset")
	}
	idx, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	values := make([]interface{}, d.numRows)
	copy(values, d.columns[idx].Values)
	return values, nil
}

// Value returns the value at row i of the named column.
// It panics if the column does not exist or i is out of range, like an index expression.
func (d *Dataset) Value(i int, name string) interface{} {
	idx, ok := d.index[name]
	if !ok {
		panic(fmt.Sprintf("column %q not found in dataset", name))
	}
	return d.columns[idx].Values[i]
}

// Row returns row i as a Record.
func (d *Dataset) Row(i int) Record {
	r := NewRecord()
	for _, c := range d.columns {
		r.SetData(c.Name, c.Values[i])
	}
	return r
}

// Equal returns true if both datasets have the same column names in the same order and equal values.
func (d *Dataset) Equal(other *Dataset) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.numRows != other.numRows || len(d.columns) != len(other.columns) {
		return false
	}
	for idx, c := range d.columns {
		o := other.columns[idx]
		if c.Name != o.Name || !reflect.DeepEqual(c.Values, o.Values) {
			return false
		}
	}
	return true
}

// NullCounts returns an ordered map of column name to the number of nil values in the column.
func (d *Dataset) NullCounts() *om.OrderedMap {
	m := om.NewOrderedMap()
	if d == nil {
		return m
	}
	for _, c := range d.columns {
		n := 0
		for _, v := range c.Values {
			if v == nil {
				n++
			}
		}
		m.Set(c.Name, n)
	}
	return m
}

// String renders the dataset header and row count for log output.
func (d *Dataset) String() string {
	return fmt.Sprintf("dataset[%v rows](%v)", d.Len(), strings.Join(d.Columns(), ","))
}
