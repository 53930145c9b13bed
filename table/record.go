package table

import (
	"fmt"
	"sort"
	"strings"
)

// NewRecord creates an empty Record.
func NewRecord() Record {
	return Record{data: make(map[string]interface{})}
}

// Record is a single row of a Dataset keyed by column name.
type Record struct {
	data map[string]interface{} // raw values, where nil represents a missing value.
}

// SetData will set the field value.
func (r Record) SetData(name string, val interface{}) {
	r.data[name] = val
}

// GetData returns the value of field, name.
// It panics if the field does not exist.
func (r Record) GetData(name string) interface{} {
	v, ok := r.data[name]
	if !ok {
		panic(fmt.Sprintf("missing field %q in record", name))
	}
	return v
}

// GetDataIfExists returns the value of field, name, and whether it was found.
func (r Record) GetDataIfExists(name string) (interface{}, bool) {
	v, ok := r.data[name]
	return v, ok
}

// String returns the record fields sorted by name.
func (r Record) String() string {
	keys := make([]string, 0, len(r.data))
	for k := range r.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b := strings.Builder{}
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(",%v:%v", k, r.data[k]))
	}
	return "{" + strings.TrimLeft(b.String(), ",") + "}"
}
