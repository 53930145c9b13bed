package transform

import (
	"github.com/relloyd/starpipe/table"
)

// ReferencedBy keeps only the rows of dim whose dimKey value appears in column factKey of fact.
// Use it to restrict a dimension to the members referenced by the driving fact table.
func ReferencedBy(dim *table.Dataset, dimKey string, fact *table.Dataset, factKey string) (*table.Dataset, error) {
	keys, err := fact.Column(factKey)
	if err != nil {
		return nil, err
	}
	if !dim.HasColumn(dimKey) {
		_, err := dim.Column(dimKey)
		return nil, err
	}
	seen := make(map[interface{}]bool, len(keys))
	for _, k := range keys {
		if n := table.NormaliseKey(k); n != nil {
			seen[n] = true
		}
	}
	return dim.Filter(func(row int) bool {
		return seen[table.NormaliseKey(dim.Value(row, dimKey))]
	}), nil
}
