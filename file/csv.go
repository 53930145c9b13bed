package file

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/starpipe/helper"
	"github.com/relloyd/starpipe/table"
)

// ReadCSV reads a CSV document with a header row into a Dataset.
// The type of each column is inferred from all of its values: int64, then float64, then bool, else string.
// Empty fields become nil.
func ReadCSV(r io.Reader) (*table.Dataset, error) {
	c := csv.NewReader(r)
	c.ReuseRecord = false
	header, err := c.Read()
	if err == io.EOF {
		return table.MustNew(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "error reading CSV header")
	}
	raw := make([][]string, len(header))
	for {
		rec, err := c.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "error reading CSV record")
		}
		for idx := range header {
			raw[idx] = append(raw[idx], rec[idx])
		}
	}
	cols := make([]table.Column, len(header))
	for idx, name := range header {
		cols[idx] = table.Column{Name: name, Values: inferColumn(raw[idx])}
	}
	ds, err := table.New(cols...)
	return ds, errors.Wrap(err, "error building dataset from CSV")
}

// WriteCSV writes ds as CSV with a header row. Nil values are written as empty fields.
func WriteCSV(w io.Writer, ds *table.Dataset) error {
	c := csv.NewWriter(w)
	names := ds.Columns()
	if err := c.Write(names); err != nil {
		return errors.Wrap(err, "error writing CSV header")
	}
	rec := make([]string, len(names))
	for i := 0; i < ds.Len(); i++ {
		for idx, name := range names {
			s, err := helper.GetStringFromInterface(ds.Value(i, name))
			if err != nil {
				return errors.Wrapf(err, "error writing CSV column %v", name)
			}
			rec[idx] = s
		}
		if err := c.Write(rec); err != nil {
			return errors.Wrap(err, "error writing CSV record")
		}
	}
	c.Flush()
	return c.Error()
}

type parseFunc func(s string) (interface{}, bool)

// parsers are tried in order; the first that accepts every non-empty value of a column wins.
var parsers = []parseFunc{
	func(s string) (interface{}, bool) {
		v, err := strconv.ParseInt(s, 10, 64)
		return v, err == nil
	},
	func(s string) (interface{}, bool) {
		v, err := strconv.ParseFloat(s, 64)
		return v, err == nil
	},
	func(s string) (interface{}, bool) {
		switch s {
		case "True", "true", "TRUE":
			return true, true
		case "False", "false", "FALSE":
			return false, true
		}
		return nil, false
	},
}

func inferColumn(raw []string) []interface{} {
	values := make([]interface{}, len(raw))
	for _, parse := range parsers {
		ok := true
		for idx, s := range raw {
			if strings.TrimSpace(s) == "" {
				values[idx] = nil
				continue
			}
			if values[idx], ok = parse(strings.TrimSpace(s)); !ok {
				break
			}
		}
		if ok {
			return values
		}
	}
	for idx, s := range raw {
		if s == "" {
			values[idx] = nil
		} else {
			values[idx] = s
		}
	}
	return values
}
