package transform

import (
	"fmt"

	"github.com/relloyd/starpipe/table"
)

// Rule is the derivation applied to a source column to produce an output column.
type Rule int

const (
	RuleCopy    Rule = iota // value copied unchanged.
	RuleDate                // date component of a combined date-time value.
	RuleTime                // time component of a combined date-time value.
	RuleNumeric             // value coerced to float64 and optionally rounded.
)

func (r Rule) String() string {
	switch r {
	case RuleCopy:
		return "copy"
	case RuleDate:
		return "date"
	case RuleTime:
		return "time"
	case RuleNumeric:
		return "numeric"
	}
	return fmt.Sprintf("rule(%d)", int(r))
}

// Field declares how one output column is derived.
type Field struct {
	Output string
	Source string
	Rule   Rule
	Places int // decimal places for RuleNumeric; negative means no rounding.
}

// Mapping is the ordered list of output columns of a star table.
type Mapping []Field

func Copy(output, source string) Field {
	return Field{Output: output, Source: source, Rule: RuleCopy}
}

func Date(output, source string) Field {
	return Field{Output: output, Source: source, Rule: RuleDate}
}

func Time(output, source string) Field {
	return Field{Output: output, Source: source, Rule: RuleTime}
}

func Number(output, source string, places int) Field {
	return Field{Output: output, Source: source, Rule: RuleNumeric, Places: places}
}

// Timestamp expands a combined date-time source column into <prefix>_date and <prefix>_time.
func Timestamp(prefix, source string) []Field {
	return []Field{Date(prefix+"_date", source), Time(prefix+"_time", source)}
}

// Fields builds a Mapping from fields and slices of fields, preserving order.
func Fields(fields ...interface{}) Mapping {
	m := make(Mapping, 0, len(fields))
	for _, f := range fields {
		switch x := f.(type) {
		case Field:
			m = append(m, x)
		case []Field:
			m = append(m, x...)
		default:
			panic(fmt.Sprintf("unexpected mapping element of type %T", f))
		}
	}
	return m
}

// Columns returns the output column names in order.
func (m Mapping) Columns() []string {
	names := make([]string, len(m))
	for idx, f := range m {
		names[idx] = f.Output
	}
	return names
}

// Apply derives a new Dataset from ds, one output column per Field.
// Values that cannot be coerced become nil; this never fails for row content.
func (m Mapping) Apply(ds *table.Dataset) (*table.Dataset, error) {
	cols := make([]table.Column, 0, len(m))
	for _, f := range m {
		src, err := ds.Column(f.Source)
		if err != nil {
			return nil, fmt.Errorf("unable to derive column %v: %w", f.Output, err)
		}
		values := make([]interface{}, len(src))
		for idx, v := range src {
			values[idx] = f.derive(v)
		}
		cols = append(cols, table.Column{Name: f.Output, Values: values})
	}
	return table.New(cols...)
}

func (f Field) derive(v interface{}) interface{} {
	switch f.Rule {
	case RuleDate:
		return DatePart(v)
	case RuleTime:
		return TimePart(v)
	case RuleNumeric:
		return Numeric(v, f.Places)
	default:
		return v
	}
}
