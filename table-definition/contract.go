package tabledefinition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/relloyd/starpipe/table"
)

// Contract is the list of column names a transform requires from one input dataset.
type Contract struct {
	Name    string   // logical input name used in error messages, e.g. "sales_order".
	Columns []string // required column names; order defines the order of reported missing columns.
}

// EmptyInputError is returned when an input dataset has no rows.
type EmptyInputError struct {
	Input string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("Error: The source dataframe %v is empty", e.Input)
}

// MissingColumnsError is returned when an input dataset does not contain all required columns.
type MissingColumnsError struct {
	Input   string
	Columns []string // missing names in contract order.
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("Error: Missing columns %v from the source dataframe %v", strings.Join(e.Columns, ", "), e.Input)
}

// Validate checks ds against contract c.
// Emptiness is checked first, then every required column must be present by exact name.
// Extra columns are ignored.
func Validate(ds *table.Dataset, c Contract) error {
	if ds.Len() == 0 {
		return &EmptyInputError{Input: c.Name}
	}
	missing := make([]string, 0)
	for _, name := range c.Columns {
		if !ds.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Input: c.Name, Columns: missing}
	}
	return nil
}

// Input pairs a dataset with the contract it must satisfy.
type Input struct {
	Dataset  *table.Dataset
	Contract Contract
}

// ValidateAll checks several inputs of one transform.
// Every input is checked for emptiness before any columns are checked. Missing columns of all inputs are
// reported together in one MissingColumnsError, in input order then contract order.
func ValidateAll(inputs ...Input) error {
	for _, in := range inputs {
		if in.Dataset.Len() == 0 {
			return &EmptyInputError{Input: in.Contract.Name}
		}
	}
	names := make([]string, 0, len(inputs))
	missing := make([]string, 0)
	for _, in := range inputs {
		err := Validate(in.Dataset, in.Contract)
		var mc *MissingColumnsError
		if errors.As(err, &mc) {
			names = append(names, mc.Input)
			missing = append(missing, mc.Columns...)
		} else if err != nil {
			return err
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Input: strings.Join(names, " and "), Columns: missing}
	}
	return nil
}

// IsEmptyInput returns true if err wraps an EmptyInputError.
func IsEmptyInput(err error) bool {
	var e *EmptyInputError
	return errors.As(err, &e)
}

// IsMissingColumns returns true if err wraps a MissingColumnsError.
func IsMissingColumns(err error) bool {
	var e *MissingColumnsError
	return errors.As(err, &e)
}
