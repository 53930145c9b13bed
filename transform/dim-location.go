package transform

import (
	"github.com/relloyd/starpipe/table"
	td "github.com/relloyd/starpipe/table-definition"
)

var dimLocationMapping = Fields(
	Copy("location_id", "address_id"),
	Copy("address_line_1", "address_line_1"),
	Copy("address_line_2", "address_line_2"),
	Copy("district", "district"),
	Copy("city", "city"),
	Copy("postal_code", "postal_code"),
	Copy("country", "country"),
	Copy("phone", "phone"),
)

// DimLocation renames address_id to location_id and keeps the address fields.
func DimLocation(address *table.Dataset) (*table.Dataset, error) {
	if err := td.Validate(address, addressContract); err != nil {
		return nil, err
	}
	return dimLocationMapping.Apply(address)
}
