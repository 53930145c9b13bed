package transform

import (
	c "github.com/relloyd/starpipe/constants"
	"github.com/relloyd/starpipe/table"
	td "github.com/relloyd/starpipe/table-definition"
)

var counterpartyContract = td.Contract{
	Name:    c.TableCounterparty,
	Columns: []string{"counterparty_id", "counterparty_legal_name", "legal_address_id"},
}

var addressContract = td.Contract{
	Name: c.TableAddress,
	Columns: []string{
		"address_id",
		"address_line_1",
		"address_line_2",
		"district",
		"city",
		"postal_code",
		"country",
		"phone",
		"created_at",
		"last_updated",
	},
}

var dimCounterpartyMapping = Fields(
	Copy("counterparty_id", "counterparty_id"),
	Copy("counterparty_legal_name", "counterparty_legal_name"),
	Copy("counterparty_legal_address_line_1", "address_line_1"),
	Copy("counterparty_legal_address_line_2", "address_line_2"),
	Copy("counterparty_legal_district", "district"),
	Copy("counterparty_legal_city", "city"),
	Copy("counterparty_legal_postal_code", "postal_code"),
	Copy("counterparty_legal_country", "country"),
	Copy("counterparty_legal_phone_number", "phone"),
)

// DimCounterparty joins each counterparty to its legal address.
func DimCounterparty(counterparty *table.Dataset, address *table.Dataset) (*table.Dataset, error) {
	err := td.ValidateAll(
		td.Input{Dataset: counterparty, Contract: counterpartyContract},
		td.Input{Dataset: address, Contract: addressContract},
	)
	if err != nil {
		return nil, err
	}
	joined, err := table.LeftJoin(counterparty, address, "legal_address_id", "address_id",
		"address_line_1", "address_line_2", "district", "city", "postal_code", "country", "phone")
	if err != nil {
		return nil, err
	}
	return dimCounterpartyMapping.Apply(joined)
}
