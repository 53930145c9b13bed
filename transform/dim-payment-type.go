package transform

import (
	c "github.com/relloyd/starpipe/constants"
	"github.com/relloyd/starpipe/table"
	td "github.com/relloyd/starpipe/table-definition"
)

var paymentTypeContract = td.Contract{
	Name:    c.TablePaymentType,
	Columns: []string{"payment_type_id", "payment_type_name"},
}

var dimPaymentTypeMapping = Fields(
	Copy("payment_type_id", "payment_type_id"),
	Copy("payment_type_name", "payment_type_name"),
)

func DimPaymentType(paymentType *table.Dataset) (*table.Dataset, error) {
	if err := td.Validate(paymentType, paymentTypeContract); err != nil {
		return nil, err
	}
	return dimPaymentTypeMapping.Apply(paymentType)
}
