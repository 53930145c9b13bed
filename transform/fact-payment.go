package transform

import (
	c "github.com/relloyd/starpipe/constants"
	"github.com/relloyd/starpipe/table"
	td "github.com/relloyd/starpipe/table-definition"
)

var paymentContract = td.Contract{
	Name: c.TablePayment,
	Columns: []string{
		"payment_id",
		"created_at",
		"last_updated",
		"transaction_id",
		"counterparty_id",
		"payment_amount",
		"currency_id",
		"payment_type_id",
		"paid",
		"payment_date",
	},
}

var factPaymentMapping = Fields(
	Copy("payment_id", "payment_id"),
	Timestamp("created", "created_at"),
	Timestamp("last_updated", "last_updated"),
	Copy("transaction_id", "transaction_id"),
	Copy("counterparty_id", "counterparty_id"),
	Number("payment_amount", "payment_amount", -1),
	Copy("currency_id", "currency_id"),
	Copy("payment_type_id", "payment_type_id"),
	Copy("paid", "paid"),
	Date("payment_date", "payment_date"),
)

// FactPayment reshapes raw payments into fact_payment.
func FactPayment(payment *table.Dataset) (*table.Dataset, error) {
	if err := td.Validate(payment, paymentContract); err != nil {
		return nil, err
	}
	return factPaymentMapping.Apply(payment)
}
