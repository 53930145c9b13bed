package transform

import (
	c "github.com/relloyd/starpipe/constants"
	"github.com/relloyd/starpipe/table"
	td "github.com/relloyd/starpipe/table-definition"
)

var transactionContract = td.Contract{
	Name:    c.TableTransaction,
	Columns: []string{"transaction_id", "transaction_type", "sales_order_id", "purchase_order_id"},
}

var dimTransactionMapping = Fields(
	Copy("transaction_id", "transaction_id"),
	Copy("transaction_type", "transaction_type"),
	Copy("sales_order_id", "sales_order_id"),
	Copy("purchase_order_id", "purchase_order_id"),
)

func DimTransaction(transaction *table.Dataset) (*table.Dataset, error) {
	if err := td.Validate(transaction, transactionContract); err != nil {
		return nil, err
	}
	return dimTransactionMapping.Apply(transaction)
}
