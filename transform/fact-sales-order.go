package transform

import (
	c "github.com/relloyd/starpipe/constants"
	"github.com/relloyd/starpipe/table"
	td "github.com/relloyd/starpipe/table-definition"
)

var salesOrderContract = td.Contract{
	Name: c.TableSalesOrder,
	Columns: []string{
		"sales_order_id",
		"created_at",
		"last_updated",
		"staff_id",
		"counterparty_id",
		"units_sold",
		"unit_price",
		"currency_id",
		"design_id",
		"agreed_payment_date",
		"agreed_delivery_date",
		"agreed_delivery_location_id",
	},
}

var factSalesOrderMapping = Fields(
	Copy("sales_order_id", "sales_order_id"),
	Timestamp("created", "created_at"),
	Timestamp("last_updated", "last_updated"),
	Copy("sales_staff_id", "staff_id"),
	Copy("counterparty_id", "counterparty_id"),
	Copy("units_sold", "units_sold"),
	Number("unit_price", "unit_price", 2),
	Copy("currency_id", "currency_id"),
	Copy("design_id", "design_id"),
	Date("agreed_payment_date", "agreed_payment_date"),
	Date("agreed_delivery_date", "agreed_delivery_date"),
	Copy("agreed_delivery_location_id", "agreed_delivery_location_id"),
)

// FactSalesOrder reshapes raw sales orders into fact_sales_order.
func FactSalesOrder(salesOrder *table.Dataset) (*table.Dataset, error) {
	if err := td.Validate(salesOrder, salesOrderContract); err != nil {
		return nil, err
	}
	return factSalesOrderMapping.Apply(salesOrder)
}
