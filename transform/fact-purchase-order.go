package transform

import (
	c "github.com/relloyd/starpipe/constants"
	"github.com/relloyd/starpipe/table"
	td "github.com/relloyd/starpipe/table-definition"
)

var purchaseOrderContract = td.Contract{
	Name: c.TablePurchaseOrder,
	Columns: []string{
		"purchase_order_id",
		"created_at",
		"last_updated",
		"staff_id",
		"counterparty_id",
		"item_code",
		"item_quantity",
		"item_unit_price",
		"currency_id",
		"agreed_delivery_date",
		"agreed_payment_date",
		"agreed_delivery_location_id",
	},
}

var factPurchaseOrderMapping = Fields(
	Copy("purchase_order_id", "purchase_order_id"),
	Timestamp("created", "created_at"),
	Timestamp("last_updated", "last_updated"),
	Copy("staff_id", "staff_id"),
	Copy("counterparty_id", "counterparty_id"),
	Copy("item_code", "item_code"),
	Copy("item_quantity", "item_quantity"),
	Number("item_unit_price", "item_unit_price", -1),
	Copy("currency_id", "currency_id"),
	Date("agreed_delivery_date", "agreed_delivery_date"),
	Date("agreed_payment_date", "agreed_payment_date"),
	Copy("agreed_delivery_location_id", "agreed_delivery_location_id"),
)

// FactPurchaseOrder reshapes raw purchase orders into fact_purchase_order.
func FactPurchaseOrder(purchaseOrder *table.Dataset) (*table.Dataset, error) {
	if err := td.Validate(purchaseOrder, purchaseOrderContract); err != nil {
		return nil, err
	}
	return factPurchaseOrderMapping.Apply(purchaseOrder)
}
