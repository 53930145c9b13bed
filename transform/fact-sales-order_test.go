package transform

import (
	"strings"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/relloyd/starpipe/table"
	td "github.com/relloyd/starpipe/table-definition"
)

func salesOrderFixture() *table.Dataset {
	return table.MustNew(
		table.Column{Name: "sales_order_id", Values: []interface{}{int64(2), int64(3)}},
		table.Column{Name: "created_at", Values: []interface{}{"2022-11-03 14:20:52.186", "garbage"}},
		table.Column{Name: "last_updated", Values: []interface{}{"2022-11-03 14:20:52.186", "2022-11-04 09:00:00"}},
		table.Column{Name: "design_id", Values: []interface{}{int64(3), int64(4)}},
		table.Column{Name: "staff_id", Values: []interface{}{int64(19), int64(10)}},
		table.Column{Name: "counterparty_id", Values: []interface{}{int64(8), int64(4)}},
		table.Column{Name: "units_sold", Values: []interface{}{int64(42972), int64(65839)}},
		table.Column{Name: "unit_price", Values: []interface{}{3.946, "n/a"}},
		table.Column{Name: "currency_id", Values: []interface{}{int64(2), int64(3)}},
		table.Column{Name: "agreed_delivery_date", Values: []interface{}{"2022-11-07", "2022-11-06"}},
		table.Column{Name: "agreed_payment_date", Values: []interface{}{"2022-11-08", "2022-11-07"}},
		table.Column{Name: "agreed_delivery_location_id", Values: []interface{}{int64(8), int64(19)}},
	)
}

func TestFactSalesOrder(t *testing.T) {
	g := NewGomegaWithT(t)
	got, err := FactSalesOrder(salesOrderFixture())
	g.Expect(err).To(BeNil())
	g.Expect(got.Columns()).To(Equal([]string{
		"sales_order_id",
		"created_date",
		"created_time",
		"last_updated_date",
		"last_updated_time",
		"sales_staff_id",
		"counterparty_id",
		"units_sold",
		"unit_price",
		"currency_id",
		"design_id",
		"agreed_payment_date",
		"agreed_delivery_date",
		"agreed_delivery_location_id",
	}))
	g.Expect(got.Len()).To(Equal(2))
	r := got.Row(0)
	g.Expect(r.GetData("created_date")).To(Equal("2022-11-03"))
	g.Expect(r.GetData("created_time")).To(Equal("14:20:52.186"))
	g.Expect(r.GetData("sales_staff_id")).To(Equal(int64(19)))
	g.Expect(r.GetData("unit_price")).To(Equal(3.95))
	g.Expect(r.GetData("agreed_payment_date")).To(Equal("2022-11-08"))
	// A malformed timestamp or price nulls that row's derived values only.
	r = got.Row(1)
	g.Expect(r.GetData("created_date")).To(BeNil())
	g.Expect(r.GetData("created_time")).To(BeNil())
	g.Expect(r.GetData("last_updated_date")).To(Equal("2022-11-04"))
	g.Expect(r.GetData("last_updated_time")).To(Equal("09:00:00"))
	g.Expect(r.GetData("unit_price")).To(BeNil())
}

func TestFactSalesOrderIsDeterministic(t *testing.T) {
	g := NewGomegaWithT(t)
	in := salesOrderFixture()
	a, err := FactSalesOrder(in)
	g.Expect(err).To(BeNil())
	b, err := FactSalesOrder(in)
	g.Expect(err).To(BeNil())
	g.Expect(a.Equal(b)).To(BeTrue())
}

func TestFactSalesOrderErrors(t *testing.T) {
	g := NewGomegaWithT(t)
	// Test 1 - empty input.
	empty := table.MustNew(table.Column{Name: "sales_order_id", Values: []interface{}{}})
	got, err := FactSalesOrder(empty)
	g.Expect(got).To(BeNil())
	g.Expect(td.IsEmptyInput(err)).To(BeTrue())
	// Test 2 - missing columns are named in the error.
	partial := table.MustNew(
		table.Column{Name: "sales_order_id", Values: []interface{}{int64(1)}},
		table.Column{Name: "created_at", Values: []interface{}{"2022-11-03 14:20:52.186"}},
	)
	got, err = FactSalesOrder(partial)
	g.Expect(got).To(BeNil())
	g.Expect(td.IsMissingColumns(err)).To(BeTrue())
	g.Expect(err.Error()).To(ContainSubstring("last_updated, staff_id"))
	g.Expect(strings.Contains(err.Error(), "agreed_delivery_location_id")).To(BeTrue())
}
