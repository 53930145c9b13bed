package transform

import (
	"fmt"
	"sort"

	c "github.com/relloyd/starpipe/constants"
	"github.com/relloyd/starpipe/table"
)

// Inputs holds raw datasets keyed by source table name.
type Inputs map[string]*table.Dataset

// Options carries the reference data some transforms need besides their raw inputs.
type Options struct {
	CurrencyNames map[string]string // currency code (lower case) to name.
	DateStart     string            // first day of dim_date, YYYY-MM-DD.
	DateEnd       string            // last day of dim_date, YYYY-MM-DD.
}

// Func produces a star table from raw inputs.
type Func func(in Inputs, opts Options) (*table.Dataset, error)

// Reference describes how a dimension can be restricted to the members used by a fact table.
type Reference struct {
	DimKey  string
	Fact    string
	FactKey string
}

var transformFuncs = map[string]Func{
	c.FactSalesOrder: func(in Inputs, _ Options) (*table.Dataset, error) {
		return FactSalesOrder(in[c.TableSalesOrder])
	},
	c.FactPurchaseOrder: func(in Inputs, _ Options) (*table.Dataset, error) {
		return FactPurchaseOrder(in[c.TablePurchaseOrder])
	},
	c.FactPayment: func(in Inputs, _ Options) (*table.Dataset, error) {
		return FactPayment(in[c.TablePayment])
	},
	c.DimStaff: func(in Inputs, _ Options) (*table.Dataset, error) {
		return DimStaff(in[c.TableStaff], in[c.TableDepartment])
	},
	c.DimCounterparty: func(in Inputs, _ Options) (*table.Dataset, error) {
		return DimCounterparty(in[c.TableCounterparty], in[c.TableAddress])
	},
	c.DimCurrency: func(in Inputs, opts Options) (*table.Dataset, error) {
		return DimCurrency(in[c.TableCurrency], opts.CurrencyNames)
	},
	c.DimDate: func(_ Inputs, opts Options) (*table.Dataset, error) {
		return DimDate(opts.DateStart, opts.DateEnd)
	},
	c.DimDesign: func(in Inputs, _ Options) (*table.Dataset, error) {
		return DimDesign(in[c.TableDesign])
	},
	c.DimLocation: func(in Inputs, _ Options) (*table.Dataset, error) {
		return DimLocation(in[c.TableAddress])
	},
	c.DimPaymentType: func(in Inputs, _ Options) (*table.Dataset, error) {
		return DimPaymentType(in[c.TablePaymentType])
	},
	c.DimTransaction: func(in Inputs, _ Options) (*table.Dataset, error) {
		return DimTransaction(in[c.TableTransaction])
	},
}

// References lists the dimensions that may be restricted to the rows referenced by fact_sales_order.
var References = map[string]Reference{
	c.DimStaff:        {DimKey: "staff_id", Fact: c.FactSalesOrder, FactKey: "sales_staff_id"},
	c.DimCounterparty: {DimKey: "counterparty_id", Fact: c.FactSalesOrder, FactKey: "counterparty_id"},
	c.DimLocation:     {DimKey: "location_id", Fact: c.FactSalesOrder, FactKey: "agreed_delivery_location_id"},
}

// Registered returns the transform for the star table name.
func Registered(name string) (Func, error) {
	f, ok := transformFuncs[name]
	if !ok {
		return nil, fmt.Errorf("no transform registered for table %q", name)
	}
	return f, nil
}

// Names returns the registered star table names, sorted.
func Names() []string {
	names := make([]string, 0, len(transformFuncs))
	for k := range transformFuncs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
