package transform

import (
	"testing"

	. "github.com/onsi/gomega"
	"github.com/relloyd/starpipe/table"
	td "github.com/relloyd/starpipe/table-definition"
)

var currencyNames = map[string]string{
	"gbp": "British Pound",
	"usd": "US Dollar",
	"eur": "Euro",
}

func TestDimCurrency(t *testing.T) {
	g := NewGomegaWithT(t)
	in := table.MustNew(
		table.Column{Name: "currency_id", Values: []interface{}{int64(1), int64(2), int64(3)}},
		table.Column{Name: "currency_code", Values: []interface{}{"GBP", "USD", "eur"}},
		table.Column{Name: "created_at", Values: []interface{}{nil, nil, nil}},
	)
	got, err := DimCurrency(in, currencyNames)
	g.Expect(err).To(BeNil())
	expected := table.MustNew(
		table.Column{Name: "currency_id", Values: []interface{}{int64(1), int64(2), int64(3)}},
		table.Column{Name: "currency_code", Values: []interface{}{"GBP", "USD", "eur"}},
		table.Column{Name: "currency_name", Values: []interface{}{"British Pound", "US Dollar", "Euro"}},
	)
	g.Expect(got.Equal(expected)).To(BeTrue(), "got %v", got)
}

func TestDimCurrencyLookupMiss(t *testing.T) {
	g := NewGomegaWithT(t)
	in := table.MustNew(
		table.Column{Name: "currency_id", Values: []interface{}{int64(1), int64(4)}},
		table.Column{Name: "currency_code", Values: []interface{}{"GBP", "XXX"}},
	)
	got, err := DimCurrency(in, currencyNames)
	g.Expect(got).To(BeNil())
	g.Expect(IsLookupMiss(err)).To(BeTrue())
	g.Expect(err.Error()).To(ContainSubstring("XXX"))
	_, err = DimCurrency(table.MustNew(table.Column{Name: "currency_id", Values: []interface{}{int64(1)}}), currencyNames)
	g.Expect(td.IsMissingColumns(err)).To(BeTrue())
}
