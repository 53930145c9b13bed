package transform

import (
	"fmt"
	"strings"

	c "github.com/relloyd/starpipe/constants"
	"github.com/relloyd/starpipe/table"
	td "github.com/relloyd/starpipe/table-definition"
)

var currencyContract = td.Contract{
	Name:    c.TableCurrency,
	Columns: []string{"currency_id", "currency_code"},
}

// DimCurrency adds the full currency name to each currency.
// names is keyed by lower case currency code. A code without a name is a LookupMissError.
func DimCurrency(currency *table.Dataset, names map[string]string) (*table.Dataset, error) {
	if err := td.Validate(currency, currencyContract); err != nil {
		return nil, err
	}
	b := table.NewBuilder("currency_id", "currency_code", "currency_name")
	for i := 0; i < currency.Len(); i++ {
		code := currency.Value(i, "currency_code")
		key := ""
		if code != nil {
			key = strings.ToLower(strings.TrimSpace(fmt.Sprint(code)))
		}
		name, ok := names[key]
		if !ok {
			return nil, &LookupMissError{Lookup: "currency name", Key: fmt.Sprint(code)}
		}
		if err := b.Append(currency.Value(i, "currency_id"), code, name); err != nil {
			return nil, err
		}
	}
	return b.Build()
}
