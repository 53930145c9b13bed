package dependency

import (
	"sort"
	"strings"

	c "github.com/relloyd/starpipe/constants"
)

// Graph maps each star table to the source tables it is built from.
// A Graph is read-only: accessors return copies.
type Graph struct {
	deps map[string][]string
}

var defaultDependencies = map[string][]string{
	c.FactSalesOrder:    {c.TableSalesOrder},
	c.FactPurchaseOrder: {c.TablePurchaseOrder},
	c.FactPayment:       {c.TablePayment},
	c.DimStaff:          {c.TableStaff, c.TableDepartment},
	c.DimCounterparty:   {c.TableCounterparty, c.TableAddress},
	c.DimCurrency:       {c.TableCurrency},
	c.DimDate:           {c.TableDate},
	c.DimDesign:         {c.TableDesign},
	c.DimLocation:       {c.TableAddress},
	c.DimPaymentType:    {c.TablePaymentType},
	c.DimTransaction:    {c.TableTransaction},
}

// Default returns the dependency graph of the warehouse.
func Default() Graph {
	return New(defaultDependencies)
}

// New returns a Graph holding a copy of deps.
func New(deps map[string][]string) Graph {
	g := Graph{deps: make(map[string][]string, len(deps))}
	for k, v := range deps {
		d := make([]string, len(v))
		copy(d, v)
		g.deps[k] = d
	}
	return g
}

// StarTables returns the star table names, sorted.
func (g Graph) StarTables() []string {
	names := make([]string, 0, len(g.deps))
	for k := range g.deps {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Dependencies returns the source tables of star table t, or nil if t is unknown.
func (g Graph) Dependencies(t string) []string {
	d, ok := g.deps[t]
	if !ok {
		return nil
	}
	out := make([]string, len(d))
	copy(out, d)
	return out
}

// SourceTables returns every source table referenced by the graph, deduplicated and sorted.
func (g Graph) SourceTables() []string {
	seen := make(map[string]bool)
	for _, d := range g.deps {
		for _, s := range d {
			seen[s] = true
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// IsFact returns true for fact tables, which are appended on load rather than replaced.
func IsFact(t string) bool {
	return strings.HasPrefix(t, "fact_")
}
