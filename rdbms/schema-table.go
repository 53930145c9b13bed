package rdbms

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/relloyd/starpipe/helper"
)

// SchemaTable names a table, optionally qualified by schema, e.g. public.dim_staff.
// Parts already wrapped in double quotes are used as-is.
type SchemaTable struct {
	SchemaTable string `errorTxt:"[<schema>.]<object>" mandatory:"yes"`
}

func NewSchemaTable(schema string, table string) SchemaTable {
	if schema == "" {
		return SchemaTable{table}
	} else {
		return SchemaTable{schema + "." + table}
	}
}

var (
	reQuotedName       = regexp.MustCompile(`^".+"$`)
	reQuotedDottedName = regexp.MustCompile(`^"[^"]+\.[^"]+"$`) // "random.table"
)

func (st *SchemaTable) isQuotedTable() bool {
	return reQuotedDottedName.MatchString(st.SchemaTable)
}

func (st *SchemaTable) GetTable() string {
	if st.isQuotedTable() {
		return st.SchemaTable // return the "random.table"
	}
	_, table := helper.Split(st.SchemaTable, ".")
	if table == "" { // if we have just a table...
		return st.SchemaTable
	}
	return table
}

func (st *SchemaTable) GetSchema() string {
	if st.isQuotedTable() {
		return ""
	}
	schema, table := helper.Split(st.SchemaTable, ".")
	if table == "" { // if we have just a table...
		return ""
	}
	return schema
}

// Quoted returns the schema and table with each part quoted for use in SQL.
func (st *SchemaTable) Quoted() string {
	quote := func(s string) string {
		if reQuotedName.MatchString(s) {
			return s
		}
		return helper.QuoteIdentifier(s)
	}
	if schema := st.GetSchema(); schema != "" {
		return fmt.Sprintf("%v.%v", quote(schema), quote(st.GetTable()))
	}
	return quote(st.GetTable())
}

func (st *SchemaTable) AppendSuffix(suffix string) string {
	schema := st.GetSchema()
	table := st.GetTable()
	sep := "."
	if schema == "" {
		sep = ""
	}
	appendQuote := ""
	if reQuotedName.MatchString(table) { // if the table is quoted...
		appendQuote = `"`
		table = strings.TrimRight(table, `"`) // remove the trailing quote and add it back later.
	}
	return fmt.Sprintf("%v%v%v%v%v", schema, sep, table, suffix, appendQuote)
}

func (st *SchemaTable) String() string {
	return st.SchemaTable
}
