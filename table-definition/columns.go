package tabledefinition

import (
	"fmt"
	"strings"
	"time"

	"github.com/relloyd/starpipe/table"
)

// Logical data types inferred from dataset values.
const (
	DataTypeInteger   = "int64"
	DataTypeFloat     = "float64"
	DataTypeBoolean   = "bool"
	DataTypeTimestamp = "datetime64"
	DataTypeText      = "object"
)

// TableColumn describes one column of a table to be created in the warehouse.
type TableColumn struct {
	ColName  string
	DataType string // logical data type, one of the DataType constants.
	Nullable bool
	ColID    int
}

// TableColumns is the ordered list of columns of a table.
type TableColumns struct {
	TableName string
	Columns   []TableColumn
}

// InferTableColumns inspects the values of each column of ds to determine its logical data type.
// Columns containing a mix of integers and floats are floats. Any other mix, or a column of only nils, is text.
func InferTableColumns(tableName string, ds *table.Dataset) TableColumns {
	tc := TableColumns{TableName: tableName, Columns: make([]TableColumn, 0)}
	for idx, name := range ds.Columns() {
		values, _ := ds.Column(name)
		tc.Columns = append(tc.Columns, TableColumn{
			ColName:  name,
			DataType: inferDataType(values),
			Nullable: true,
			ColID:    idx + 1,
		})
	}
	return tc
}

func inferDataType(values []interface{}) string {
	seen := make(map[string]bool)
	for _, v := range values {
		switch v.(type) {
		case nil:
		case int64, int, int32:
			seen[DataTypeInteger] = true
		case float64, float32:
			seen[DataTypeFloat] = true
		case bool:
			seen[DataTypeBoolean] = true
		case time.Time:
			seen[DataTypeTimestamp] = true
		default:
			seen[DataTypeText] = true
		}
	}
	switch {
	case len(seen) == 1:
		for k := range seen {
			return k
		}
	case len(seen) == 2 && seen[DataTypeInteger] && seen[DataTypeFloat]:
		return DataTypeFloat
	}
	return DataTypeText
}

// GetCreateTableDDL generates a CREATE TABLE statement for the columns in tabCols using mapper to convert the
// logical data types into target database types.
func GetCreateTableDDL(quotedTableName string, tabCols TableColumns, mapper Mapper) (string, error) {
	if len(tabCols.Columns) == 0 {
		return "", fmt.Errorf("no columns found for table %v", tabCols.TableName)
	}
	cols := make([]string, 0, len(tabCols.Columns))
	for _, col := range tabCols.Columns {
		dt, err := mapper.Map(col.DataType)
		if err != nil {
			return "", fmt.Errorf("column %v: %w", col.ColName, err)
		}
		cols = append(cols, fmt.Sprintf("%q %v", col.ColName, dt))
	}
	return fmt.Sprintf("CREATE TABLE %v (%v)", quotedTableName, strings.Join(cols, ", ")), nil
}
