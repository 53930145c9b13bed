package tabledefinition

import (
	"fmt"
)

// Mapper converts logical data types into target database column types.
type Mapper interface {
	Map(dataType string) (string, error)
}

// PostgresDataTypeMapping maps logical data types to Postgres column types used by the warehouse.
var PostgresDataTypeMapping = map[string]string{
	DataTypeInteger:   "INTEGER",
	DataTypeFloat:     "FLOAT",
	DataTypeBoolean:   "BOOLEAN",
	DataTypeTimestamp: "TIMESTAMP",
	DataTypeText:      "TEXT",
}

type dataTypeMap struct {
	m map[string]string
}

// NewPostgresDataTypeMapper returns a Mapper for the warehouse.
func NewPostgresDataTypeMapper() Mapper {
	return newDataTypeMapper(PostgresDataTypeMapping)
}

func newDataTypeMapper(m map[string]string) *dataTypeMap {
	return &dataTypeMap{m: m}
}

func (d *dataTypeMap) Map(dataType string) (string, error) {
	t, ok := d.m[dataType]
	if !ok {
		return "", fmt.Errorf("unsupported data type %q", dataType)
	}
	return t, nil
}
