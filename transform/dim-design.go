package transform

import (
	c "github.com/relloyd/starpipe/constants"
	"github.com/relloyd/starpipe/table"
	td "github.com/relloyd/starpipe/table-definition"
)

var designContract = td.Contract{
	Name:    c.TableDesign,
	Columns: []string{"design_id", "design_name", "file_location", "file_name"},
}

var dimDesignMapping = Fields(
	Copy("design_id", "design_id"),
	Copy("design_name", "design_name"),
	Copy("file_location", "file_location"),
	Copy("file_name", "file_name"),
)

func DimDesign(design *table.Dataset) (*table.Dataset, error) {
	if err := td.Validate(design, designContract); err != nil {
		return nil, err
	}
	return dimDesignMapping.Apply(design)
}
