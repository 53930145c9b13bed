package transform

import (
	c "github.com/relloyd/starpipe/constants"
	"github.com/relloyd/starpipe/table"
	td "github.com/relloyd/starpipe/table-definition"
)

var staffContract = td.Contract{
	Name:    c.TableStaff,
	Columns: []string{"staff_id", "first_name", "last_name", "email_address", "department_id"},
}

var departmentContract = td.Contract{
	Name:    c.TableDepartment,
	Columns: []string{"department_id", "department_name", "location"},
}

var dimStaffMapping = Fields(
	Copy("staff_id", "staff_id"),
	Copy("first_name", "first_name"),
	Copy("last_name", "last_name"),
	Copy("email_address", "email_address"),
	Copy("department_name", "department_name"),
	Copy("location", "location"),
)

// DimStaff joins staff to their department.
// Staff whose department is unknown are kept with nil department_name and location.
func DimStaff(staff *table.Dataset, department *table.Dataset) (*table.Dataset, error) {
	err := td.ValidateAll(
		td.Input{Dataset: staff, Contract: staffContract},
		td.Input{Dataset: department, Contract: departmentContract},
	)
	if err != nil {
		return nil, err
	}
	joined, err := table.LeftJoin(staff, department, "department_id", "department_id", "department_name", "location")
	if err != nil {
		return nil, err
	}
	return dimStaffMapping.Apply(joined)
}
