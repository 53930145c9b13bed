package transform

import (
	"fmt"
	"time"

	"github.com/relloyd/starpipe/table"
)

var dimDateColumns = []string{"date_id", "year", "month", "day", "day_of_week", "day_name", "month_name", "quarter"}

// DimDate generates one row per calendar day from start to end inclusive.
// Both bounds use format YYYY-MM-DD. day_of_week is 1 for Monday through 7 for Sunday.
func DimDate(start string, end string) (*table.Dataset, error) {
	from, err := time.Parse(DateFormat, start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	to, err := time.Parse(DateFormat, end)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("end date %v is before start date %v", end, start)
	}
	b := table.NewBuilder(dimDateColumns...)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dow := int64(d.Weekday())
		if dow == 0 { // Sunday
			dow = 7
		}
		err := b.Append(
			d.Format(DateFormat),
			int64(d.Year()),
			int64(d.Month()),
			int64(d.Day()),
			dow,
			d.Weekday().String(),
			d.Month().String(),
			int64((int(d.Month())-1)/3+1),
		)
		if err != nil {
			return nil, err
		}
	}
	return b.Build()
}
