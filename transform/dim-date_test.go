package transform

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestDimDate(t *testing.T) {
	g := NewGomegaWithT(t)
	got, err := DimDate("2022-01-01", "2022-01-03")
	g.Expect(err).To(BeNil())
	g.Expect(got.Columns()).To(Equal([]string{"date_id", "year", "month", "day", "day_of_week", "day_name", "month_name", "quarter"}))
	g.Expect(got.Len()).To(Equal(3))
	r := got.Row(0)
	g.Expect(r.GetData("date_id")).To(Equal("2022-01-01"))
	g.Expect(r.GetData("year")).To(Equal(int64(2022)))
	g.Expect(r.GetData("month")).To(Equal(int64(1)))
	g.Expect(r.GetData("day")).To(Equal(int64(1)))
	g.Expect(r.GetData("day_of_week")).To(Equal(int64(6)))
	g.Expect(r.GetData("day_name")).To(Equal("Saturday"))
	g.Expect(r.GetData("month_name")).To(Equal("January"))
	g.Expect(r.GetData("quarter")).To(Equal(int64(1)))
	// Sunday is 7 and Monday is 1.
	g.Expect(got.Value(1, "day_of_week")).To(Equal(int64(7)))
	g.Expect(got.Value(2, "day_of_week")).To(Equal(int64(1)))
}

func TestDimDateRange(t *testing.T) {
	g := NewGomegaWithT(t)
	// Inclusive of both ends across a leap year.
	got, err := DimDate("2024-01-01", "2024-12-31")
	g.Expect(err).To(BeNil())
	g.Expect(got.Len()).To(Equal(366))
	g.Expect(got.Value(365, "quarter")).To(Equal(int64(4)))
	g.Expect(got.Value(31+29+31, "quarter")).To(Equal(int64(2))) // 2024-04-01
	// A single day.
	got, err = DimDate("2022-05-05", "2022-05-05")
	g.Expect(err).To(BeNil())
	g.Expect(got.Len()).To(Equal(1))
	// Invalid inputs.
	_, err = DimDate("2022-05-06", "2022-05-05")
	g.Expect(err).ToNot(BeNil())
	_, err = DimDate("yesterday", "2022-05-05")
	g.Expect(err).ToNot(BeNil())
	_, err = DimDate("2022-05-05", "2022/05/06")
	g.Expect(err).ToNot(BeNil())
}
