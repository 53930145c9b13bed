package transform

import (
	"testing"

	. "github.com/onsi/gomega"
	"github.com/relloyd/starpipe/table"
)

func TestReferencedBy(t *testing.T) {
	g := NewGomegaWithT(t)
	dim, err := DimStaff(staffFixture(), departmentFixture())
	g.Expect(err).To(BeNil())
	fact := table.MustNew(table.Column{Name: "sales_staff_id", Values: []interface{}{2.0, nil, 2.0}})
	got, err := ReferencedBy(dim, "staff_id", fact, "sales_staff_id")
	g.Expect(err).To(BeNil())
	g.Expect(got.Len()).To(Equal(1))
	g.Expect(got.Value(0, "staff_id")).To(Equal(int64(2)))
	g.Expect(got.Columns()).To(Equal(dim.Columns()))
	_, err = ReferencedBy(dim, "nope", fact, "sales_staff_id")
	g.Expect(err).ToNot(BeNil())
	_, err = ReferencedBy(dim, "staff_id", fact, "nope")
	g.Expect(err).ToNot(BeNil())
}
