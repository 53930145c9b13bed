package table

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestNew(t *testing.T) {
	g := NewGomegaWithT(t)
	// Test 1 - equal length columns.
	d, err := New(
		Column{Name: "a", Values: []interface{}{int64(1), int64(2)}},
		Column{Name: "b", Values: []interface{}{"x", nil}},
	)
	g.Expect(err).To(BeNil())
	g.Expect(d.Len()).To(Equal(2))
	g.Expect(d.Columns()).To(Equal([]string{"a", "b"}))
	g.Expect(d.HasColumn("a")).To(BeTrue())
	g.Expect(d.HasColumn("A")).To(BeFalse())
	// Test 2 - unequal lengths.
	_, err = New(
		Column{Name: "a", Values: []interface{}{int64(1)}},
		Column{Name: "b", Values: []interface{}{"x", "y"}},
	)
	g.Expect(err).ToNot(BeNil())
	// Test 3 - duplicate names.
	_, err = New(
		Column{Name: "a", Values: []interface{}{}},
		Column{Name: "a", Values: []interface{}{}},
	)
	g.Expect(err).ToNot(BeNil())
}

func TestColumnReturnsCopy(t *testing.T) {
	g := NewGomegaWithT(t)
	d := MustNew(Column{Name: "a", Values: []interface{}{"x"}})
	c, err := d.Column("a")
	g.Expect(err).To(BeNil())
	c[0] = "changed"
	g.Expect(d.Value(0, "a")).To(Equal("x"))
	_, err = d.Column("missing")
	g.Expect(err).ToNot(BeNil())
}

func TestRowAndNullCounts(t *testing.T) {
	g := NewGomegaWithT(t)
	d := MustNew(
		Column{Name: "id", Values: []interface{}{int64(1), int64(2)}},
		Column{Name: "name", Values: []interface{}{nil, "b"}},
	)
	r := d.Row(1)
	g.Expect(r.GetData("id")).To(Equal(int64(2)))
	g.Expect(r.GetData("name")).To(Equal("b"))
	g.Expect(func() { r.GetData("nope") }).To(Panic())
	n := d.NullCounts()
	v, _ := n.Get("name")
	g.Expect(v).To(Equal(1))
	v, _ = n.Get("id")
	g.Expect(v).To(Equal(0))
}

func TestEqual(t *testing.T) {
	g := NewGomegaWithT(t)
	a := MustNew(Column{Name: "x", Values: []interface{}{1.5, nil}})
	b := MustNew(Column{Name: "x", Values: []interface{}{1.5, nil}})
	c := MustNew(Column{Name: "y", Values: []interface{}{1.5, nil}})
	g.Expect(a.Equal(b)).To(BeTrue())
	g.Expect(a.Equal(c)).To(BeFalse())
	g.Expect(a.Equal(nil)).To(BeFalse())
}

func TestBuilderAndLookup(t *testing.T) {
	g := NewGomegaWithT(t)
	b := NewBuilder("department_id", "department_name")
	g.Expect(b.Append(int64(1), "Sales")).To(BeNil())
	g.Expect(b.Append(float64(2), "Purchasing")).To(BeNil())
	g.Expect(b.Append(int64(1), "Duplicate")).To(BeNil())
	g.Expect(b.Append("too few")).ToNot(BeNil())
	d, err := b.Build()
	g.Expect(err).To(BeNil())
	g.Expect(d.Len()).To(Equal(3))
	l, err := NewLookup(d, "department_id")
	g.Expect(err).To(BeNil())
	// First match wins.
	g.Expect(l.Get(int64(1), "department_name")).To(Equal("Sales"))
	// Numeric keys compare across types.
	g.Expect(l.Get(int64(2), "department_name")).To(Equal("Purchasing"))
	g.Expect(l.Get(float64(1), "department_name")).To(Equal("Sales"))
	g.Expect(l.Get(int64(9), "department_name")).To(BeNil())
	g.Expect(l.Get(nil, "department_name")).To(BeNil())
	g.Expect(l.Contains(int64(2))).To(BeTrue())
}
