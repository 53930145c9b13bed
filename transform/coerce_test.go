package transform

import (
	"math"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func TestTimestampParts(t *testing.T) {
	g := NewGomegaWithT(t)
	cases := []struct {
		in       interface{}
		wantDate interface{}
		wantTime interface{}
	}{
		{"2022-11-03 14:20:52.186", "2022-11-03", "14:20:52.186"},
		{"2022-11-03 14:20:52.186000", "2022-11-03", "14:20:52.186"},
		{"2022-11-03 14:20:52", "2022-11-03", "14:20:52"},
		{"2022-11-03T14:20:52.5Z", "2022-11-03", "14:20:52.5"},
		{"2022-11-03 14:20:52+01:00", "2022-11-03", "14:20:52"},
		{"2022-11-03", "2022-11-03", "00:00:00"},
		{time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC), "2023-01-02", "03:04:05"},
		{"not a date", nil, nil},
		{"2022-13-45 99:00:00", nil, nil},
		{"", nil, nil},
		{nil, nil, nil},
		{int64(20221103), nil, nil},
	}
	for _, c := range cases {
		if c.wantDate == nil {
			g.Expect(DatePart(c.in)).To(BeNil(), "date part of %v", c.in)
		} else {
			g.Expect(DatePart(c.in)).To(Equal(c.wantDate), "date part of %v", c.in)
		}
		if c.wantTime == nil {
			g.Expect(TimePart(c.in)).To(BeNil(), "time part of %v", c.in)
		} else {
			g.Expect(TimePart(c.in)).To(Equal(c.wantTime), "time part of %v", c.in)
		}
	}
}

func TestNumeric(t *testing.T) {
	g := NewGomegaWithT(t)
	g.Expect(Numeric("3.946", 2)).To(Equal(3.95))
	g.Expect(Numeric(" 2.5 ", -1)).To(Equal(2.5))
	g.Expect(Numeric(int64(4), 2)).To(Equal(4.0))
	g.Expect(Numeric(1.005e2, 1)).To(Equal(100.5))
	g.Expect(Numeric("abc", 2)).To(BeNil())
	g.Expect(Numeric("NaN", 2)).To(BeNil())
	g.Expect(Numeric(nil, 2)).To(BeNil())
	g.Expect(Numeric(true, 2)).To(BeNil())
	g.Expect(Round(2.345, 2)).To(BeNumerically("~", 2.34, 0.011))
	g.Expect(math.IsNaN(Round(1.0, 0))).To(BeFalse())
	// Large values are not rounded rather than overflowing.
	g.Expect(Numeric("1e307", 2)).To(Equal(1e307))
	g.Expect(Round(-1e307, 2)).To(Equal(-1e307))
	// Hexadecimal floats are not numeric.
	g.Expect(Numeric("0x1p-2", 2)).To(BeNil())
	g.Expect(Numeric("-0X10", -1)).To(BeNil())
}
