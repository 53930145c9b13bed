package transform

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	DateFormat = "2006-01-02"
	TimeFormat = "15:04:05.999999" // fractional seconds are trimmed of trailing zeros.
)

// timestampLayouts are tried in order when parsing a combined date-time string.
// Go accepts fractional seconds after the seconds field even when the layout omits them.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-07",
	DateFormat,
}

// ParseTimestamp converts v into a time.Time.
// It returns false if v is nil or cannot be parsed.
func ParseTimestamp(v interface{}) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// DatePart returns the YYYY-MM-DD component of v or nil if v is not a valid timestamp.
func DatePart(v interface{}) interface{} {
	t, ok := ParseTimestamp(v)
	if !ok {
		return nil
	}
	return t.Format(DateFormat)
}

// TimePart returns the HH:MM:SS[.fff] component of v or nil if v is not a valid timestamp.
func TimePart(v interface{}) interface{} {
	t, ok := ParseTimestamp(v)
	if !ok {
		return nil
	}
	return t.Format(TimeFormat)
}

// ToFloat converts v into a float64.
// It returns false for nil, NaN, hexadecimal strings and anything that is not numeric.
func ToFloat(v interface{}) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int64:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case string:
		s := strings.TrimSpace(x)
		if u := strings.ToLower(strings.TrimLeft(s, "+-")); strings.HasPrefix(u, "0x") {
			return 0, false
		}
		var err error
		f, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Numeric converts v to a float64 rounded to places decimal places, or nil if v is not numeric.
// Use a negative places to skip rounding.
func Numeric(v interface{}, places int) interface{} {
	f, ok := ToFloat(v)
	if !ok {
		return nil
	}
	if places < 0 {
		return f
	}
	return Round(f, places)
}

// Round rounds half to even at the given number of decimal places.
// Values too large to scale are returned unchanged.
func Round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	scaled := f * p
	if math.IsInf(scaled, 0) {
		return f
	}
	return math.RoundToEven(scaled) / p
}
