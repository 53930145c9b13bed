package helper

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	om "github.com/cevaris/ordered_map"
)

// TimeFormatYearSeconds is used to render time values as text, e.g. in CSV files.
const TimeFormatYearSeconds = "2006-01-02 15:04:05.999999"

// TokensToOrderedMap converts a string of the form, 'k1:v1,k2:v2' into an ordered map and returns a pointer to it.
// 1) Split on comma to find each key:value pair.
// 2) Split on the first colon to separate the key from the value.
// Spaces around keys and values are trimmed.
func TokensToOrderedMap(s string) *om.OrderedMap {
	o := om.NewOrderedMap()
	for _, token := range strings.Split(s, ",") {
		k, v := Split(token, ":")
		k = strings.TrimSpace(k)
		if k != "" && v != "" { // if there is a key:value...
			o.Set(k, strings.TrimSpace(v))
		}
	}
	return o
}

// CsvToStringSliceTrimSpaces converts a string of the form, 'f1, f2,f3' into a slice of string values.
// Empty values are dropped so an empty string gives an empty slice.
func CsvToStringSliceTrimSpaces(s string) []string {
	tokens := strings.Split(s, ",")
	retval := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			retval = append(retval, t)
		}
	}
	return retval
}

// GetStringFromInterface will convert interface{} value to a string.
// Times are rendered in UTC. Nil becomes the empty string.
func GetStringFromInterface(input interface{}) (retval string, err error) {
	switch v := input.(type) {
	case int, int16, int32, int64, int8, uint8:
		retval = fmt.Sprintf("%d", v)
	case string:
		retval = v
	case float32:
		retval = strconv.FormatFloat(float64(v), 'f', -1, 32) // use 'f' to preserve all decimal points without an exponent.
	case float64:
		retval = strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		retval = v.UTC().Format(TimeFormatYearSeconds)
	case []uint8:
		retval = string(v)
	case bool:
		retval = strconv.FormatBool(v)
	case nil:
		retval = ""
	default:
		err = fmt.Errorf("unhandled type while fetching string from interface: type = %T; value = %v", input, input)
	}
	return
}

// Split returns t, u if s is of the form t c u.
// If not, return s, "".
func Split(s string, c string) (string, string) {
	i := strings.Index(s, c)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+len(c):]
}

// QuoteIdentifier wraps a SQL identifier in double quotes, escaping embedded quotes.
func QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
