package freshness

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
)

// Artifact is an object in the ingestion or transformed area.
type Artifact struct {
	Table     string
	Key       string
	Timestamp time.Time
}

// Index maps a table name to its latest Artifact.
type Index map[string]Artifact

// NameFunc derives a table name from an object key. It returns false if the key does not name a table.
type NameFunc func(key string) (string, bool)

// SourceTableName returns the filename stem of an ingestion key,
// e.g. 2025/03/05/17/00/address.csv gives address.
func SourceTableName(key string) (string, bool) {
	if key == "" || strings.HasSuffix(key, "/") {
		return "", false
	}
	base := path.Base(key)
	stem := strings.TrimSuffix(base, path.Ext(base))
	if stem == "" {
		return "", false
	}
	return stem, true
}

// DestinationTableName returns the top path segment of a transformed key,
// e.g. dim_staff/2025/03/05/17/00/data.parquet gives dim_staff.
func DestinationTableName(key string) (string, bool) {
	parts := strings.SplitN(key, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || strings.HasSuffix(key, "/") {
		return "", false
	}
	return parts[0], true
}

// GetLatest groups artifacts by the table name derived from each key and keeps the newest per table.
// When two artifacts of a table have the same timestamp, the one with the lexicographically greatest key wins,
// so the result does not depend on listing order.
// If include is not nil, tables for which it returns false are skipped.
func GetLatest(artifacts []Artifact, name NameFunc, include func(table string) bool) Index {
	idx := make(Index)
	for _, a := range artifacts {
		t, ok := name(a.Key)
		if !ok {
			continue
		}
		if include != nil && !include(t) {
			continue
		}
		a.Table = t
		cur, found := idx[t]
		if !found ||
			a.Timestamp.After(cur.Timestamp) ||
			(a.Timestamp.Equal(cur.Timestamp) && a.Key > cur.Key) {
			idx[t] = a
		}
	}
	return idx
}

// ParseKeyTimestamp reads the leading year/month/day/hour/minute path segments of an ingestion key in UTC.
// Segments may or may not be zero padded.
func ParseKeyTimestamp(key string) (time.Time, error) {
	parts := strings.Split(key, "/")
	if len(parts) < 5 {
		return time.Time{}, fmt.Errorf("key %q does not start with year/month/day/hour/minute", key)
	}
	n := make([]int, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.Atoi(parts[i])
		if err != nil {
			return time.Time{}, fmt.Errorf("key %q has a non numeric time segment %q", key, parts[i])
		}
		n[i] = v
	}
	t := time.Date(n[0], time.Month(n[1]), n[2], n[3], n[4], 0, 0, time.UTC)
	if t.Year() != n[0] || int(t.Month()) != n[1] || t.Day() != n[2] || t.Hour() != n[3] || t.Minute() != n[4] {
		return time.Time{}, fmt.Errorf("key %q has an out of range time segment", key)
	}
	return t, nil
}

// Watermark returns the newest timestamp encoded in keys, ignoring keys without one.
// It returns the zero time if there are none.
func Watermark(keys []string) time.Time {
	var w time.Time
	for _, k := range keys {
		t, err := ParseKeyTimestamp(k)
		if err == nil && t.After(w) {
			w = t
		}
	}
	return w
}

// TableWatermark returns the newest timestamp among the ingestion keys of table t.
// It returns the zero time if t has never been written.
func TableWatermark(keys []string, t string) time.Time {
	own := make([]string, 0, len(keys))
	for _, k := range keys {
		if name, ok := SourceTableName(k); ok && name == t {
			own = append(own, k)
		}
	}
	return Watermark(own)
}
