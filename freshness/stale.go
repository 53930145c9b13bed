package freshness

import (
	"sort"
	"time"

	"github.com/relloyd/starpipe/dependency"
)

// NeverBuilt is the timestamp used for a star table that has no artifact yet.
var NeverBuilt = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// Stale maps a source table name to its latest artifact, for sources that are newer than a dependent star table.
type Stale map[string]Artifact

// Names returns the stale source table names, sorted.
func (s Stale) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// GetStaleTables returns the source tables that must be reloaded.
// A dependency d of star table T is stale when source[d] is strictly newer than destination[T], where a missing
// destination counts as NeverBuilt. Equal timestamps are not stale. A dependency with no source artifact is never
// stale since there is nothing to rebuild from.
func GetStaleTables(source Index, destination Index, g dependency.Graph) Stale {
	stale := make(Stale)
	for _, t := range g.StarTables() {
		built := NeverBuilt
		if a, ok := destination[t]; ok {
			built = a.Timestamp
		}
		for _, d := range g.Dependencies(t) {
			a, ok := source[d]
			if !ok {
				continue
			}
			if a.Timestamp.After(built) {
				stale[d] = a
			}
		}
	}
	return stale
}

// TablesToRebuild returns the star tables that depend on at least one stale source table, sorted.
// Note that a star table with one fresh and one stale dependency is rebuilt.
func TablesToRebuild(stale Stale, g dependency.Graph) []string {
	out := make([]string, 0)
	for _, t := range g.StarTables() {
		for _, d := range g.Dependencies(t) {
			if _, ok := stale[d]; ok {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// MissingSources returns the dependencies of star table t that have no source artifact.
func MissingSources(t string, source Index, g dependency.Graph) []string {
	out := make([]string, 0)
	for _, d := range g.Dependencies(t) {
		if _, ok := source[d]; !ok {
			out = append(out, d)
		}
	}
	return out
}
