package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ghodss/yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/relloyd/starpipe/dependency"
	"github.com/relloyd/starpipe/logger"
	"github.com/relloyd/starpipe/stats"
	"github.com/rs/xid"
)

type runIDKey struct{}

// WithRunID returns a context that carries the run id used by the stages it is passed to.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// NewRunID returns a new globally unique run id.
func NewRunID() string {
	return xid.New().String()
}

func runIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok && id != "" {
		return id
	}
	return NewRunID()
}

// runLogger adds the run id and stage to every entry when log supports fields.
func runLogger(log logger.Logger, runID string, stage string) logger.Logger {
	if l, ok := log.(*logger.LoggerImpl); ok {
		return l.WithField("runId", runID).WithField("stage", stage)
	}
	return log
}

// Summary reports the outcome of a stage.
type Summary struct {
	RunID     string            `json:"runId"`
	Stage     string            `json:"stage"`
	StartTime time.Time         `json:"startTime"`
	EndTime   time.Time         `json:"endTime"`
	Keys      map[string]string `json:"keys"`              // table name to object key written or loaded.
	Skipped   map[string]string `json:"skipped,omitempty"` // table name to reason.
	Errors    []string          `json:"errors,omitempty"`
	Stats     []stats.Stats     `json:"stats,omitempty"`
	mu        sync.Mutex
	errs      *multierror.Error
}

func newSummary(runID string, stage string, start time.Time) *Summary {
	return &Summary{
		RunID:     runID,
		Stage:     stage,
		StartTime: start,
		Keys:      make(map[string]string),
		Skipped:   make(map[string]string),
	}
}

func (s *Summary) addKey(table string, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Keys[table] = key
}

func (s *Summary) skip(table string, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Skipped[table] = reason
}

func (s *Summary) fail(table string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = multierror.Append(s.errs, fmt.Errorf("%v: %w", table, err))
}

// finish records the end of the stage and returns the combined table errors, if any.
func (s *Summary) finish(end time.Time, sf stats.StatsFetcher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.EndTime = end
	if sf != nil {
		s.Stats = sf.GetStats()
	}
	if s.errs != nil {
		s.Errors = make([]string, 0, len(s.errs.Errors))
		for _, e := range s.errs.Errors {
			s.Errors = append(s.Errors, e.Error())
		}
		sort.Strings(s.Errors)
	}
	return s.errs.ErrorOrNil()
}

// LoadRequest returns the request that loads the star tables written by a transform summary.
func (s *Summary) LoadRequest() LoadRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := LoadRequest{Keys: make(map[string]string, len(s.Keys))}
	for k, v := range s.Keys {
		r.Keys[k] = v
	}
	return r
}

// Render formats the summaries as "json" or "yaml".
func Render(format string, summaries ...*Summary) ([]byte, error) {
	var i interface{} = summaries
	if len(summaries) == 1 {
		i = summaries[0]
	}
	switch strings.ToLower(format) {
	case "json":
		return json.MarshalIndent(i, "", "  ")
	case "yaml", "yml":
		return yaml.Marshal(i)
	}
	return nil, fmt.Errorf("unsupported output format %q: use json or yaml", format)
}

// LoadRequest names the transformed objects to load into the warehouse.
// Keys accepts star tables of either kind, e.g. the keys of a transform Summary.
// When all maps are empty, the latest object of every star table newer than Since is loaded.
type LoadRequest struct {
	FactTables map[string]string `json:"fact_tables,omitempty"`
	DimTables  map[string]string `json:"dim_tables,omitempty"`
	Keys       map[string]string `json:"keys,omitempty"`
	Since      time.Time         `json:"since,omitempty"`
}

// IsEmpty returns true if no tables are named.
func (r LoadRequest) IsEmpty() bool {
	return len(r.FactTables)+len(r.DimTables)+len(r.Keys) == 0
}

// split returns the fact and dimension tables to load.
func (r LoadRequest) split() (facts map[string]string, dims map[string]string) {
	facts = make(map[string]string)
	dims = make(map[string]string)
	for k, v := range r.Keys {
		if dependency.IsFact(k) {
			facts[k] = v
		} else {
			dims[k] = v
		}
	}
	for k, v := range r.FactTables {
		facts[k] = v
	}
	for k, v := range r.DimTables {
		dims[k] = v
	}
	return
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
