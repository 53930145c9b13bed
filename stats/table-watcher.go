package stats

import (
	"fmt"
	"strings"
	"sync"
	"time"

	om "github.com/cevaris/ordered_map"
	"github.com/relloyd/starpipe/logger"
	"github.com/relloyd/starpipe/table"
)

const (
	statusRunning  = "running"
	statusComplete = "complete"
	statusFailed   = "failed"
	statusSkipped  = "skipped"
)

// TableWatcher records the progress of one table through a stage.
type TableWatcher struct {
	mu        sync.Mutex
	log       logger.Logger
	tableName string
	status    string
	reason    string
	startTime time.Time
	endTime   time.Time
	rowsIn    int
	rowsOut   int
	nulls     *om.OrderedMap // output column name to count of nil values.
}

// ColumnNulls is the number of nil values found in an output column.
type ColumnNulls struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

type Stats struct {
	TableName      string        `json:"tableName"`
	StatusText     string        `json:"statusText"`
	StatusEmoji    string        `json:"statusEmoji"`
	Reason         string        `json:"reason,omitempty"`
	ElapsedTimeSec int           `json:"elapsedTimeSec"`
	RowsIn         int           `json:"rowsIn"`
	RowsOut        int           `json:"rowsOut"`
	Nulls          []ColumnNulls `json:"nulls,omitempty"`
}

func NewTableWatcher(log logger.Logger, tableName string) *TableWatcher {
	return &TableWatcher{log: log, tableName: tableName, nulls: om.NewOrderedMap()}
}

// StartWatching marks the table as running with rowsIn input rows.
func (n *TableWatcher) StartWatching(rowsIn int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.startTime = time.Now()
	n.status = statusRunning
	n.rowsIn = rowsIn
}

// StopWatching records the output of the table or the error that stopped it.
// Columns of out that contain nil values are logged at warn level.
func (n *TableWatcher) StopWatching(out *table.Dataset, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.endTime = time.Now()
	if err != nil {
		n.status = statusFailed
		n.reason = err.Error()
		return
	}
	n.status = statusComplete
	n.rowsOut = out.Len()
	iter := out.NullCounts().IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		if cnt := kv.Value.(int); cnt > 0 {
			n.nulls.Set(kv.Key, cnt)
		}
	}
	if n.nulls.Len() > 0 {
		n.log.Warn(n.tableName, " contains null values: ", n.renderNulls())
	}
}

// Skip records that the table was not processed and why.
func (n *TableWatcher) Skip(reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.status = statusSkipped
	n.reason = reason
}

func (n *TableWatcher) renderNulls() string {
	s := make([]string, 0, n.nulls.Len())
	iter := n.nulls.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		s = append(s, fmt.Sprintf("%v=%v", kv.Key, kv.Value))
	}
	return strings.Join(s, " ")
}

// RenderStats gets a struct filled with stats at the point of time it is called.
func (n *TableWatcher) RenderStats() Stats {
	n.mu.Lock()
	defer n.mu.Unlock()
	var statusEmoji string
	switch n.status {
	case statusRunning:
		statusEmoji = "\U0000231B" // hour glass
	case statusComplete:
		statusEmoji = "\U00002705" // green tick
	case statusFailed:
		statusEmoji = "\U0001F4A5" // bang
	default:
		statusEmoji = "\U000023ED" // skip
	}
	var elapsed time.Duration
	if !n.startTime.IsZero() {
		if n.endTime.IsZero() {
			elapsed = time.Since(n.startTime)
		} else {
			elapsed = n.endTime.Sub(n.startTime)
		}
	}
	nulls := make([]ColumnNulls, 0, n.nulls.Len())
	iter := n.nulls.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		nulls = append(nulls, ColumnNulls{Column: kv.Key.(string), Count: kv.Value.(int)})
	}
	return Stats{
		TableName:      n.tableName,
		StatusText:     n.status,
		StatusEmoji:    statusEmoji,
		Reason:         n.reason,
		ElapsedTimeSec: int(elapsed.Seconds()),
		RowsIn:         n.rowsIn,
		RowsOut:        n.rowsOut,
		Nulls:          nulls,
	}
}

// String will format the stats for general logging.
func (s Stats) String() string {
	r := fmt.Sprintf(
		"Stats for %v %v %v "+
			"elapsedTimeSec=%v "+
			"rowsIn=%v "+
			"rowsOut=%v",
		s.TableName, s.StatusText, s.StatusEmoji,
		s.ElapsedTimeSec,
		s.RowsIn,
		s.RowsOut,
	)
	if s.Reason != "" {
		r += fmt.Sprintf(" reason=%q", s.Reason)
	}
	return r
}
