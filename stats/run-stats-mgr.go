package stats

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cevaris/ordered_map"
	"github.com/relloyd/starpipe/logger"
)

type StatsFetcher interface {
	GetStats() []Stats
}

var DefaultStatsDumpFrequencySeconds = 30

// RunStatsManager saves stats for each table touched by a stage, in the order tables were added.
// Tables may be added from concurrent workers.
type RunStatsManager struct {
	ticker              *time.Ticker
	tickerDone          chan struct{}
	tickerIsRunningFlag int32
	tickerFrequency     int
	mu                  sync.Mutex
	log                 logger.Logger
	mapTableStats       *ordered_map.OrderedMap // table name to *TableWatcher.
}

// SetStatsDumpFrequency returns a function that can be supplied as an option to constructor NewRunStats().
// Zero disables periodic dumping.
func SetStatsDumpFrequency(seconds int) func(t *RunStatsManager) {
	return func(t *RunStatsManager) {
		t.tickerFrequency = seconds
	}
}

// NewRunStats creates a new RunStatsManager.
func NewRunStats(log logger.Logger, options ...func(t *RunStatsManager)) *RunStatsManager {
	t := &RunStatsManager{log: log, tickerFrequency: DefaultStatsDumpFrequencySeconds}
	for _, option := range options {
		option(t)
	}
	t.tickerDone = make(chan struct{})
	t.mapTableStats = ordered_map.NewOrderedMap()
	return t
}

// AddTableWatcher creates a new TableWatcher and saves it, replacing any watcher of the same name.
func (t *RunStatsManager) AddTableWatcher(tableName string) *TableWatcher {
	t.mu.Lock()
	defer t.mu.Unlock()
	sw := NewTableWatcher(t.log, tableName)
	t.mapTableStats.Set(tableName, sw)
	return sw
}

// StartDumping logs the stats of all tables periodically until StopDumping is called.
func (t *RunStatsManager) StartDumping() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if atomic.LoadInt32(&t.tickerIsRunningFlag) == 0 { // if we're not already dumping stats...
		if t.tickerFrequency > 0 { // if stats dumping is enabled...
			t.ticker = time.NewTicker(time.Second * time.Duration(t.tickerFrequency))
			atomic.StoreInt32(&t.tickerIsRunningFlag, 1)
			go func() {
				t.log.Debug("stats dumper ticker started")
				for {
					select {
					case <-t.tickerDone:
						t.log.Debug("stats dumper ticker stopped")
						return
					case <-t.ticker.C:
						t.logStats()
					}
				}
			}()
		} else {
			t.log.Debug("stats dumper disabled")
		}
	} else {
		t.log.Debug("stats dumper ticker already running")
	}
}

// StopDumping will stop the ticker, if it was running, and log the current stats.
func (t *RunStatsManager) StopDumping() {
	t.mu.Lock()
	if atomic.LoadInt32(&t.tickerIsRunningFlag) > 0 { // if we started to dump stats...
		atomic.StoreInt32(&t.tickerIsRunningFlag, 0)
		t.ticker.Stop()
		t.tickerDone <- struct{}{} // cause the goroutine to exit (we can't close ticker.C)
	}
	t.mu.Unlock()
	t.logStats()
}

func (t *RunStatsManager) logStats() {
	for _, s := range t.GetStats() {
		t.log.Info(s.String())
	}
}

// GetStats implements interface StatsFetcher{}.
func (t *RunStatsManager) GetStats() []Stats {
	t.mu.Lock()
	watchers := make([]*TableWatcher, 0, t.mapTableStats.Len())
	iter := t.mapTableStats.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		watchers = append(watchers, kv.Value.(*TableWatcher))
	}
	t.mu.Unlock()
	statsList := make([]Stats, 0, len(watchers))
	for _, w := range watchers {
		statsList = append(statsList, w.RenderStats())
	}
	return statsList
}
