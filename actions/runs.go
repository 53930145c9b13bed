package actions

import (
	"context"
	"sync"
	"time"

	"github.com/cevaris/ordered_map"
	"github.com/pkg/errors"
	"github.com/relloyd/starpipe/logger"
)

// ErrRunInProgress is returned when a run is launched while another is still running.
var ErrRunInProgress = errors.New("a run is already in progress")

type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
	RunStatusStopped  RunStatus = "stopped"
)

// RunInfo describes a run launched by the server.
type RunInfo struct {
	RunID     string     `json:"runId"`
	Stage     string     `json:"stage"`
	Status    RunStatus  `json:"status"`
	StartTime time.Time  `json:"startTime"`
	EndTime   time.Time  `json:"endTime,omitempty"`
	Error     string     `json:"error,omitempty"`
	Summaries []*Summary `json:"summaries,omitempty"`
	cancel    context.CancelFunc
}

// RuntimeFactory builds the Runtime used by one run of stage.
type RuntimeFactory func(ctx context.Context, stage string) (*Runtime, error)

// RunRegistry launches runs in the background, one at a time, and remembers them in launch order.
type RunRegistry struct {
	mu         sync.Mutex
	log        logger.Logger
	newRuntime RuntimeFactory
	runs       *ordered_map.OrderedMap // run id to *RunInfo.
	current    string
	wg         sync.WaitGroup
}

func NewRunRegistry(log logger.Logger, f RuntimeFactory) *RunRegistry {
	return &RunRegistry{log: log, newRuntime: f, runs: ordered_map.NewOrderedMap()}
}

// Launch starts stage in the background and returns its run id.
// It returns ErrRunInProgress if a run has not finished.
func (r *RunRegistry) Launch(stage string, req LoadRequest) (string, error) {
	if !contains(Stages(), stage) {
		return "", errors.Errorf("unknown stage %q", stage)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != "" {
		return "", ErrRunInProgress
	}
	runID := NewRunID()
	ctx, cancel := context.WithCancel(WithRunID(context.Background(), runID))
	info := &RunInfo{RunID: runID, Stage: stage, Status: RunStatusRunning, StartTime: time.Now().UTC(), cancel: cancel}
	r.runs.Set(runID, info)
	r.current = runID
	r.wg.Add(1)
	go r.execute(ctx, info, req)
	r.log.Info("launched ", stage, " run ", runID)
	return runID, nil
}

func (r *RunRegistry) execute(ctx context.Context, info *RunInfo, req LoadRequest) {
	defer r.wg.Done()
	var summaries []*Summary
	rt, err := r.newRuntime(ctx, info.Stage)
	if err == nil {
		summaries, err = RunStage(ctx, rt, info.Stage, req)
		if closeErr := rt.Close(); closeErr != nil {
			r.log.Warn("error closing connections: ", closeErr)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	info.EndTime = time.Now().UTC()
	info.Summaries = summaries
	switch {
	case ctx.Err() != nil:
		info.Status = RunStatusStopped
	case err != nil:
		info.Status = RunStatusFailed
	default:
		info.Status = RunStatusComplete
	}
	if err != nil {
		info.Error = err.Error()
		r.log.Error("run ", info.RunID, " ", info.Status, ": ", err)
	} else {
		r.log.Info("run ", info.RunID, " ", info.Status)
	}
	info.cancel()
	r.current = ""
}

// Get returns a copy of the run with id runID.
func (r *RunRegistry) Get(runID string) (RunInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.runs.Get(runID)
	if !ok {
		return RunInfo{}, false
	}
	return *v.(*RunInfo), true
}

// List returns copies of all runs in launch order.
func (r *RunRegistry) List() []RunInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RunInfo, 0, r.runs.Len())
	iter := r.runs.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		out = append(out, *kv.Value.(*RunInfo))
	}
	return out
}

// Stop cancels the run with id runID. It returns false if the run does not exist or has finished.
func (r *RunRegistry) Stop(runID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.runs.Get(runID)
	if !ok {
		return false
	}
	info := v.(*RunInfo)
	if info.Status != RunStatusRunning {
		return false
	}
	info.cancel()
	return true
}

// Shutdown cancels the current run, if any, and waits for it to finish.
func (r *RunRegistry) Shutdown() {
	r.mu.Lock()
	current := r.current
	r.mu.Unlock()
	if current != "" {
		r.Stop(current)
	}
	r.wg.Wait()
}
