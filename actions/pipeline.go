package actions

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/relloyd/starpipe/constants"
)

// RunPipeline runs ingest, transform and load in turn, loading exactly the objects written by the transform.
// An ingest error stops the run. Objects written by a transform that failed part way are still loaded and
// the errors of both stages are returned together.
func RunPipeline(ctx context.Context, rt *Runtime) ([]*Summary, error) {
	summaries := make([]*Summary, 0, 3)
	s, err := RunIngest(ctx, rt)
	summaries = append(summaries, s)
	if err != nil {
		return summaries, err
	}
	s, transformErr := RunTransform(ctx, rt)
	summaries = append(summaries, s)
	req := s.LoadRequest()
	if req.IsEmpty() {
		return summaries, transformErr
	}
	s, err = RunLoad(ctx, rt, req)
	summaries = append(summaries, s)
	if transformErr != nil {
		return summaries, multierror.Append(transformErr, err).ErrorOrNil()
	}
	return summaries, err
}

// RunStage runs the named stage. req is used by the load stage only.
// All stages run under a single run id, taken from ctx or generated.
func RunStage(ctx context.Context, rt *Runtime, stage string, req LoadRequest) ([]*Summary, error) {
	ctx = WithRunID(ctx, runIDFromContext(ctx))
	switch stage {
	case constants.StageIngest:
		s, err := RunIngest(ctx, rt)
		return []*Summary{s}, err
	case constants.StageTransform:
		s, err := RunTransform(ctx, rt)
		return []*Summary{s}, err
	case constants.StageLoad:
		s, err := RunLoad(ctx, rt, req)
		return []*Summary{s}, err
	case constants.StageRun:
		return RunPipeline(ctx, rt)
	}
	return nil, fmt.Errorf("unknown stage %q", stage)
}

// Stages returns the names accepted by RunStage.
func Stages() []string {
	return []string{constants.StageIngest, constants.StageTransform, constants.StageLoad, constants.StageRun}
}
