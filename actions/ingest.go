package actions

import (
	"bytes"
	"context"
	"path"
	"time"

	"github.com/pkg/errors"
	"github.com/relloyd/starpipe/constants"
	"github.com/relloyd/starpipe/file"
	"github.com/relloyd/starpipe/freshness"
	"github.com/relloyd/starpipe/rdbms"
	"github.com/relloyd/starpipe/stats"
	"golang.org/x/sync/errgroup"
)

// RunIngest extracts the configured source tables into the ingestion bucket as CSV.
// Rows are selected when last_updated is newer than the watermark of the table's latest ingestion key
// and not newer than the run's start, truncated to the minute recorded in the new key.
// Tables other than constants.IncrementalTables are extracted whole when any row changed.
// Tables without changes are skipped. Each table is written to <time>/<table>.csv.
// Per table failures are collected and returned together once all tables are done.
func RunIngest(ctx context.Context, rt *Runtime) (*Summary, error) {
	runID := runIDFromContext(ctx)
	log := runLogger(rt.Log, runID, constants.StageIngest)
	start := rt.now()
	summary := newSummary(runID, constants.StageIngest, start)
	objects, err := rt.IngestStore.List(ctx, "")
	if err != nil {
		return summary, errors.Wrap(err, "error listing ingestion bucket")
	}
	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		keys = append(keys, o.Key)
	}
	until := start.Truncate(time.Minute)
	keyTime := until.Format(constants.KeyTimeFormat)
	log.Info("ingesting ", len(rt.Cfg.Tables), " tables changed until ", keyTime)
	sm := stats.NewRunStats(log)
	sm.StartDumping()
	workers := rt.Cfg.IngestWorkers
	if workers < 1 {
		workers = constants.DefaultIngestWorkers
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for _, t := range rt.Cfg.Tables {
		t := t
		w := sm.AddTableWatcher(t)
		since := freshness.TableWatermark(keys, t)
		g.Go(func() error {
			key, err := ingestTable(ctx, rt, w, t, since, until, keyTime)
			switch {
			case err != nil:
				log.Error("error ingesting table ", t, ": ", err)
				summary.fail(t, err)
			case key == "":
				summary.skip(t, "no changes")
			default:
				summary.addKey(t, key)
			}
			return nil
		})
	}
	_ = g.Wait()
	sm.StopDumping()
	err = summary.finish(rt.now(), sm)
	log.Info("ingest complete: ", len(summary.Keys), " tables written")
	return summary, err
}

// ingestTable returns the key written, or an empty key if the table had no changes.
func ingestTable(ctx context.Context, rt *Runtime, w *stats.TableWatcher, t string, since time.Time, until time.Time, keyTime string) (string, error) {
	st := rdbms.NewSchemaTable(rt.Cfg.SourceSchema, t)
	w.StartWatching(0)
	ds, err := rdbms.QueryChanged(ctx, rt.Log, rt.Source, st, since, until)
	if err != nil {
		w.StopWatching(nil, err)
		return "", err
	}
	if ds.Len() == 0 {
		w.Skip("no changes")
		return "", nil
	}
	if !constants.IncrementalTables[t] {
		if ds, err = rdbms.QueryAll(ctx, rt.Log, rt.Source, st); err != nil {
			w.StopWatching(nil, err)
			return "", err
		}
	}
	buf := &bytes.Buffer{}
	if err = file.WriteCSV(buf, ds); err != nil {
		w.StopWatching(nil, err)
		return "", errors.Wrap(err, "error writing CSV")
	}
	key := path.Join(keyTime, t+constants.IngestionFileExt)
	if err = rt.IngestStore.Put(ctx, key, buf.Bytes()); err != nil {
		w.StopWatching(nil, err)
		return "", errors.Wrapf(err, "error writing %v", key)
	}
	w.StopWatching(ds, nil)
	return key, nil
}
