package actions

import (
	"context"

	"github.com/pkg/errors"
	"github.com/relloyd/starpipe/constants"
	"github.com/relloyd/starpipe/dependency"
	"github.com/relloyd/starpipe/file"
	"github.com/relloyd/starpipe/freshness"
	"github.com/relloyd/starpipe/logger"
	"github.com/relloyd/starpipe/rdbms"
	"github.com/relloyd/starpipe/stats"
	"github.com/relloyd/starpipe/table"
)

// RunLoad copies transformed objects into the warehouse.
// Dimension tables are replaced first, in name order, then fact rows are appended.
// An empty request loads the latest object of every star table that is newer than req.Since.
// Fact tables are appended, so an empty request without a Since time loads dimensions only.
// Per table failures are collected and returned together once all tables are done.
func RunLoad(ctx context.Context, rt *Runtime, req LoadRequest) (*Summary, error) {
	runID := runIDFromContext(ctx)
	log := runLogger(rt.Log, runID, constants.StageLoad)
	summary := newSummary(runID, constants.StageLoad, rt.now())
	if req.IsEmpty() {
		latest, err := latestArtifacts(ctx, rt.TransformStore, freshness.DestinationTableName, "/"+constants.TransformedFileName, rt.Graph.StarTables())
		if err != nil {
			return summary, errors.Wrap(err, "error listing transformed bucket")
		}
		req.Keys = make(map[string]string)
		for t, a := range latest {
			switch {
			case !a.Timestamp.After(req.Since):
			case req.Since.IsZero() && dependency.IsFact(t):
				log.Warn("skipping ", t, ": ", reasonFactsNeedSince)
				summary.skip(t, reasonFactsNeedSince)
			default:
				req.Keys[t] = a.Key
			}
		}
	}
	facts, dims := req.split()
	if len(facts)+len(dims) == 0 {
		log.Info("no tables to load")
		return summary, summary.finish(rt.now(), nil)
	}
	sm := stats.NewRunStats(log)
	sm.StartDumping()
	batch := rt.Cfg.InsertBatch
	for _, t := range sortedKeys(dims) {
		loadTable(ctx, rt, sm.AddTableWatcher(t), summary, t, dims[t], rdbms.ReplaceTable, batch)
	}
	for _, t := range sortedKeys(facts) {
		loadTable(ctx, rt, sm.AddTableWatcher(t), summary, t, facts[t], rdbms.InsertDataset, batch)
	}
	sm.StopDumping()
	err := summary.finish(rt.now(), sm)
	log.Info("load complete: ", len(summary.Keys), " tables loaded")
	return summary, err
}

const reasonFactsNeedSince = "fact rows are appended; give a since time or the keys to load"

// loadFunc writes a dataset to a warehouse table, returning the number of rows written.
type loadFunc func(ctx context.Context, log logger.Logger, db rdbms.Connector, st rdbms.SchemaTable, ds *table.Dataset, batchSize int) (int, error)

func loadTable(ctx context.Context, rt *Runtime, w *stats.TableWatcher, summary *Summary, t string, key string, fn loadFunc, batch int) {
	err := func() error {
		data, err := rt.TransformStore.Get(ctx, key)
		if err != nil {
			return errors.Wrapf(err, "error reading %v", key)
		}
		ds, err := file.ReadParquet(ctx, data)
		if err != nil {
			return errors.Wrapf(err, "error parsing %v", key)
		}
		w.StartWatching(ds.Len())
		n, err := fn(ctx, rt.Log, rt.Warehouse, rdbms.NewSchemaTable(rt.Cfg.WarehouseSchema, t), ds, batch)
		if err != nil {
			return err
		}
		rt.Log.Debug("loaded ", n, " rows into ", t)
		w.StopWatching(ds, nil)
		return nil
	}()
	if err != nil {
		rt.Log.Error("error loading ", t, ": ", err)
		w.StopWatching(nil, err)
		summary.fail(t, err)
		return
	}
	summary.addKey(t, key)
}
