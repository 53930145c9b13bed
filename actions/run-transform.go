package actions

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/starpipe/aws/s3"
	"github.com/relloyd/starpipe/constants"
	"github.com/relloyd/starpipe/dependency"
	"github.com/relloyd/starpipe/file"
	"github.com/relloyd/starpipe/freshness"
	"github.com/relloyd/starpipe/logger"
	"github.com/relloyd/starpipe/stats"
	"github.com/relloyd/starpipe/table"
	"github.com/relloyd/starpipe/transform"
)

// RunTransform rebuilds the star tables whose source tables have newer ingestion files than their
// latest transformed object, and writes each one to <table>/<time>/data.parquet.
// dim_date is generated when it has never been built.
// A star table with a source that was never ingested is skipped.
// A reference lookup miss stops the stage; other per table failures are collected and returned together.
func RunTransform(ctx context.Context, rt *Runtime) (*Summary, error) {
	runID := runIDFromContext(ctx)
	log := runLogger(rt.Log, runID, constants.StageTransform)
	start := rt.now()
	summary := newSummary(runID, constants.StageTransform, start)
	source, err := latestArtifacts(ctx, rt.IngestStore, freshness.SourceTableName, constants.IngestionFileExt, rt.Graph.SourceTables())
	if err != nil {
		return summary, errors.Wrap(err, "error listing ingestion bucket")
	}
	dest, err := latestArtifacts(ctx, rt.TransformStore, freshness.DestinationTableName, "/"+constants.TransformedFileName, rt.Graph.StarTables())
	if err != nil {
		return summary, errors.Wrap(err, "error listing transformed bucket")
	}
	stale := freshness.GetStaleTables(source, dest, rt.Graph)
	rebuild := freshness.TablesToRebuild(stale, rt.Graph)
	if _, ok := dest[constants.DimDate]; !ok && !contains(rebuild, constants.DimDate) {
		rebuild = append(rebuild, constants.DimDate)
	}
	if len(rebuild) == 0 {
		log.Info("no updates found")
		return summary, summary.finish(rt.now(), nil)
	}
	sortFactsFirst(rebuild)
	log.Info("stale source tables: ", strings.Join(stale.Names(), ", "))
	log.Info("rebuilding ", strings.Join(rebuild, ", "))
	tr := &transformer{
		rt:      rt,
		log:     log,
		source:  source,
		dest:    dest,
		raw:     make(map[string]*table.Dataset),
		built:   make(map[string]*table.Dataset),
		keyTime: start.Format(constants.KeyTimeFormat),
	}
	sm := stats.NewRunStats(log)
	sm.StartDumping()
	var fatal error
	for _, t := range rebuild {
		w := sm.AddTableWatcher(t)
		if missing := tr.missingSources(t); len(missing) > 0 {
			reason := "missing source tables: " + strings.Join(missing, ", ")
			log.Warn("skipping ", t, ": ", reason)
			w.Skip(reason)
			summary.skip(t, reason)
			continue
		}
		key, err := tr.rebuild(ctx, t, w)
		if err != nil {
			log.Error("error transforming ", t, ": ", err)
			summary.fail(t, err)
			if transform.IsLookupMiss(err) {
				fatal = err
				break
			}
			continue
		}
		summary.addKey(t, key)
	}
	sm.StopDumping()
	err = summary.finish(rt.now(), sm)
	if fatal != nil {
		return summary, errors.Wrap(fatal, "transform stopped")
	}
	log.Info("transform complete: ", len(summary.Keys), " tables written")
	return summary, err
}

// transformer holds the state shared by the tables rebuilt in one transform stage.
type transformer struct {
	rt            *Runtime
	log           logger.Logger
	source        freshness.Index
	dest          freshness.Index
	raw           map[string]*table.Dataset // source table to parsed CSV.
	built         map[string]*table.Dataset // star table to output of this stage.
	currencyNames map[string]string
	keyTime       string
}

// missingSources ignores the date pseudo table since dim_date is generated.
func (tr *transformer) missingSources(t string) []string {
	out := make([]string, 0)
	for _, m := range freshness.MissingSources(t, tr.source, tr.rt.Graph) {
		if m != constants.TableDate {
			out = append(out, m)
		}
	}
	return out
}

func (tr *transformer) rebuild(ctx context.Context, t string, w *stats.TableWatcher) (string, error) {
	in, err := tr.inputs(ctx, t)
	if err != nil {
		w.StopWatching(nil, err)
		return "", err
	}
	rows := 0
	for _, ds := range in {
		rows += ds.Len()
	}
	w.StartWatching(rows)
	ds, err := tr.build(ctx, t, in)
	if err != nil {
		w.StopWatching(nil, err)
		return "", err
	}
	if ref, ok := transform.References[t]; ok && tr.rt.Cfg.ReferencedDimsOnly {
		if ds, err = tr.restrict(ctx, ds, ref); err != nil {
			w.StopWatching(nil, err)
			return "", err
		}
	}
	buf := &bytes.Buffer{}
	if err = file.WriteParquet(buf, ds); err != nil {
		w.StopWatching(nil, err)
		return "", errors.Wrap(err, "error writing parquet")
	}
	key := path.Join(t, tr.keyTime, constants.TransformedFileName)
	if err = tr.rt.TransformStore.Put(ctx, key, buf.Bytes()); err != nil {
		w.StopWatching(nil, err)
		return "", errors.Wrapf(err, "error writing %v", key)
	}
	w.StopWatching(ds, nil)
	return key, nil
}

// build runs the registered transform of t and saves the result for use by later tables.
func (tr *transformer) build(ctx context.Context, t string, in transform.Inputs) (*table.Dataset, error) {
	f, err := transform.Registered(t)
	if err != nil {
		return nil, err
	}
	opts := transform.Options{DateStart: tr.rt.Cfg.DateStart, DateEnd: tr.rt.Cfg.DateEnd}
	if t == constants.DimCurrency {
		if opts.CurrencyNames, err = tr.currencies(ctx); err != nil {
			return nil, err
		}
	}
	ds, err := f(in, opts)
	if err != nil {
		return nil, err
	}
	tr.built[t] = ds
	return ds, nil
}

// restrict keeps the rows of dim referenced by the fact named in ref.
// The fact is taken from this stage, else its latest transformed object, else it is built now.
func (tr *transformer) restrict(ctx context.Context, dim *table.Dataset, ref transform.Reference) (*table.Dataset, error) {
	fact, ok := tr.built[ref.Fact]
	if !ok {
		if a, found := tr.dest[ref.Fact]; found {
			data, err := tr.rt.TransformStore.Get(ctx, a.Key)
			if err != nil {
				return nil, errors.Wrapf(err, "error reading %v", a.Key)
			}
			if fact, err = file.ReadParquet(ctx, data); err != nil {
				return nil, errors.Wrapf(err, "error reading %v", a.Key)
			}
		} else {
			if missing := tr.missingSources(ref.Fact); len(missing) > 0 {
				return nil, fmt.Errorf("unable to restrict to rows referenced by %v: missing source tables %v", ref.Fact, strings.Join(missing, ", "))
			}
			in, err := tr.inputs(ctx, ref.Fact)
			if err != nil {
				return nil, err
			}
			if fact, err = tr.build(ctx, ref.Fact, in); err != nil {
				return nil, err
			}
		}
	}
	return transform.ReferencedBy(dim, ref.DimKey, fact, ref.FactKey)
}

func (tr *transformer) inputs(ctx context.Context, t string) (transform.Inputs, error) {
	in := make(transform.Inputs)
	for _, d := range tr.rt.Graph.Dependencies(t) {
		if d == constants.TableDate {
			continue
		}
		ds, err := tr.read(ctx, d)
		if err != nil {
			return nil, err
		}
		in[d] = ds
	}
	return in, nil
}

// read returns the latest ingestion file of source table d. Files are read once per stage.
func (tr *transformer) read(ctx context.Context, d string) (*table.Dataset, error) {
	if ds, ok := tr.raw[d]; ok {
		return ds, nil
	}
	a, ok := tr.source[d]
	if !ok {
		return nil, fmt.Errorf("no ingestion file found for table %v", d)
	}
	data, err := tr.rt.IngestStore.Get(ctx, a.Key)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %v", a.Key)
	}
	ds, err := file.ReadCSV(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing %v", a.Key)
	}
	tr.log.Debug("read ", ds.Len(), " rows from ", a.Key)
	tr.raw[d] = ds
	return ds, nil
}

// currencies fetches the currency names at most once per stage.
func (tr *transformer) currencies(ctx context.Context) (map[string]string, error) {
	if tr.currencyNames != nil {
		return tr.currencyNames, nil
	}
	names, err := tr.rt.Currency.FetchNames(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error fetching currency names")
	}
	tr.currencyNames = names
	return names, nil
}

// latestArtifacts indexes the newest object per table among keys ending in suffix.
func latestArtifacts(ctx context.Context, store s3.Lister, name freshness.NameFunc, suffix string, tables []string) (freshness.Index, error) {
	objects, err := store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	artifacts := make([]freshness.Artifact, 0, len(objects))
	for _, o := range objects {
		if strings.HasSuffix(o.Key, suffix) {
			artifacts = append(artifacts, freshness.Artifact{Key: o.Key, Timestamp: o.LastModified})
		}
	}
	include := make(map[string]bool, len(tables))
	for _, t := range tables {
		include[t] = true
	}
	return freshness.GetLatest(artifacts, name, func(t string) bool { return include[t] }), nil
}

func sortFactsFirst(tables []string) {
	sort.SliceStable(tables, func(i, j int) bool {
		fi, fj := dependency.IsFact(tables[i]), dependency.IsFact(tables[j])
		if fi != fj {
			return fi
		}
		return tables[i] < tables[j]
	})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
