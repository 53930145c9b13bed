package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	"github.com/relloyd/starpipe/actions"
	"github.com/relloyd/starpipe/config"
	c "github.com/relloyd/starpipe/constants"
	"github.com/relloyd/starpipe/helper"
	"github.com/relloyd/starpipe/logger"
	"github.com/spf13/cobra"
)

var (
	ingestFlags = []string{"region", "ingest-bucket", "source-dsn", "source-secret", "source-schema", "tables",
		"ingest-workers", "log-level"}
	transformFlags = []string{"region", "ingest-bucket", "transform-bucket", "currency-url", "date-start", "date-end",
		"referenced-dimensions-only", "log-level"}
	loadFlags = []string{"region", "transform-bucket", "warehouse-dsn", "warehouse-secret", "warehouse-schema",
		"insert-batch", "log-level"}
)

type stageConfig struct {
	output      string
	since       string
	requestFile string
	keys        string
}

var (
	ingestCfg    stageConfig
	transformCfg stageConfig
	loadCfg      stageConfig
	runCfg       stageConfig
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Extract changed source tables to CSV files in the ingestion bucket",
	Long: `Extract the source tables changed since the latest ingestion to CSV files named
<yyyy>/<mm>/<dd>/<hh>/<mi>/<table>.csv in the ingestion bucket.
Order tables are extracted by change; the other tables are extracted whole when any row changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStageCommand(cmd, c.StageIngest, &ingestCfg)
	},
}

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Rebuild stale star tables as parquet files in the transformed bucket",
	Long: `Rebuild each fact and dimension table whose source tables have newer ingestion files
than its latest transformed object, writing <table>/<yyyy>/<mm>/<dd>/<hh>/<mi>/data.parquet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStageCommand(cmd, c.StageTransform, &transformCfg)
	},
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load transformed objects into the warehouse",
	Long: `Replace dimension tables and append fact rows in the warehouse.
By default the latest object of every dimension table is loaded. Fact rows are appended, so fact
tables are loaded only when --since is given, which loads the latest object of every star table
newer than that time, or when --request-file or --keys name the objects to load.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStageCommand(cmd, c.StageLoad, &loadCfg)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest, transform and load in turn",
	Long:  `Ingest, transform and load in turn, loading exactly the objects written by the transform.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStageCommand(cmd, c.StageRun, &runCfg)
	},
}

func init() {
	for _, x := range []struct {
		cmd   *cobra.Command
		cfg   *stageConfig
		flags []string
	}{
		{ingestCmd, &ingestCfg, ingestFlags},
		{transformCmd, &transformCfg, transformFlags},
		{loadCmd, &loadCfg, loadFlags},
		{runCmd, &runCfg, config.Keys()},
	} {
		rootCmd.AddCommand(x.cmd)
		x.cmd.Flags().SortFlags = false
		switches.addPipelineFlags(x.cmd, x.flags...)
		switches.addFlag(x.cmd, &x.cfg.output, "output", "yaml", false, "")
		x.cmd.SilenceUsage = true
	}
	switches.addFlag(loadCmd, &loadCfg.since, "since", "", false, "")
	switches.addFlag(loadCmd, &loadCfg.requestFile, "request-file", "", false, "")
	switches.addFlag(loadCmd, &loadCfg.keys, "keys", "", false, "")
}

func runStageCommand(cmd *cobra.Command, stage string, sc *stageConfig) error {
	cfg, err := loadPipeline(cmd.Flags())
	if err != nil {
		return err
	}
	req, err := sc.loadRequest()
	if err != nil {
		return err
	}
	log := logger.NewLogger(c.ServiceName, cfg.LogLevel, stackDumpOnPanic)
	log.Debug("settings: ", fmt.Sprintf("%+v", cfg.Redacted()))
	summaries, err := runStage(context.Background(), log, cfg, stage, req)
	printSummaries(cmd.OutOrStdout(), sc.output, summaries)
	return err
}

// runStage connects to what stage needs, runs it and closes the connections.
func runStage(ctx context.Context, log logger.Logger, cfg *config.Pipeline, stage string, req actions.LoadRequest) ([]*actions.Summary, error) {
	rt, err := actions.NewRuntime(ctx, log, cfg, stage)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Warn("error closing connections: ", err)
		}
	}()
	return actions.RunStage(ctx, rt, stage, req)
}

// loadRequest reads the request file or the keys, if any, else returns a request for objects newer than since.
func (sc *stageConfig) loadRequest() (actions.LoadRequest, error) {
	req := actions.LoadRequest{}
	if sc.requestFile != "" {
		b, err := ioutil.ReadFile(sc.requestFile)
		if err != nil {
			return req, errors.Wrap(err, "error reading request file")
		}
		return parseLoadRequest(b)
	}
	if sc.keys != "" {
		m := helper.TokensToOrderedMap(sc.keys)
		if m.Len() == 0 {
			return req, fmt.Errorf("invalid value for keys %q, expected table:key,table:key", sc.keys)
		}
		req.Keys = make(map[string]string, m.Len())
		iter := m.IterFunc()
		for kv, ok := iter(); ok; kv, ok = iter() {
			req.Keys[kv.Key.(string)] = kv.Value.(string)
		}
		return req, nil
	}
	if sc.since != "" {
		t, err := time.Parse(time.RFC3339, sc.since)
		if err != nil {
			return req, errors.Wrapf(err, "invalid value for since %q", sc.since)
		}
		req.Since = t
	}
	return req, nil
}

// stagedRequest is a LoadRequest or a stage summary, which carries the same keys.
type stagedRequest struct {
	Stage string `json:"stage"`
	actions.LoadRequest
}

// parseLoadRequest accepts a LoadRequest or the summary of a transform, alone or in a list of summaries.
func parseLoadRequest(b []byte) (actions.LoadRequest, error) {
	var list []stagedRequest
	if err := json.Unmarshal(b, &list); err == nil {
		for _, r := range list {
			if r.Stage == c.StageTransform {
				return r.LoadRequest, nil
			}
		}
		return actions.LoadRequest{}, errors.New("no transform summary found in load request")
	}
	r := stagedRequest{}
	if err := json.Unmarshal(b, &r); err != nil {
		return actions.LoadRequest{}, errors.Wrap(err, "error parsing load request")
	}
	if r.Stage != "" && r.Stage != c.StageTransform && r.Stage != c.StageLoad {
		return actions.LoadRequest{}, fmt.Errorf("unable to load the objects of a %v summary", r.Stage)
	}
	return r.LoadRequest, nil
}

func printSummaries(w io.Writer, format string, summaries []*actions.Summary) {
	if len(summaries) == 0 {
		return
	}
	b, err := actions.Render(format, summaries...)
	if err != nil {
		fmt.Fprintln(w, err)
		return
	}
	fmt.Fprintln(w, string(b))
}
