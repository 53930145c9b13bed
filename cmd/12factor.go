package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/relloyd/starpipe/actions"
	"github.com/relloyd/starpipe/config"
	c "github.com/relloyd/starpipe/constants"
	"github.com/relloyd/starpipe/helper"
	"github.com/relloyd/starpipe/logger"
)

// init will be called first due to the lexical order in which these functions are executed.
// This ensures the value of twelveFactorMode is set before other init() functions configure Cobra.
func init() {
	setupTwelveFactorMode()
}

// setupTwelveFactorMode will enable or disable 12 factor mode based on environment variable.
func setupTwelveFactorMode() {
	mode := os.Getenv(envVarTwelveFactorMode)
	if mode != "" { // if variable for 12factor mode is set and we should read env vars to determine actions...
		twelveFactorMode = true
		lambdaMode = strings.ToLower(mode) == "lambda"
	} else { // else 12factor mode should be off...
		twelveFactorMode = false // explicitly turn off this mode since tests may have turned it on while others require it off.
		lambdaMode = false
	}
}

const (
	envVarTwelveFactorMode = c.EnvVarPrefix + "_" + "12FACTOR_MODE"
	envVarCommand          = c.EnvVarPrefix + "_" + "COMMAND" // ingest|transform|load|run
	envVarSince            = c.EnvVarPrefix + "_" + "SINCE"
	envVarStackDump        = c.EnvVarPrefix + "_" + "STACK_DUMP"
)

var (
	twelveFactorMode bool // true if os env var envVarTwelveFactorMode is set
	lambdaMode       bool // true if os env var envVarTwelveFactorMode is "lambda"
	twelveFactorVars = map[string]string{
		envVarCommand:   "",
		envVarSince:     "",
		envVarStackDump: "",
	}
	twelveFactorVarsSensitive = map[string]string{ // used to flag some of the above variables as being sensitive.
		helper.GetDsnEnvVarName("source"):    "",
		helper.GetDsnEnvVarName("warehouse"): "",
	}
)

func init() {
	for _, k := range config.Keys() {
		twelveFactorVars[helper.EnvVarName(k)] = ""
	}
}

// runnerFunc runs a stage with settings taken from the environment.
type runnerFunc func(ctx context.Context, log logger.Logger, cfg *config.Pipeline, req actions.LoadRequest) ([]*actions.Summary, error)

type twelveFactorAction struct {
	setupFunc  func(req *actions.LoadRequest, event []byte) error
	runnerFunc runnerFunc
}

var twelveFactorActions = map[string]twelveFactorAction{
	c.StageIngest:    {runnerFunc: getStageRunner(c.StageIngest)},
	c.StageTransform: {runnerFunc: getStageRunner(c.StageTransform)},
	c.StageLoad:      {setupFunc: setupLoadRequest, runnerFunc: getStageRunner(c.StageLoad)},
	c.StageRun:       {runnerFunc: getStageRunner(c.StageRun)},
}

func getStageRunner(stage string) runnerFunc {
	return func(ctx context.Context, log logger.Logger, cfg *config.Pipeline, req actions.LoadRequest) ([]*actions.Summary, error) {
		return runStage(ctx, log, cfg, stage, req)
	}
}

// setupLoadRequest reads the objects to load from event, which may be a LoadRequest or a transform summary.
// Without an event, objects newer than envVarSince are loaded.
func setupLoadRequest(req *actions.LoadRequest, event []byte) error {
	if len(event) > 0 && string(event) != "null" && string(event) != "{}" {
		r, err := parseLoadRequest(event)
		if err != nil {
			return err
		}
		*req = r
		return nil
	}
	if since := twelveFactorVars[envVarSince]; since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return fmt.Errorf("invalid value for %v: %w", envVarSince, err)
		}
		req.Since = t
	}
	return nil
}

// execute12FactorMode runs the stage named by envVarCommand with settings read from SP_* environment variables.
// event is the payload of a lambda invocation and may be nil.
func execute12FactorMode(ctx context.Context, acts map[string]twelveFactorAction, event []byte) (summaries []*actions.Summary, err error) {
	for k := range twelveFactorVars { // for each env variable that we need...
		twelveFactorVars[k] = os.Getenv(k)
	}
	cfg := config.NewPipeline()
	if err = cfg.LoadEnv(); err != nil {
		fmt.Println(err)
		return nil, err
	}
	var log *logger.LoggerImpl
	if lambdaMode {
		log = logger.NewLambdaLogger(c.ServiceName, cfg.LogLevel)
	} else {
		log = logger.NewLogger(c.ServiceName, cfg.LogLevel, twelveFactorVars[envVarStackDump] != "")
	}
	log.Info("Starpipe is running in 12 Factor mode...")
	for k, v := range twelveFactorVars {
		if _, sensitive := twelveFactorVarsSensitive[k]; sensitive && v != "" {
			v = "<obfuscated>"
		}
		log.Debug(k, "=", v)
	}
	a, ok := acts[twelveFactorVars[envVarCommand]]
	if !ok {
		err = fmt.Errorf("invalid command %q: use one of %v", twelveFactorVars[envVarCommand], strings.Join(actions.Stages(), ", "))
		log.Error(err.Error())
		return nil, err
	}
	req := actions.LoadRequest{}
	if a.setupFunc != nil {
		if err = a.setupFunc(&req, event); err != nil {
			log.Error("Error: ", err)
			return nil, err
		}
	}
	summaries, err = a.runnerFunc(ctx, log, cfg, req)
	if err != nil {
		log.Error("Error: ", err)
	}
	return summaries, err
}
