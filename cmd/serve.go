package cmd

import (
	"context"
	"net"

	"github.com/relloyd/starpipe/actions"
	"github.com/relloyd/starpipe/config"
	c "github.com/relloyd/starpipe/constants"
	"github.com/relloyd/starpipe/logger"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a web service that triggers runs over HTTP or on a schedule",
	Long: `Start a web service that triggers runs where:

  GET  /health               reports the service is up
  POST /runs/<stage>         starts ingest, transform, load or run in the background;
                             a load may supply a JSON body naming the objects to load
  GET  /runs                 lists runs
  GET  /runs/<run-id>        shows the status and summaries of a run
  POST /runs/<run-id>/stop   cancels a run
  POST /stop                 shuts down the service

Only one run may be in progress at a time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadPipeline(cmd.Flags())
		if err != nil {
			return err
		}
		log := logger.NewWebLogger(c.ServiceName, cfg.LogLevel, stackDumpOnPanic, func() {})
		serveConfig.NewRuntime = func(ctx context.Context, stage string) (*actions.Runtime, error) {
			return actions.NewRuntime(ctx, log, cfg, stage)
		}
		return actions.RunWebServer(log, &serveConfig)
	},
}

var serveConfig = actions.WebServerConfig{
	Scheme: "http",
	Addr:   net.IP{0, 0, 0, 0},
	Port:   8080,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().SortFlags = false
	serveCmd.Flags().IPVarP(&serveConfig.Addr, "address", "a", net.IP{0, 0, 0, 0}, "Address to listen on")
	switches.addFlag(serveCmd, &serveConfig.Port, "port", "8080", false, "")
	switches.addFlag(serveCmd, &serveConfig.Schedule, "schedule", "", false, "")
	switches.addPipelineFlags(serveCmd, config.Keys()...)
	serveCmd.SilenceUsage = true
}
