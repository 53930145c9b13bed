package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/relloyd/starpipe/actions"
	"github.com/spf13/cobra"
)

var (
	// Default values may be set at compile time.
	version          = "0.1.0"
	buildDate        = "2025-03-05T17:00+0000"
	stackDumpOnPanic bool
)

var rootCmd = &cobra.Command{
	Use:   "starpipe",
	Short: "Extract, transform and load an operational database into a star schema warehouse",
	Long: `Starpipe moves the sales, purchasing and payment data of an operational database into a
star schema warehouse in three stages:

  ingest     extract changed source tables to CSV files in the ingestion bucket
  transform  rebuild stale fact and dimension tables as parquet in the transformed bucket
  load       replace dimensions and append facts in the warehouse

Use "run" to perform all three in turn or "serve" to trigger runs over HTTP or on a schedule.
Settings are read from the config file, then SP_* environment variables, then flags.`,
}

func init() {
	cobra.EnableCommandSorting = false
	rootCmd.PersistentFlags().BoolVar(&stackDumpOnPanic, "print-stack", false, "Print a stack dump if there is a panic")
	_ = rootCmd.PersistentFlags().MarkHidden("print-stack")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if twelveFactorMode { // if we are running based on environment variables...
		if lambdaMode { // if we should handle lambda execution...
			lambda.Start(func(ctx context.Context, event json.RawMessage) ([]*actions.Summary, error) {
				return execute12FactorMode(ctx, twelveFactorActions, event)
			})
		} else {
			summaries, err := execute12FactorMode(context.Background(), twelveFactorActions, nil)
			printSummaries(os.Stdout, "json", summaries)
			if err != nil {
				// execute12FactorMode logs the error.
				os.Exit(1)
			}
		}
	} else { // else we're using CLI args and flags via Cobra...
		if err := rootCmd.Execute(); err != nil {
			// Execute() prints the error.
			os.Exit(1)
		}
	}
}
