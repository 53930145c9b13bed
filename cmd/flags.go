package cmd

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/relloyd/starpipe/config"
	"github.com/relloyd/starpipe/helper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type cliFlag struct {
	name      string // name of flag
	val       string // default value
	shortHand string // single character name for the flag
	desc      string // description of the flag; the long text
}

type cliFlags map[string]cliFlag

var switches = cliFlags{
	"mock": cliFlag{name: "mock", shortHand: "m", desc: "mock switch for testing"},
	// Pipeline settings.
	"region": cliFlag{name: "region", shortHand: "R",
		desc: "AWS region of the buckets and secrets (or set AWS_REGION)"},
	"ingest-bucket": cliFlag{name: "ingest-bucket", shortHand: "i",
		desc: "Ingestion bucket for CSV files, of the form [s3://]<bucket>[/<prefix>]"},
	"transform-bucket": cliFlag{name: "transform-bucket", shortHand: "t",
		desc: "Transformed bucket for parquet files, of the form [s3://]<bucket>[/<prefix>]"},
	"source-dsn": cliFlag{name: "source-dsn", shortHand: "s",
		desc: "Operational database URL, e.g. postgres://<user>:<password>@<host>:5432/<database>\n" +
			"(takes priority over source-secret)"},
	"source-secret": cliFlag{name: "source-secret",
		desc: "Name of the AWS Secrets Manager secret holding the operational database credentials"},
	"source-schema": cliFlag{name: "source-schema",
		desc: "Schema of the source tables (omit to use the search path)"},
	"warehouse-dsn": cliFlag{name: "warehouse-dsn", shortHand: "w",
		desc: "Warehouse database URL (takes priority over warehouse-secret)"},
	"warehouse-secret": cliFlag{name: "warehouse-secret",
		desc: "Name of the AWS Secrets Manager secret holding the warehouse credentials"},
	"warehouse-schema": cliFlag{name: "warehouse-schema",
		desc: "Schema of the star tables (omit to use the search path)"},
	"tables": cliFlag{name: "tables", shortHand: "T",
		desc: "CSV list of source tables to ingest"},
	"currency-url": cliFlag{name: "currency-url",
		desc: "URL of the JSON document mapping currency codes to names"},
	"date-start": cliFlag{name: "date-start",
		desc: "First day of dim_date, YYYY-MM-DD"},
	"date-end": cliFlag{name: "date-end",
		desc: "Last day of dim_date, YYYY-MM-DD"},
	"referenced-dimensions-only": cliFlag{name: "referenced-dimensions-only",
		desc: "Restrict dim_staff, dim_counterparty and dim_location to the rows used by fact_sales_order"},
	"ingest-workers": cliFlag{name: "ingest-workers",
		desc: "Number of tables to extract concurrently"},
	"insert-batch": cliFlag{name: "insert-batch",
		desc: "Number of rows in each warehouse INSERT statement"},
	"log-level": cliFlag{name: "log-level", shortHand: "l",
		desc: "Log level: \"error | warn | info | debug\""},
	// Command settings.
	"output": cliFlag{name: "output", shortHand: "o",
		desc: "Specify \"yaml\" or \"json\" to print the run summary"},
	"since": cliFlag{name: "since",
		desc: "Load the latest object of each star table written after this RFC3339 time\n" +
			"(ignored when request-file is given)"},
	"request-file": cliFlag{name: "request-file", shortHand: "f",
		desc: "JSON file naming the objects to load, e.g. the output of \"transform -o json\""},
	"keys": cliFlag{name: "keys", shortHand: "k",
		desc: "Objects to load as \"table:key,table:key\", e.g. \"fact_payment:fact_payment/2025/03/05/17/00/data.parquet\"\n" +
			"(ignored when request-file is given)"},
	"port": cliFlag{name: "port", shortHand: "p",
		desc: "Port to listen on"},
	"schedule": cliFlag{name: "schedule",
		desc: "Cron expression that triggers a full run, e.g. \"*/30 * * * *\" or \"@hourly\"\n" +
			"(omit to trigger runs over HTTP only)"},
}

// commandKeys are the config file keys used by commands rather than the pipeline.
var commandKeys = []string{"output", "since", "port", "schedule"}

// addFlag add a flag to cobra.Command c, based on the type of targetVar (which must be a pointer).
// The name of the flag is looked up in map, cliFlags.
// When running in twelveFactorMode, the targetVar is populated using the value of environment variable for the supplied
// name, or if not set then the supplied default value is used.
// When NOT running in twelveFactorMode, the default value is fetched from config if it exists else the supplied
// defaultValue is applied.
// Supply a value for desc2 to append to the existing description found in map cliFlags.
func (f *cliFlags) addFlag(c *cobra.Command, targetVar interface{}, name string, defaultValue string, required bool, desc2 string) {
	v := reflect.ValueOf(targetVar)
	if v.Kind() != reflect.Ptr {
		fmt.Println("error adding flag: targetVar must be a pointer")
		os.Exit(1)
	}
	sw := f.getCliFlag(name, defaultValue, configGet) // get the cliFlag details, with defaults taken from config or the supplied defaultValue
	desc := sw.desc + desc2
	switch p := targetVar.(type) {
	case *string:
		if twelveFactorMode {
			*p = sw.val
		} else {
			c.Flags().StringVarP(p, sw.name, sw.shortHand, sw.val, desc)
		}
	case *bool:
		defaultBool := strings.ToLower(sw.val) == "true"
		if twelveFactorMode {
			*p = defaultBool
		} else {
			c.Flags().BoolVarP(p, sw.name, sw.shortHand, defaultBool, desc)
		}
	case *int:
		defaultInt, err := strconv.Atoi(sw.val)
		if err != nil {
			fmt.Printf("the value for flag %q must be an integer: %v\n", sw.name, err)
			os.Exit(1)
		}
		if twelveFactorMode {
			*p = defaultInt
		} else {
			c.Flags().IntVarP(p, sw.name, sw.shortHand, defaultInt, desc)
		}
	default:
		panic("Error: unhandled CLI flag target value type")
	}
	if required && !twelveFactorMode {
		_ = c.MarkFlagRequired(sw.name)
	}
}

// addPipelineFlags adds a flag for each named pipeline setting, typed to match config.Pipeline.
// The flags have no target variable: config.Pipeline.LoadFlags applies those given on the command line
// so that they override values from the config file and environment.
func (f *cliFlags) addPipelineFlags(c *cobra.Command, names ...string) {
	defaults := reflect.ValueOf(config.NewPipeline()).Elem()
	typ := defaults.Type()
	for _, name := range names {
		sw, ok := (*f)[name]
		if !ok {
			panic(fmt.Sprintf("unregistered CLI flag, %q", name))
		}
		field := -1
		for idx := 0; idx < typ.NumField(); idx++ {
			if typ.Field(idx).Tag.Get("mapstructure") == name {
				field = idx
			}
		}
		if field < 0 {
			panic(fmt.Sprintf("flag %q is not a pipeline setting", name))
		}
		d := defaults.Field(field)
		switch d.Kind() {
		case reflect.Bool:
			c.Flags().BoolP(sw.name, sw.shortHand, d.Bool(), sw.desc)
		case reflect.Int:
			c.Flags().IntP(sw.name, sw.shortHand, int(d.Int()), sw.desc)
		case reflect.Slice:
			c.Flags().StringP(sw.name, sw.shortHand, strings.Join(d.Interface().([]string), ","), sw.desc)
		default:
			c.Flags().StringP(sw.name, sw.shortHand, d.String(), sw.desc)
		}
	}
}

// getCliFlag fetches the value of name from the environment, when running in twelveFactorMode,
// else read the main config file to find it.
// If a value cannot be found then use the supplied defaultValue in its place.
func (f *cliFlags) getCliFlag(name string, defaultValue string, fnGetConfig func(key string, out interface{}) error) cliFlag {
	s, ok := (*f)[name]
	if !ok {
		panic(fmt.Sprintf("unregistered CLI flag, %q", name))
	}
	if twelveFactorMode { // if we should read env vars...
		if err := helper.ReadValueFromEnv(flagNameToEnvVar(name), &s.val); err != nil {
			s.val = defaultValue
		}
	} else { // else check the config file or apply default...
		err := fnGetConfig(s.name, &s.val)
		if err != nil || s.val == "" {
			if err != nil && !errors.As(err, &config.KeyNotFoundError{}) {
				fmt.Printf("ignoring config value for %q: %v\n", name, err)
			}
			s.val = defaultValue
		}
	}
	return s
}

// flagNameToEnvVar will form a sanitised environment variable name using constants.EnvVarPrefix.
func flagNameToEnvVar(name string) string {
	return helper.EnvVarName(name)
}

// configGet reads key from the main config file.
func configGet(key string, out interface{}) error {
	f, err := config.DefaultFile()
	if err != nil {
		return err
	}
	return f.Get(key, out)
}

// loadPipeline builds the pipeline settings from defaults, the main config file, SP_* environment variables
// and the flags in fs that were given on the command line, in increasing order of precedence.
func loadPipeline(fs *pflag.FlagSet) (*config.Pipeline, error) {
	p := config.NewPipeline()
	if f, err := config.DefaultFile(); err == nil {
		if err := p.LoadFile(f); err != nil {
			return nil, err
		}
	}
	if err := p.LoadEnv(); err != nil {
		return nil, err
	}
	if fs != nil {
		if err := p.LoadFlags(fs); err != nil {
			return nil, err
		}
	}
	return p, nil
}
