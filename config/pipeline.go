package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/relloyd/starpipe/constants"
	"github.com/relloyd/starpipe/helper"
	"github.com/spf13/pflag"
)

// Pipeline holds the settings of one invocation. It is built once and passed to every stage.
// The mapstructure tags are the config file keys, flag names and, via helper.EnvVarName, env var names.
type Pipeline struct {
	Region             string   `mapstructure:"region"`
	IngestBucket       string   `mapstructure:"ingest-bucket"`
	TransformBucket    string   `mapstructure:"transform-bucket"`
	SourceDsn          string   `mapstructure:"source-dsn"`
	SourceSecret       string   `mapstructure:"source-secret"`
	SourceSchema       string   `mapstructure:"source-schema"`
	WarehouseDsn       string   `mapstructure:"warehouse-dsn"`
	WarehouseSecret    string   `mapstructure:"warehouse-secret"`
	WarehouseSchema    string   `mapstructure:"warehouse-schema"`
	Tables             []string `mapstructure:"tables"`
	CurrencyURL        string   `mapstructure:"currency-url"`
	DateStart          string   `mapstructure:"date-start"`
	DateEnd            string   `mapstructure:"date-end"`
	ReferencedDimsOnly bool     `mapstructure:"referenced-dimensions-only"`
	IngestWorkers      int      `mapstructure:"ingest-workers"`
	InsertBatch        int      `mapstructure:"insert-batch"`
	LogLevel           string   `mapstructure:"log-level"`
}

// NewPipeline returns a Pipeline populated with defaults.
func NewPipeline() *Pipeline {
	return &Pipeline{
		Tables:        append([]string{}, constants.IngestedTables...),
		CurrencyURL:   constants.DefaultCurrencyURL,
		DateStart:     constants.DefaultDateDimStart,
		DateEnd:       constants.DefaultDateDimEnd,
		IngestWorkers: constants.DefaultIngestWorkers,
		InsertBatch:   constants.DefaultInsertBatch,
		LogLevel:      constants.DefaultLogLevel,
	}
}

// Keys returns the names of all settings in field order.
func Keys() []string {
	typ := reflect.TypeOf(Pipeline{})
	keys := make([]string, 0, typ.NumField())
	for idx := 0; idx < typ.NumField(); idx++ {
		keys = append(keys, typ.Field(idx).Tag.Get("mapstructure"))
	}
	return keys
}

// LoadFile applies the settings found in f. A missing file is not an error.
func (p *Pipeline) LoadFile(f *File) error {
	data, err := f.GetAll()
	if err != nil {
		return err
	}
	return p.apply(data, fmt.Sprintf("config file %v", f.FullPath))
}

// LoadEnv applies settings found in SP_* environment variables, e.g. SP_INGEST_BUCKET.
func (p *Pipeline) LoadEnv() error {
	data := make(map[string]interface{})
	for _, k := range Keys() {
		if v := helper.ReadValueFromEnvWithDefault(helper.EnvVarName(k), ""); v != "" {
			data[k] = v
		}
	}
	return p.apply(data, "environment")
}

// LoadFlags applies the flags in fs that were set on the command line and are named after a setting.
func (p *Pipeline) LoadFlags(fs *pflag.FlagSet) error {
	data := make(map[string]interface{})
	for _, k := range Keys() {
		if f := fs.Lookup(k); f != nil && f.Changed {
			data[k] = f.Value.String()
		}
	}
	return p.apply(data, "flags")
}

func (p *Pipeline) apply(data map[string]interface{}, source string) error {
	if len(data) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		WeaklyTypedInput: true,
		ErrorUnused:      false,
		Result:           p,
	})
	if err != nil {
		return err
	}
	if _, ok := data["tables"]; ok { // replace rather than merge the list.
		p.Tables = nil
	}
	if err = dec.Decode(data); err != nil {
		return fmt.Errorf("error reading settings from %v: %w", source, err)
	}
	p.Tables = helper.CsvToStringSliceTrimSpaces(strings.Join(p.Tables, ","))
	return nil
}

type ingestSettings struct {
	IngestBucket string   `errorTxt:"ingest-bucket" mandatory:"yes"`
	Source       string   `errorTxt:"source-dsn or source-secret" mandatory:"yes"`
	Tables       []string `errorTxt:"tables" mandatory:"yes"`
}

type transformSettings struct {
	IngestBucket    string `errorTxt:"ingest-bucket" mandatory:"yes"`
	TransformBucket string `errorTxt:"transform-bucket" mandatory:"yes"`
}

type loadSettings struct {
	TransformBucket string `errorTxt:"transform-bucket" mandatory:"yes"`
	Warehouse       string `errorTxt:"warehouse-dsn or warehouse-secret" mandatory:"yes"`
}

// Validate checks that the settings needed by stage are present.
func (p *Pipeline) Validate(stage string) error {
	var required []interface{}
	switch stage {
	case constants.StageIngest:
		required = append(required, p.ingest())
	case constants.StageTransform:
		required = append(required, p.transform())
	case constants.StageLoad:
		required = append(required, p.load())
	case constants.StageRun:
		required = append(required, p.ingest(), p.transform(), p.load())
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
	for _, r := range required {
		if err := helper.ValidateStructIsPopulated(r); err != nil {
			return err
		}
	}
	if p.IngestWorkers < 1 {
		return fmt.Errorf("ingest-workers must be at least 1")
	}
	return nil
}

func (p *Pipeline) ingest() *ingestSettings {
	return &ingestSettings{IngestBucket: p.IngestBucket, Source: p.SourceDsn + p.SourceSecret, Tables: p.Tables}
}

func (p *Pipeline) transform() *transformSettings {
	return &transformSettings{IngestBucket: p.IngestBucket, TransformBucket: p.TransformBucket}
}

func (p *Pipeline) load() *loadSettings {
	return &loadSettings{TransformBucket: p.TransformBucket, Warehouse: p.WarehouseDsn + p.WarehouseSecret}
}

// Redacted returns a copy of p with DSNs hidden, for logging.
func (p Pipeline) Redacted() Pipeline {
	if p.SourceDsn != "" {
		p.SourceDsn = "****"
	}
	if p.WarehouseDsn != "" {
		p.WarehouseDsn = "****"
	}
	p.Tables = append([]string{}, p.Tables...)
	return p
}
