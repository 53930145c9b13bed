package actions

import (
	"context"
	"database/sql"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/relloyd/starpipe/aws/s3"
	"github.com/relloyd/starpipe/aws/secrets"
	"github.com/relloyd/starpipe/config"
	"github.com/relloyd/starpipe/constants"
	"github.com/relloyd/starpipe/currency"
	"github.com/relloyd/starpipe/dependency"
	"github.com/relloyd/starpipe/logger"
	"github.com/relloyd/starpipe/rdbms"
)

// CurrencyNamer supplies currency names keyed by lower case currency code.
type CurrencyNamer interface {
	FetchNames(ctx context.Context) (map[string]string, error)
}

// CredentialsFetcher looks up database credentials by secret name.
type CredentialsFetcher interface {
	GetCredentials(ctx context.Context, secretName string) (secrets.DatabaseCredentials, error)
}

// Runtime holds the collaborators used by the stages of one invocation.
// Fields a stage does not use may be nil.
type Runtime struct {
	Log            logger.Logger
	Cfg            *config.Pipeline
	Graph          dependency.Graph
	IngestStore    s3.BasicClient
	TransformStore s3.BasicClient
	Source         rdbms.Connector
	Warehouse      rdbms.Connector
	Currency       CurrencyNamer
	Now            func() time.Time
	closers        []func() error
}

// NewRuntime connects to the buckets and databases that stage needs.
func NewRuntime(ctx context.Context, log logger.Logger, cfg *config.Pipeline, stage string) (*Runtime, error) {
	if err := cfg.Validate(stage); err != nil {
		return nil, err
	}
	awsCfg := aws.NewConfig()
	if cfg.Region != "" {
		awsCfg = awsCfg.WithRegion(cfg.Region)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "error creating AWS session")
	}
	region := aws.StringValue(sess.Config.Region)
	rt := &Runtime{
		Log:      log,
		Cfg:      cfg,
		Graph:    dependency.Default(),
		Currency: currency.NewClient(cfg.CurrencyURL),
		Now:      time.Now,
	}
	needs := func(stages ...string) bool {
		for _, s := range stages {
			if s == stage {
				return true
			}
		}
		return false
	}
	if needs(constants.StageIngest, constants.StageTransform, constants.StageRun) {
		if rt.IngestStore, err = newStore(sess, cfg.IngestBucket, region); err != nil {
			return nil, err
		}
	}
	if needs(constants.StageTransform, constants.StageLoad, constants.StageRun) {
		if rt.TransformStore, err = newStore(sess, cfg.TransformBucket, region); err != nil {
			return nil, err
		}
	}
	fetcher := secrets.NewFetcher(sess)
	if needs(constants.StageIngest, constants.StageRun) {
		db, err := openDatabase(ctx, log, fetcher, cfg.SourceDsn, cfg.SourceSecret)
		if err != nil {
			return nil, errors.Wrap(err, "source database")
		}
		rt.Source = db
		rt.closers = append(rt.closers, db.Close)
	}
	if needs(constants.StageLoad, constants.StageRun) {
		db, err := openDatabase(ctx, log, fetcher, cfg.WarehouseDsn, cfg.WarehouseSecret)
		if err != nil {
			_ = rt.Close()
			return nil, errors.Wrap(err, "warehouse database")
		}
		rt.Warehouse = db
		rt.closers = append(rt.closers, db.Close)
	}
	return rt, nil
}

// Close releases database connections.
func (rt *Runtime) Close() error {
	var result *multierror.Error
	for _, c := range rt.closers {
		if err := c(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	rt.closers = nil
	return result.ErrorOrNil()
}

func (rt *Runtime) now() time.Time {
	if rt.Now == nil {
		return time.Now().UTC()
	}
	return rt.Now().UTC()
}

func newStore(sess *session.Session, bucketPrefix string, region string) (s3.BasicClient, error) {
	b, err := s3.ParseDSN(bucketPrefix, region)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing bucket %v", bucketPrefix)
	}
	return s3.NewBasicClient(sess, b.Name, b.Prefix), nil
}

// openDatabase connects using dsn, or the credentials held in secretName when dsn is empty.
func openDatabase(ctx context.Context, log logger.Logger, f CredentialsFetcher, dsn string, secretName string) (*sql.DB, error) {
	if dsn == "" {
		creds, err := f.GetCredentials(ctx, secretName)
		if err != nil {
			return nil, err
		}
		dsn = creds.DSN()
	}
	return rdbms.OpenDbConnection(ctx, log, dsn)
}
