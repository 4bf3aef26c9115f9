// Package adapter implements the Harlequin adapter contract for Amazon
// Athena: it maps a flat option set onto an Athena connection, executes
// queries through the athena database/sql driver, and exposes results and
// catalog metadata in the shape the host client expects.
package adapter

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/singlow/harlequin-athena/athena"
	"github.com/singlow/harlequin-athena/catcache"
)

// Adapter opens connections from a fixed option set.
type Adapter interface {
	Connect(ctx context.Context) (Connection, error)
}

// Connection executes queries and serves catalog metadata.
type Connection interface {
	Execute(ctx context.Context, query string) (Cursor, error)
	GetCatalog(ctx context.Context) (*Catalog, error)
	InvalidateCatalogCache()
	Close() error
}

// Cursor exposes an executed query's columns and rows.
type Cursor interface {
	Columns() []Column
	SetLimit(limit int) Cursor
	FetchAll() ([][]interface{}, error)
}

// Column is a result column with its short type label.
type Column struct {
	Name      string
	TypeLabel string
}

// AthenaAdapter is the Athena implementation of Adapter.
type AthenaAdapter struct {
	opts   Options
	logger *slog.Logger
}

var _ Adapter = (*AthenaAdapter)(nil)

// Option customizes an AthenaAdapter.
type Option func(*AthenaAdapter)

// WithLogger overrides the adapter's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *AthenaAdapter) {
		a.logger = logger
	}
}

// New builds an adapter from the given options. Unset options fall back to
// HARLEQUIN_ATHENA_* environment variables, then to defaults.
func New(opts Options, adapterOpts ...Option) *AthenaAdapter {
	opts.applyEnvFallback()
	opts.applyDefaults()

	a := &AthenaAdapter{
		opts:   opts,
		logger: slog.Default(),
	}
	for _, o := range adapterOpts {
		o(a)
	}
	return a
}

// Options returns the resolved option set.
func (a *AthenaAdapter) Options() Options {
	return a.opts
}

// Connect validates the options and opens an Athena connection.
func (a *AthenaAdapter) Connect(ctx context.Context) (Connection, error) {
	if err := a.opts.validateOptions(); err != nil {
		return nil, err
	}

	awsCfg, err := a.loadAWSConfig(ctx)
	if err != nil {
		return nil, newConnectionError(err.Error(), err)
	}

	schema := a.opts.Schema
	if schema == "" {
		schema = "default"
	}

	db, err := athena.Open(athena.Config{
		AWSConfig:      awsCfg,
		Database:       schema,
		OutputLocation: a.opts.S3StagingDir,
		WorkGroup:      a.opts.WorkGroup,
		PollInterval:   a.opts.PollInterval,
		Catalog:        a.opts.Catalog,
	})
	if err != nil {
		return nil, newConnectionError(err.Error(), err)
	}

	a.logger.Debug("connected to athena",
		"region", a.opts.Region,
		"catalog", a.opts.Catalog,
		"schema", a.opts.Schema,
		"work_group", a.opts.WorkGroup,
		"poll_interval", a.opts.PollInterval,
	)

	cache, err := catcache.New()
	if err != nil {
		// degrade to in-memory caching only
		a.logger.Debug("catalog cache unavailable", "error", err)
		cache = nil
	}

	return newConnection(db, a.opts, cache, a.logger), nil
}

func (a *AthenaAdapter) loadAWSConfig(ctx context.Context) (aws.Config, error) {
	cfgOpts := []func(*config.LoadOptions) error{}

	if a.opts.Region != "" {
		cfgOpts = append(cfgOpts, config.WithRegion(a.opts.Region))
	}
	if a.opts.Profile != "" {
		cfgOpts = append(cfgOpts, config.WithSharedConfigProfile(a.opts.Profile))
	}
	if a.opts.AWSAccessKeyID != "" && a.opts.AWSSecretAccessKey != "" {
		cfgOpts = append(cfgOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				a.opts.AWSAccessKeyID,
				a.opts.AWSSecretAccessKey,
				a.opts.AWSSessionToken,
			),
		))
	}

	return config.LoadDefaultConfig(ctx, cfgOpts...)
}
