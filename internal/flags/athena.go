// Package flags defines the pflag sets the CLI is built from.
package flags

import (
	"github.com/spf13/pflag"
)

// Athena holds the connection options parsed from the command line.
type Athena struct {
	S3StagingDir string
	Region       string
	WorkGroup    string
	Schema       string
	Catalog      string
	PollInterval string
}

func NewAthena() *Athena {
	return &Athena{}
}

func (f *Athena) NewFlagSet() *pflag.FlagSet {
	flagSet := &pflag.FlagSet{}

	flagSet.StringVarP(&f.S3StagingDir, "s3-staging-dir", "s",
		"",
		"The S3 location Athena writes query results to, e.g. s3://bucket/prefix/.")
	flagSet.StringVarP(&f.Region, "region", "r",
		"",
		"The AWS region to connect to (the default is 'us-east-1').")
	flagSet.StringVarP(&f.WorkGroup, "work-group", "w",
		"",
		"The Athena workgroup queries run in.")
	flagSet.StringVarP(&f.Schema, "database", "d",
		"",
		"The Athena database (schema) queries run against.")
	flagSet.StringVar(&f.Schema, "schema", // alias
		"",
		"An alias for --database.")
	flagSet.StringVarP(&f.Catalog, "catalog", "c",
		"",
		"The Athena data catalog to browse (the default is 'AwsDataCatalog').")
	flagSet.StringVar(&f.PollInterval, "poll-interval",
		"",
		"How often to check query status, as a duration ('500ms') or seconds ('0.5').")

	return flagSet
}
