// Package config loads connection options from a YAML file. File values
// rank below flags and environment variables and above built-in defaults.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/singlow/harlequin-athena/adapter"
)

// File is the YAML config file shape.
type File struct {
	Region       string `yaml:"region"`
	S3StagingDir string `yaml:"s3_staging_dir"`
	WorkGroup    string `yaml:"work_group"`
	Schema       string `yaml:"schema"`
	Catalog      string `yaml:"catalog"`
	PollInterval string `yaml:"poll_interval"`
	Profile      string `yaml:"profile"`
}

// Load reads and parses the config file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}
	return &f, nil
}

// Apply fills unset options from the file. An option already set by a flag,
// or covered by its environment variable, is left alone so the adapter's
// environment fallback keeps precedence over the file.
func (f *File) Apply(opts *adapter.Options) {
	if opts.Region == "" && f.Region != "" {
		opts.Region = f.Region
	}
	if opts.S3StagingDir == "" && os.Getenv(adapter.EnvS3StagingDir) == "" {
		opts.S3StagingDir = f.S3StagingDir
	}
	if opts.WorkGroup == "" && os.Getenv(adapter.EnvWorkGroup) == "" {
		opts.WorkGroup = f.WorkGroup
	}
	if opts.Schema == "" && os.Getenv(adapter.EnvSchema) == "" {
		opts.Schema = f.Schema
	}
	if opts.Catalog == "" && os.Getenv(adapter.EnvCatalog) == "" {
		opts.Catalog = f.Catalog
	}
	if opts.Profile == "" && f.Profile != "" {
		opts.Profile = f.Profile
	}
}

// PollIntervalValue returns the file's poll interval when the flag and the
// environment leave it unset.
func (f *File) PollIntervalValue(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if os.Getenv(adapter.EnvPollInterval) != "" {
		return ""
	}
	return f.PollInterval
}
