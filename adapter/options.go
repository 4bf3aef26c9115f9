package adapter

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/singlow/harlequin-athena/athena"
)

// Environment variables consulted when the corresponding option is unset.
// AWS credentials, region and profile are deliberately absent: the SDK's
// default chain already resolves AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY,
// AWS_SESSION_TOKEN, AWS_REGION/AWS_DEFAULT_REGION and AWS_PROFILE.
const (
	EnvS3StagingDir = "HARLEQUIN_ATHENA_S3_STAGING_DIR"
	EnvWorkGroup    = "HARLEQUIN_ATHENA_WORK_GROUP"
	EnvSchema       = "HARLEQUIN_ATHENA_SCHEMA"
	EnvCatalog      = "HARLEQUIN_ATHENA_CATALOG"
	EnvPollInterval = "HARLEQUIN_ATHENA_POLL_INTERVAL"
)

// DefaultRegion is used when neither the option nor the SDK environment
// provides one.
const DefaultRegion = "us-east-1"

// Options is the flat option set the adapter is configured from.
type Options struct {
	Region             string
	S3StagingDir       string `validate:"required,startswith=s3://"`
	WorkGroup          string
	Schema             string
	Catalog            string
	PollInterval       time.Duration `validate:"gt=0"`
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSSessionToken    string
	Profile            string
}

var validate = validator.New()

// applyEnvFallback fills unset options from HARLEQUIN_ATHENA_* environment
// variables. An invalid poll interval value is ignored in favor of the
// default.
func (o *Options) applyEnvFallback() {
	if o.S3StagingDir == "" {
		o.S3StagingDir = os.Getenv(EnvS3StagingDir)
	}
	if o.WorkGroup == "" {
		o.WorkGroup = os.Getenv(EnvWorkGroup)
	}
	if o.Schema == "" {
		o.Schema = os.Getenv(EnvSchema)
	}
	if o.Catalog == "" {
		o.Catalog = os.Getenv(EnvCatalog)
	}
	if o.PollInterval == 0 {
		if v := os.Getenv(EnvPollInterval); v != "" {
			if d, err := athena.ParsePollInterval(v); err == nil {
				o.PollInterval = d
			}
		}
	}
}

func (o *Options) applyDefaults() {
	if o.Region == "" && os.Getenv("AWS_REGION") == "" && os.Getenv("AWS_DEFAULT_REGION") == "" {
		o.Region = DefaultRegion
	}
	if o.Catalog == "" {
		o.Catalog = athena.DefaultCatalog
	}
	if o.PollInterval == 0 {
		o.PollInterval = athena.PollIntervalDefault
	}
}

func (o *Options) validateOptions() error {
	if o.S3StagingDir == "" {
		return newConnectionError("s3_staging_dir is required for Athena connections", nil)
	}
	if err := validate.Struct(o); err != nil {
		return newConnectionError(err.Error(), err)
	}
	return nil
}
