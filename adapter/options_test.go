package adapter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_applyEnvFallback(t *testing.T) {
	t.Setenv(EnvS3StagingDir, "s3://env-bucket/results/")
	t.Setenv(EnvWorkGroup, "env-wg")
	t.Setenv(EnvSchema, "env_schema")
	t.Setenv(EnvCatalog, "env_catalog")
	t.Setenv(EnvPollInterval, "0.25")

	opts := Options{}
	opts.applyEnvFallback()

	assert.Equal(t, "s3://env-bucket/results/", opts.S3StagingDir)
	assert.Equal(t, "env-wg", opts.WorkGroup)
	assert.Equal(t, "env_schema", opts.Schema)
	assert.Equal(t, "env_catalog", opts.Catalog)
	assert.Equal(t, 250*time.Millisecond, opts.PollInterval)
}

func TestOptions_applyEnvFallback_explicitWins(t *testing.T) {
	t.Setenv(EnvS3StagingDir, "s3://env-bucket/results/")
	t.Setenv(EnvPollInterval, "10")

	opts := Options{
		S3StagingDir: "s3://flag-bucket/results/",
		PollInterval: time.Second,
	}
	opts.applyEnvFallback()

	assert.Equal(t, "s3://flag-bucket/results/", opts.S3StagingDir)
	assert.Equal(t, time.Second, opts.PollInterval)
}

func TestOptions_applyEnvFallback_invalidPollIntervalIgnored(t *testing.T) {
	t.Setenv(EnvPollInterval, "not-a-number")

	opts := Options{}
	opts.applyEnvFallback()
	opts.applyDefaults()

	assert.Equal(t, 500*time.Millisecond, opts.PollInterval)
}

func TestOptions_applyDefaults(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")

	opts := Options{}
	opts.applyDefaults()

	assert.Equal(t, "us-east-1", opts.Region)
	assert.Equal(t, "AwsDataCatalog", opts.Catalog)
	assert.Equal(t, 500*time.Millisecond, opts.PollInterval)
}

func TestOptions_applyDefaults_sdkRegionWins(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-west-1")

	opts := Options{}
	opts.applyDefaults()

	// left empty so the SDK's own resolution applies
	assert.Equal(t, "", opts.Region)
}

func TestOptions_validateOptions(t *testing.T) {
	valid := Options{
		S3StagingDir: "s3://bucket/results/",
		PollInterval: 500 * time.Millisecond,
	}
	require.NoError(t, valid.validateOptions())

	missing := Options{PollInterval: 500 * time.Millisecond}
	err := missing.validateOptions()
	require.Error(t, err)
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Contains(t, connErr.Msg, "s3_staging_dir is required")

	badScheme := Options{
		S3StagingDir: "http://bucket/results/",
		PollInterval: 500 * time.Millisecond,
	}
	require.Error(t, badScheme.validateOptions())

	badInterval := Options{
		S3StagingDir: "s3://bucket/results/",
		PollInterval: 0,
	}
	require.Error(t, badInterval.validateOptions())
}
