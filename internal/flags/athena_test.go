package flags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAthena_NewFlagSet(t *testing.T) {
	t.Parallel()
	athena := NewAthena()

	flagSet := athena.NewFlagSet()

	args := []string{
		"--s3-staging-dir", "s3://bucket/results/",
		"--region", "eu-west-1",
		"--work-group", "analytics",
		"--database", "sales",
		"--catalog", "glue_catalog",
		"--poll-interval", "0.5",
	}

	err := flagSet.Parse(args)
	assert.NoError(t, err)

	assert.Equal(t, "s3://bucket/results/", athena.S3StagingDir)
	assert.Equal(t, "eu-west-1", athena.Region)
	assert.Equal(t, "analytics", athena.WorkGroup)
	assert.Equal(t, "sales", athena.Schema)
	assert.Equal(t, "glue_catalog", athena.Catalog)
	assert.Equal(t, "0.5", athena.PollInterval)
}

func TestAthena_NewFlagSet_shorthand(t *testing.T) {
	t.Parallel()
	athena := NewAthena()

	flagSet := athena.NewFlagSet()

	err := flagSet.Parse([]string{
		"-s", "s3://bucket/results/",
		"-r", "us-west-2",
		"-w", "primary",
		"-d", "default",
		"-c", "AwsDataCatalog",
	})
	assert.NoError(t, err)

	assert.Equal(t, "s3://bucket/results/", athena.S3StagingDir)
	assert.Equal(t, "us-west-2", athena.Region)
	assert.Equal(t, "primary", athena.WorkGroup)
	assert.Equal(t, "default", athena.Schema)
	assert.Equal(t, "AwsDataCatalog", athena.Catalog)
}

func TestAthena_NewFlagSet_schemaAlias(t *testing.T) {
	t.Parallel()
	athena := NewAthena()

	flagSet := athena.NewFlagSet()

	err := flagSet.Parse([]string{"--schema", "sales"})
	assert.NoError(t, err)

	assert.Equal(t, "sales", athena.Schema)
}

func TestAWS_NewFlagSet(t *testing.T) {
	t.Parallel()
	aws := NewAWS()

	flagSet := aws.NewFlagSet()

	err := flagSet.Parse([]string{
		"--profile", "dev",
		"--aws-access-key-id", "AKIAEXAMPLE",
		"--aws-secret-access-key", "secret",
		"--aws-session-token", "token",
	})
	assert.NoError(t, err)

	assert.Equal(t, "dev", aws.Profile)
	assert.Equal(t, "AKIAEXAMPLE", aws.AWSAccessKeyID)
	assert.Equal(t, "secret", aws.AWSSecretAccessKey)
	assert.Equal(t, "token", aws.AWSSessionToken)
}
