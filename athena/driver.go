package athena

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/athena"
)

var (
	openFromConfigMutex sync.Mutex
	openFromConfigCount int
)

const (
	// timeoutLimitDefault is the query timeout limit in seconds.
	timeoutLimitDefault uint = 1800

	// PollIntervalDefault is the default frequency for checking query status.
	PollIntervalDefault = 500 * time.Millisecond

	// DefaultCatalog is the data catalog Athena uses unless told otherwise.
	DefaultCatalog = "AwsDataCatalog"

	// DefaultWorkGroup is Athena's default workgroup.
	DefaultWorkGroup = "primary"
)

// Driver is a sql.Driver. It's intended for db/sql.Open().
type Driver struct {
	cfg *Config
}

// NewDriver allows you to register your own driver with `sql.Register`.
// Generally, sql.Open() or athena.Open() should suffice.
func NewDriver(cfg *Config) *Driver {
	return &Driver{cfg}
}

func init() {
	var drv driver.Driver = &Driver{}
	sql.Register("athena", drv)
}

// Open should be used via `db/sql.Open("athena", "<params>")`.
// The following parameters are supported in URI query format (k=v&k2=v2&...)
//
// - `db` (required)
// The Athena database (schema) queries run against.
//
// - `s3_staging_dir` (optional)
// The S3 location Athena writes query results to, in the format
// "s3://bucket/prefix". When empty, the workgroup's configured result
// location is used instead.
//
// - `poll_interval` (optional)
// Athena's API requires polling to retrieve query results. This is the
// frequency at which the driver checks query status. Accepts a
// time.Duration string ("500ms") or a float number of seconds ("0.5").
// Defaults to 500ms.
//
// - `region` (optional)
// Overrides the AWS region resolved from the environment.
//
// - `workgroup` (optional)
// Athena workgroup, defaults to "primary".
//
// - `catalog` (optional)
// Data catalog, defaults to "AwsDataCatalog".
//
// - `profile`, `aws_access_key_id`, `aws_secret_access_key`,
// `aws_session_token` (optional)
// Explicit credentials. When absent, the SDK's default credential provider
// chain applies (AWS_ACCESS_KEY_ID, AWS_PROFILE, and friends).
//
// - `result_mode` (optional)
// One of "api" (default), "dl"/"download", "gzip", "parquet".
//
// - `timeout` (optional)
// Query timeout in seconds, defaults to 1800.
func (d *Driver) Open(connStr string) (driver.Conn, error) {
	cfg := d.cfg
	if cfg == nil {
		var err error
		cfg, err = configFromConnectionString(connStr)
		if err != nil {
			return nil, err
		}
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = PollIntervalDefault
	}

	athenaClient := athena.NewFromConfig(cfg.AWSConfig)

	// output location (with empty value)
	if checkOutputLocation(cfg.ResultMode, cfg.OutputLocation) {
		var err error
		cfg.OutputLocation, err = getOutputLocation(context.Background(), athenaClient, cfg.WorkGroup)
		if err != nil {
			return nil, err
		}
	}

	return &conn{
		awsConfig:      cfg.AWSConfig,
		athena:         athenaClient,
		db:             cfg.Database,
		outputLocation: cfg.OutputLocation,
		pollInterval:   cfg.PollInterval,
		workgroup:      cfg.WorkGroup,
		resultMode:     cfg.ResultMode,
		timeout:        cfg.Timeout,
		catalog:        cfg.Catalog,
	}, nil
}

// Open is a more robust version of `db.Open`, as it accepts a raw aws.Config.
func Open(cfg Config) (*sql.DB, error) {
	if cfg.Database == "" {
		return nil, errors.New("db is required")
	}
	if cfg.WorkGroup == "" {
		cfg.WorkGroup = DefaultWorkGroup
	}
	if cfg.Catalog == "" {
		cfg.Catalog = DefaultCatalog
	}

	openFromConfigMutex.Lock()
	openFromConfigCount++
	name := fmt.Sprintf("athena-%d", openFromConfigCount)
	openFromConfigMutex.Unlock()

	sql.Register(name, &Driver{&cfg})
	return sql.Open(name, "")
}

// Config is the input to Open().
type Config struct {
	AWSConfig      aws.Config
	Database       string
	OutputLocation string
	WorkGroup      string
	PollInterval   time.Duration
	ResultMode     ResultMode
	Timeout        uint
	Catalog        string
}

func configFromConnectionString(connStr string) (*Config, error) {
	args, err := url.ParseQuery(connStr)
	if err != nil {
		return nil, err
	}

	var cfg Config
	ctx := context.Background()
	cfgOpts := []func(*config.LoadOptions) error{}

	if region := args.Get("region"); region != "" {
		cfgOpts = append(cfgOpts, config.WithRegion(region))
	}
	if profile := args.Get("profile"); profile != "" {
		cfgOpts = append(cfgOpts, config.WithSharedConfigProfile(profile))
	}
	if key := args.Get("aws_access_key_id"); key != "" {
		secret := args.Get("aws_secret_access_key")
		token := args.Get("aws_session_token")
		cfgOpts = append(cfgOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, token),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, err
	}

	cfg.AWSConfig = awsCfg
	cfg.Database = args.Get("db")
	cfg.OutputLocation = args.Get("s3_staging_dir")
	cfg.WorkGroup = args.Get("workgroup")
	if cfg.WorkGroup == "" {
		cfg.WorkGroup = DefaultWorkGroup
	}

	if interval := args.Get("poll_interval"); interval != "" {
		cfg.PollInterval, err = ParsePollInterval(interval)
		if err != nil {
			return nil, fmt.Errorf("invalid poll_interval parameter: %s", interval)
		}
	}

	cfg.ResultMode = ResultModeAPI
	modeValue := strings.ToLower(args.Get("result_mode"))
	switch {
	case modeValue == "dl" || modeValue == "download":
		cfg.ResultMode = ResultModeDL
	case modeValue == "gzip":
		cfg.ResultMode = ResultModeGzipDL
	case modeValue == "parquet":
		cfg.ResultMode = ResultModeParquetDL
	}

	cfg.Timeout = timeoutLimitDefault
	if tm := args.Get("timeout"); tm != "" {
		if timeout, err := strconv.ParseUint(tm, 10, 32); err == nil {
			cfg.Timeout = uint(timeout)
		}
	}

	cfg.Catalog = DefaultCatalog
	if ct := args.Get("catalog"); ct != "" {
		cfg.Catalog = ct
	}

	return &cfg, nil
}

// ParsePollInterval parses a poll interval given either as a Go duration
// string ("500ms") or as a float number of seconds ("0.5").
func ParsePollInterval(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("poll interval must be greater than 0: %s", s)
		}
		return d, nil
	}

	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse poll interval: %s", s)
	}
	if secs <= 0 {
		return 0, fmt.Errorf("poll interval must be greater than 0: %s", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// checkOutputLocation reports whether outputLocation should be obtained from
// the workgroup configuration.
func checkOutputLocation(resultMode ResultMode, outputLocation string) bool {
	return resultMode != ResultModeGzipDL && resultMode != ResultModeParquetDL && outputLocation == ""
}

// getOutputLocation returns the workgroup's configured result location.
func getOutputLocation(ctx context.Context, client GetWorkGroupAPI, workGroup string) (string, error) {
	resp, err := client.GetWorkGroup(ctx, &athena.GetWorkGroupInput{
		WorkGroup: &workGroup,
	})
	if err != nil {
		return "", err
	}

	if resp.WorkGroup == nil || resp.WorkGroup.Configuration == nil || resp.WorkGroup.Configuration.ResultConfiguration == nil {
		return "", fmt.Errorf("workgroup %s has no output location configured", workGroup)
	}

	outputLocation := resp.WorkGroup.Configuration.ResultConfiguration.OutputLocation
	if outputLocation == nil || *outputLocation == "" {
		return "", fmt.Errorf("workgroup %s has no output location configured", workGroup)
	}

	return *outputLocation, nil
}
