package athena

import (
	"context"
	"database/sql/driver"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	uuid "github.com/satori/go.uuid"
)

type conn struct {
	awsConfig      aws.Config
	athena         AthenaAPI
	db             string
	outputLocation string
	workgroup      string
	pollInterval   time.Duration
	resultMode     ResultMode
	timeout        uint
	catalog        string
}

func (c *conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if len(args) > 0 {
		// Athena has no native bind parameters; fall back to the
		// PREPARE/EXECUTE path via PrepareContext.
		return nil, driver.ErrSkip
	}

	return c.runQuery(ctx, query)
}

func (c *conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if len(args) > 0 {
		return nil, driver.ErrSkip
	}

	_, err := c.runQuery(ctx, query)
	return driver.ResultNoRows, err
}

func (c *conn) runQuery(ctx context.Context, query string) (driver.Rows, error) {
	queryID, err := c.startQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := c.waitOnQuery(ctx, queryID); err != nil {
		return nil, err
	}

	resultMode := c.resultMode
	if rmode, ok := getResultMode(ctx); ok {
		resultMode = rmode
	}

	timeout := c.timeout
	if tm, ok := getTimeout(ctx); ok {
		timeout = tm
	}

	catalog := c.catalog
	if ct, ok := getCatalog(ctx); ok {
		catalog = ct
	}

	cfg := rowsConfig{
		Athena:         c.athena,
		S3:             newS3Client(c.awsConfig),
		QueryID:        queryID,
		DB:             c.db,
		OutputLocation: c.outputLocation,
		SkipHeader:     !isDDLQuery(query) && !isCTASQuery(query),
		ResultMode:     resultMode,
		Timeout:        timeout,
		Catalog:        catalog,
	}

	return newRows(cfg)
}

func (c *conn) dropCTASTable(ctx context.Context, table string) func() error {
	return func() error {
		queryID, err := c.startQuery(ctx, fmt.Sprintf("DROP TABLE %s", table))
		if err != nil {
			return err
		}
		return c.waitOnQuery(ctx, queryID)
	}
}

// startQuery starts an Athena query and returns its ID.
func (c *conn) startQuery(ctx context.Context, query string) (string, error) {
	input := &athena.StartQueryExecutionInput{
		QueryString: &query,
		QueryExecutionContext: &types.QueryExecutionContext{
			Database: &c.db,
			Catalog:  &c.catalog,
		},
		WorkGroup: &c.workgroup,
	}

	if c.outputLocation != "" {
		input.ResultConfiguration = &types.ResultConfiguration{
			OutputLocation: &c.outputLocation,
		}
	}

	resp, err := c.athena.StartQueryExecution(ctx, input)
	if err != nil {
		return "", err
	}

	return *resp.QueryExecutionId, nil
}

// waitOnQuery blocks until a query finishes, returning an error if it failed.
func (c *conn) waitOnQuery(ctx context.Context, queryID string) error {
	input := &athena.GetQueryExecutionInput{
		QueryExecutionId: &queryID,
	}

	timeout := c.timeout
	if tm, ok := getTimeout(ctx); ok {
		timeout = tm
	}
	if timeout == 0 {
		timeout = timeoutLimitDefault
	}

	start := time.Now()
	for {
		resp, err := c.athena.GetQueryExecution(ctx, input)
		if err != nil {
			return err
		}

		if resp.QueryExecution == nil {
			return fmt.Errorf("nil QueryExecution")
		}

		state := resp.QueryExecution.Status.State
		if state == types.QueryExecutionStateSucceeded {
			return nil
		}

		if state == types.QueryExecutionStateFailed ||
			state == types.QueryExecutionStateCancelled {
			reason := "unknown reason"
			if r := resp.QueryExecution.Status.StateChangeReason; r != nil {
				reason = *r
			}
			return fmt.Errorf("query execution failed: %s", reason)
		}

		if uint(time.Since(start).Seconds()) > timeout {
			c.stopQuery(queryID)
			return fmt.Errorf("query timeout after %d seconds", timeout)
		}

		select {
		case <-ctx.Done():
			c.stopQuery(queryID)
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *conn) stopQuery(queryID string) error {
	input := &athena.StopQueryExecutionInput{
		QueryExecutionId: &queryID,
	}

	_, err := c.athena.StopQueryExecution(context.Background(), input)
	return err
}

func (c *conn) Prepare(query string) (driver.Stmt, error) {
	return c.prepareContext(context.Background(), query)
}

func (c *conn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stmt, err := c.prepareContext(ctx, query)
	if err != nil {
		return nil, err
	}

	select {
	default:
	case <-ctx.Done():
		stmt.Close()
		return nil, ctx.Err()
	}

	return stmt, nil
}

func (c *conn) prepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	isSelect := isSelectQuery(query)
	resultMode := c.resultMode
	if rmode, ok := getResultMode(ctx); ok {
		resultMode = rmode
	}
	if !isSelect {
		resultMode = ResultModeAPI
	}

	// ctas
	var ctasTable string
	var afterDownload func() error
	if isCreatingCTASTable(isSelect, resultMode) {
		ctasTable = fmt.Sprintf("tmp_ctas_%v", strings.Replace(uuid.NewV4().String(), "-", "", -1))
		format := "TEXTFILE"
		if resultMode == ResultModeParquetDL {
			format = "PARQUET"
		}
		query = fmt.Sprintf("CREATE TABLE %s WITH (format='%s') AS %s", ctasTable, format, query)
		afterDownload = c.dropCTASTable(ctx, ctasTable)
	}

	numInput := len(strings.Split(query, "?")) - 1

	prepareKey := fmt.Sprintf("tmp_prepare_%v", strings.Replace(uuid.NewV4().String(), "-", "", -1))
	newQuery := fmt.Sprintf("PREPARE %s FROM %s", prepareKey, query)

	queryID, err := c.startQuery(ctx, newQuery)
	if err != nil {
		return nil, err
	}

	if err := c.waitOnQuery(ctx, queryID); err != nil {
		return nil, err
	}

	return &stmtAthena{
		prepareKey:    prepareKey,
		numInput:      numInput,
		ctasTable:     ctasTable,
		afterDownload: afterDownload,
		conn:          c,
		resultMode:    resultMode,
	}, nil
}

func (c *conn) Begin() (driver.Tx, error) {
	return nil, fmt.Errorf("athena doesn't support transactions")
}

func (c *conn) Close() error {
	return nil
}

var _ driver.QueryerContext = (*conn)(nil)
var _ driver.ExecerContext = (*conn)(nil)
var _ driver.ConnPrepareContext = (*conn)(nil)

// supported DDL statements by Athena
// https://docs.aws.amazon.com/athena/latest/ug/language-reference.html
var ddlQueryRegex = regexp.MustCompile(`(?i)^\s*(ALTER|CREATE|DESCRIBE|DROP|MSCK|SHOW)`)

var selectQueryRegex = regexp.MustCompile(`(?i)^\s*SELECT`)

var ctasQueryRegex = regexp.MustCompile(`(?i)^\s*CREATE.+AS\s+SELECT`)

func isDDLQuery(query string) bool {
	return ddlQueryRegex.MatchString(query)
}

func isSelectQuery(query string) bool {
	return selectQueryRegex.MatchString(query)
}

func isCTASQuery(query string) bool {
	return ctasQueryRegex.MatchString(query)
}

func isCreatingCTASTable(isSelect bool, resultMode ResultMode) bool {
	return isSelect && (resultMode == ResultModeGzipDL || resultMode == ResultModeParquetDL)
}
