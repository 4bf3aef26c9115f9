package athena

import (
	"bufio"
	"compress/gzip"
	"context"
	"database/sql/driver"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ctasFieldDelimiter is Hive's default field delimiter for TEXTFILE tables.
const ctasFieldDelimiter = '\x01'

type rowsGzipDL struct {
	athena     GetTableMetadataAPI
	s3         S3GetObjectAPI
	queryID    string
	resultMode ResultMode

	downloadedRows *downloadedRows

	// ctas table
	ctasTable        string
	db               string
	catalog          string
	ctasTableColumns []types.Column
}

func newRowsGzipDL(cfg rowsConfig) (*rowsGzipDL, error) {
	r := &rowsGzipDL{
		athena:     cfg.Athena,
		s3:         cfg.S3,
		queryID:    cfg.QueryID,
		resultMode: cfg.ResultMode,
		ctasTable:  cfg.CTASTable,
		db:         cfg.DB,
		catalog:    cfg.Catalog,
	}
	err := r.init(cfg)
	return r, err
}

func (r *rowsGzipDL) init(cfg rowsConfig) error {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = timeoutLimitDefault
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	errChan := make(chan error, 2)

	// download and set in memory
	go r.downloadCompressedDataAsync(ctx, errChan, cfg.OutputLocation)

	// get table metadata
	go r.getTableAsync(ctx, errChan)

	for i := 0; i < 2; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-errChan:
			if e != nil {
				return e
			}
		}
	}

	// drop ctas table
	if cfg.AfterDownload != nil {
		if e := cfg.AfterDownload(); e != nil {
			return e
		}
	}

	return nil
}

func (r *rowsGzipDL) downloadCompressedDataAsync(ctx context.Context, errCh chan<- error, location string) {
	errCh <- r.downloadCompressedData(ctx, location)
}

func (r *rowsGzipDL) downloadCompressedData(ctx context.Context, location string) error {
	bucket, objectKeys, err := manifestObjectKeys(ctx, r.s3, location, r.queryID)
	if err != nil {
		return err
	}

	for _, objectKey := range objectKeys {
		resp, err := r.s3.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(objectKey),
		})
		if err != nil {
			return err
		}

		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return err
		}

		datas, err := parseDelimitedRecords(gzipReader)
		gzipReader.Close()
		resp.Body.Close()
		if err != nil {
			return err
		}

		if r.downloadedRows == nil {
			r.downloadedRows = &downloadedRows{
				data: make([][]string, 0, len(datas)*len(objectKeys)),
			}
		}
		r.downloadedRows.data = append(r.downloadedRows.data, datas...)
	}

	if r.downloadedRows == nil {
		r.downloadedRows = &downloadedRows{}
	}

	return nil
}

func (r *rowsGzipDL) getTableAsync(ctx context.Context, errCh chan<- error) {
	data, err := r.athena.GetTableMetadata(ctx, &athena.GetTableMetadataInput{
		CatalogName:  aws.String(r.catalog),
		DatabaseName: aws.String(r.db),
		TableName:    aws.String(r.ctasTable),
	})
	if err != nil {
		errCh <- err
		return
	}

	r.ctasTableColumns = data.TableMetadata.Columns
	errCh <- nil
}

func (r *rowsGzipDL) Columns() []string {
	var columns []string

	for _, col := range r.ctasTableColumns {
		columns = append(columns, *col.Name)
	}

	return columns
}

func (r *rowsGzipDL) ColumnTypeDatabaseTypeName(index int) string {
	column := r.ctasTableColumns[index]
	if column.Type == nil {
		return ""
	}
	return *column.Type
}

func (r *rowsGzipDL) Next(dest []driver.Value) error {
	if r.downloadedRows.cursor >= len(r.downloadedRows.data) {
		return io.EOF
	}

	row := r.downloadedRows.data[r.downloadedRows.cursor]
	if err := convertRowFromTableInfo(r.ctasTableColumns, row, dest); err != nil {
		return err
	}

	r.downloadedRows.cursor++
	return nil
}

func (r *rowsGzipDL) Close() error {
	return nil
}

// manifestObjectKeys downloads the CTAS manifest and returns the bucket and
// the object keys of the result files it lists.
func manifestObjectKeys(ctx context.Context, client S3GetObjectAPI, location, queryID string) (string, []string, error) {
	bucket, _, err := splitS3Location(location)
	if err != nil {
		return "", nil, err
	}

	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(fmt.Sprintf("tables/%s-manifest.csv", queryID)),
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to download CTAS manifest: %w", err)
	}
	defer resp.Body.Close()

	// Manifest lines are full "s3://bucket/key" URLs, one per result file.
	prefixLen := len(location)
	if location[len(location)-1:] != "/" {
		prefixLen++
	}

	keys := make([]string, 0)
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) > prefixLen {
			keys = append(keys, line[prefixLen:])
		}
	}
	if err := scanner.Err(); err != nil {
		return "", nil, err
	}

	return bucket, keys, nil
}

// parseDelimitedRecords reads Hive TEXTFILE output, one record per line with
// \x01 separated fields.
func parseDelimitedRecords(reader io.Reader) ([][]string, error) {
	records := make([][]string, 0)

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := scanner.Text()
		field := ""
		record := make([]string, 0)
		for _, r := range line {
			if r == ctasFieldDelimiter {
				record = append(record, field)
				field = ""
				continue
			}
			field += string(r)
		}
		record = append(record, field)
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
