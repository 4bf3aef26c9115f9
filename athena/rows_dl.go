package athena

import (
	"bufio"
	"context"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type rowsDL struct {
	athena     GetQueryResultsAPI
	s3         S3GetObjectAPI
	queryID    string
	resultMode ResultMode

	columnNames []string
	columnTypes []*columnType
	records     [][]downloadField
	recordPtr   int
}

func newRowsDL(cfg rowsConfig) (*rowsDL, error) {
	r := &rowsDL{
		athena:     cfg.Athena,
		s3:         cfg.S3,
		queryID:    cfg.QueryID,
		resultMode: cfg.ResultMode,
	}
	err := r.init(cfg)
	return r, err
}

func (r *rowsDL) init(cfg rowsConfig) error {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Timeout)*time.Second)
	defer cancel()

	errChan := make(chan error, 2)
	// download and set in memory
	go r.downloadCsvAsync(ctx, errChan, cfg.OutputLocation)
	// get result metadata
	go r.getQueryResultsMetadataAsync(ctx, errChan)

	for i := 0; i < 2; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *rowsDL) Columns() []string {
	return r.columnNames
}

func (r *rowsDL) Close() error {
	return nil
}

func (r *rowsDL) Next(dest []driver.Value) error {
	if r.recordPtr >= len(r.records) {
		return io.EOF
	}

	record := r.records[r.recordPtr]
	r.recordPtr++

	for i := range dest {
		if i >= len(record) || record[i].isNil {
			dest[i] = nil
			continue
		}

		v, err := r.columnTypes[i].ConvertValue(record[i].val)
		if err != nil {
			return err
		}
		dest[i] = v
	}

	return nil
}

func (r *rowsDL) ColumnTypeDatabaseTypeName(index int) string {
	return r.columnTypes[index].DatabaseTypeName()
}

func (r *rowsDL) downloadCsvAsync(ctx context.Context, errChan chan<- error, outputLocation string) {
	bucket, prefix, err := splitS3Location(outputLocation)
	if err != nil {
		errChan <- err
		return
	}

	key := fmt.Sprintf("%s.csv", r.queryID)
	if prefix != "" {
		key = fmt.Sprintf("%s/%s", prefix, key)
	}

	resp, err := r.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		errChan <- fmt.Errorf("failed to download result CSV: %w", err)
		return
	}
	defer resp.Body.Close()

	records, err := getRecordsForDL(resp.Body)
	if err != nil {
		errChan <- fmt.Errorf("failed to parse result CSV: %w", err)
		return
	}

	// drop the header row
	if len(records) > 0 {
		records = records[1:]
	}
	r.records = records
	errChan <- nil
}

func (r *rowsDL) getQueryResultsMetadataAsync(ctx context.Context, errChan chan<- error) {
	input := &athena.GetQueryResultsInput{
		QueryExecutionId: aws.String(r.queryID),
		MaxResults:       aws.Int32(1),
	}

	resp, err := r.athena.GetQueryResults(ctx, input)
	if err != nil {
		errChan <- fmt.Errorf("failed to get query results: %w", err)
		return
	}

	if resp.ResultSet == nil || resp.ResultSet.ResultSetMetadata == nil {
		errChan <- fmt.Errorf("invalid response format")
		return
	}

	columnInfo := resp.ResultSet.ResultSetMetadata.ColumnInfo
	r.columnNames = make([]string, len(columnInfo))
	r.columnTypes = make([]*columnType, len(columnInfo))

	for i, info := range columnInfo {
		r.columnNames[i] = *info.Name
		r.columnTypes[i] = newColumnType(*info.Type)
	}
	errChan <- nil
}

// splitS3Location splits "s3://bucket/prefix" into bucket and prefix.
func splitS3Location(location string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(location, "s3://") {
		return "", "", fmt.Errorf("output location must start with s3://: %s", location)
	}
	trimmed := strings.TrimSuffix(location[5:], "/")
	if trimmed == "" {
		return "", "", fmt.Errorf("output location has no bucket: %s", location)
	}
	parts := strings.SplitN(trimmed, "/", 2)
	bucket = parts[0]
	if len(parts) == 2 {
		prefix = parts[1]
	}
	return bucket, prefix, nil
}

// getRecordsForDL parses Athena's result CSV. Quoting distinguishes NULL from
// the empty string, so the parser tracks it per field.
func getRecordsForDL(reader io.Reader) ([][]downloadField, error) {
	records := make([][]downloadField, 0)

	scanner := bufio.NewScanner(reader)

	for scanner.Scan() {
		b := scanner.Bytes()
		useDoubleQuote := false
		delimiter := false
		field := ""
		record := make([]downloadField, 0)
		for {
			r, width := utf8.DecodeRune(b)
			if len(field) == 0 {
				useDoubleQuote = r == '"'
			}

			if r == ',' {
				delimiter = true
				if useDoubleQuote {
					delimiter = false
					if len(field) > 0 && field[len(field)-1:] == string('"') {
						field = field[1 : len(field)-1]
						delimiter = true
					}
				}
			}

			if delimiter {
				isNil := !useDoubleQuote && len(field) == 0
				record = append(record, downloadField{
					isNil: isNil,
					val:   field,
				})
				field = ""
				delimiter = false
			} else {
				field += string(r)
			}
			if width >= len(b) {
				if useDoubleQuote {
					if len(field) > 0 && field[len(field)-1:] == string('"') {
						field = field[1 : len(field)-1]
					}
				}
				isNil := !useDoubleQuote && len(field) == 0
				record = append(record, downloadField{
					isNil: isNil,
					val:   field,
				})
				break
			}
			b = b[width:]
		}

		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
