package athena

import (
	"context"
	"database/sql/driver"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/goccy/go-json"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"
)

type rowsParquetDL struct {
	athena     GetTableMetadataAPI
	s3         S3GetObjectAPI
	queryID    string
	resultMode ResultMode

	downloadedRows *downloadedRows

	ctasTable        string
	db               string
	catalog          string
	ctasTableColumns []types.Column
}

func newRowsParquetDL(cfg rowsConfig) (*rowsParquetDL, error) {
	r := &rowsParquetDL{
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

func (r *rowsParquetDL) init(cfg rowsConfig) error {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = timeoutLimitDefault
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	// Decoding records needs the CTAS column order, so the metadata fetch
	// must complete before the download starts.
	if err := r.getTable(ctx); err != nil {
		return err
	}

	if err := r.downloadParquetData(ctx, cfg.OutputLocation); err != nil {
		return err
	}

	if cfg.AfterDownload != nil {
		if e := cfg.AfterDownload(); e != nil {
			return e
		}
	}

	return nil
}

func (r *rowsParquetDL) downloadParquetData(ctx context.Context, location string) error {
	bucket, objectKeys, err := manifestObjectKeys(ctx, r.s3, location, r.queryID)
	if err != nil {
		return err
	}

	columnNames := make([]string, 0, len(r.ctasTableColumns))
	for _, col := range r.ctasTableColumns {
		columnNames = append(columnNames, aws.ToString(col.Name))
	}

	for _, objectKey := range objectKeys {
		resp, err := r.s3.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(objectKey),
		})
		if err != nil {
			return err
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return err
		}

		datas, err := recordsFromParquet(data, columnNames)
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

func (r *rowsParquetDL) getTable(ctx context.Context) error {
	data, err := r.athena.GetTableMetadata(ctx, &athena.GetTableMetadataInput{
		CatalogName:  aws.String(r.catalog),
		DatabaseName: aws.String(r.db),
		TableName:    aws.String(r.ctasTable),
	})
	if err != nil {
		return err
	}

	r.ctasTableColumns = data.TableMetadata.Columns
	return nil
}

func (r *rowsParquetDL) nextCTAS(dest []driver.Value) error {
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

func (r *rowsParquetDL) Columns() []string {
	var columns []string

	for _, col := range r.ctasTableColumns {
		columns = append(columns, *col.Name)
	}

	return columns
}

func (r *rowsParquetDL) ColumnTypeDatabaseTypeName(index int) string {
	column := r.ctasTableColumns[index]
	if column.Type == nil {
		return ""
	}
	return *column.Type
}

func (r *rowsParquetDL) Next(dest []driver.Value) error {
	return r.nextCTAS(dest)
}

func (r *rowsParquetDL) Close() error {
	return nil
}

// recordsFromParquet decodes a parquet result file into string records in the
// given column order. Missing values become the NULL sentinel.
func recordsFromParquet(data []byte, columnNames []string) ([][]string, error) {
	fr := buffer.NewBufferFileFromBytes(data)
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, nil, 1)
	if err != nil {
		return nil, err
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	rows, err := pr.ReadByNumber(num)
	if err != nil {
		return nil, err
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		// The reader materializes rows as dynamically generated structs;
		// a JSON round trip turns them into addressable maps.
		raw, err := json.Marshal(row)
		if err != nil {
			return nil, err
		}
		var fields map[string]interface{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}

		record := make([]string, len(columnNames))
		for i, name := range columnNames {
			record[i] = formatParquetValue(lookupField(fields, name))
		}
		records = append(records, record)
	}

	return records, nil
}

// lookupField finds a column value case-insensitively; parquet-go exports
// struct fields with upper-cased leading characters.
func lookupField(fields map[string]interface{}, name string) interface{} {
	if v, ok := fields[name]; ok {
		return v
	}
	for k, v := range fields {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return nil
}

func formatParquetValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return nullStringCTAS
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
