package athena

import (
	"database/sql/driver"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func newS3Client(cfg aws.Config) *s3.Client {
	return s3.NewFromConfig(cfg)
}

type rowsConfig struct {
	Athena         AthenaAPI
	S3             S3GetObjectAPI
	QueryID        string
	SkipHeader     bool
	ResultMode     ResultMode
	OutputLocation string
	Timeout        uint
	AfterDownload  func() error
	CTASTable      string
	DB             string
	Catalog        string
}

// downloadedRows holds result rows fetched from the staging directory.
type downloadedRows struct {
	cursor int
	data   [][]string
}

// downloadField is a single CSV field; empty unquoted fields are NULL.
type downloadField struct {
	val   string
	isNil bool
}

func newRows(cfg rowsConfig) (driver.Rows, error) {
	var r driver.Rows
	var err error
	switch cfg.ResultMode {
	case ResultModeDL:
		r, err = newRowsDL(cfg)
	case ResultModeGzipDL:
		r, err = newRowsGzipDL(cfg)
	case ResultModeParquetDL:
		r, err = newRowsParquetDL(cfg)
	default:
		r, err = newRowsAPI(cfg)
	}

	return r, err
}

// columnType carries the Athena type name for a result column.
type columnType struct {
	typeName string
}

func newColumnType(typeName string) *columnType {
	return &columnType{typeName: typeName}
}

func (ct *columnType) DatabaseTypeName() string {
	return ct.typeName
}

func (ct *columnType) ConvertValue(val string) (interface{}, error) {
	return convertValueByColumnType(val, ct.typeName)
}
