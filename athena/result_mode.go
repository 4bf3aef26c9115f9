package athena

// ResultMode selects how query results are retrieved.
type ResultMode int

const (
	// ResultModeAPI reads results through paged GetQueryResults calls.
	ResultModeAPI ResultMode = 0

	// ResultModeDL downloads the result CSV from the staging directory.
	ResultModeDL ResultMode = 1

	// ResultModeGzipDL rewrites SELECTs as CTAS queries and downloads the
	// gzip-compressed result files.
	ResultModeGzipDL ResultMode = 2

	// ResultModeParquetDL rewrites SELECTs as CTAS queries and downloads the
	// parquet result files.
	ResultModeParquetDL ResultMode = 3
)
