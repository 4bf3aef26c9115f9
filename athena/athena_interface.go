package athena

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// StartQueryExecutionAPI defines the interface for the Athena StartQueryExecution operation.
type StartQueryExecutionAPI interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
}

// GetQueryExecutionAPI defines the interface for the Athena GetQueryExecution operation.
type GetQueryExecutionAPI interface {
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
}

// GetQueryResultsAPI defines the interface for the Athena GetQueryResults operation.
type GetQueryResultsAPI interface {
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
}

// StopQueryExecutionAPI defines the interface for the Athena StopQueryExecution operation.
type StopQueryExecutionAPI interface {
	StopQueryExecution(ctx context.Context, params *athena.StopQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StopQueryExecutionOutput, error)
}

// GetWorkGroupAPI defines the interface for the Athena GetWorkGroup operation.
type GetWorkGroupAPI interface {
	GetWorkGroup(ctx context.Context, params *athena.GetWorkGroupInput, optFns ...func(*athena.Options)) (*athena.GetWorkGroupOutput, error)
}

// GetTableMetadataAPI defines the interface for the Athena GetTableMetadata operation.
type GetTableMetadataAPI interface {
	GetTableMetadata(ctx context.Context, params *athena.GetTableMetadataInput, optFns ...func(*athena.Options)) (*athena.GetTableMetadataOutput, error)
}

// AthenaAPI wraps the Athena client methods the driver needs.
type AthenaAPI interface {
	StartQueryExecutionAPI
	GetQueryExecutionAPI
	GetQueryResultsAPI
	StopQueryExecutionAPI
	GetWorkGroupAPI
	GetTableMetadataAPI
}

// Ensure that the SDK v2 Athena client implements our interface.
var _ AthenaAPI = (*athena.Client)(nil)

// S3GetObjectAPI defines the interface for the S3 GetObject operation, used
// by the download result modes.
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ S3GetObjectAPI = (*s3.Client)(nil)
