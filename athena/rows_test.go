package athena

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/stretchr/testify/assert"
)

var dummyError = errors.New("dummy error")

type genQueryResultsOutputByToken func(token *string) (*athena.GetQueryResultsOutput, error)

var queryToResultsGenMap = map[string]genQueryResultsOutputByToken{
	"select":         dummySelectQueryResponse,
	"select_zero":    dummySelectZeroQueryResponse,
	"show":           dummyShowResponse,
	"iteration_fail": dummyFailedIterationResponse,
}

func genColumnInfo(column string) types.ColumnInfo {
	caseSensitive := true
	catalogName := "hive"
	nullable := types.ColumnNullableUnknown
	precision := int32(2147483647)
	scale := int32(0)
	schemaName := ""
	tableName := ""
	columnType := "varchar"

	return types.ColumnInfo{
		CaseSensitive: caseSensitive,
		CatalogName:   &catalogName,
		Nullable:      nullable,
		Precision:     precision,
		Scale:         scale,
		SchemaName:    &schemaName,
		TableName:     &tableName,
		Type:          &columnType,
		Label:         &column,
		Name:          &column,
	}
}

func randomString() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	s := make([]byte, 10)
	for i := 0; i < len(s); i++ {
		s[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(s)
}

func genRow(isHeader bool, columns []types.ColumnInfo) types.Row {
	var data []types.Datum
	for i := 0; i < len(columns); i++ {
		if isHeader {
			data = append(data, types.Datum{
				VarCharValue: columns[i].Name,
			})
		} else {
			s := randomString()
			data = append(data, types.Datum{
				VarCharValue: &s,
			})
		}
	}
	return types.Row{
		Data: data,
	}
}

func dummySelectQueryResponse(token *string) (*athena.GetQueryResultsOutput, error) {
	tokenStr := ""
	if token != nil {
		tokenStr = *token
	}
	switch tokenStr {
	case "":
		nextToken := "page_1"
		columns := []types.ColumnInfo{
			genColumnInfo("first_name"),
			genColumnInfo("last_name"),
		}
		return &athena.GetQueryResultsOutput{
			NextToken: &nextToken,
			ResultSet: &types.ResultSet{
				ResultSetMetadata: &types.ResultSetMetadata{
					ColumnInfo: columns,
				},
				Rows: []types.Row{
					genRow(true, columns),
					genRow(false, columns),
					genRow(false, columns),
					genRow(false, columns),
					genRow(false, columns),
				},
			},
		}, nil
	case "page_1":
		columns := []types.ColumnInfo{
			genColumnInfo("first_name"),
			genColumnInfo("last_name"),
		}
		return &athena.GetQueryResultsOutput{
			ResultSet: &types.ResultSet{
				ResultSetMetadata: &types.ResultSetMetadata{
					ColumnInfo: columns,
				},
				Rows: []types.Row{
					genRow(false, columns),
					genRow(false, columns),
					genRow(false, columns),
					genRow(false, columns),
					genRow(false, columns),
				},
			},
		}, nil
	default:
		return nil, dummyError
	}
}

func dummySelectZeroQueryResponse(_ *string) (*athena.GetQueryResultsOutput, error) {
	columns := []types.ColumnInfo{
		genColumnInfo("first_name"),
		genColumnInfo("last_name"),
	}
	return &athena.GetQueryResultsOutput{
		ResultSet: &types.ResultSet{
			ResultSetMetadata: &types.ResultSetMetadata{
				ColumnInfo: columns,
			},
			Rows: []types.Row{
				genRow(true, columns),
			},
		},
	}, nil
}

func dummyShowResponse(_ *string) (*athena.GetQueryResultsOutput, error) {
	columns := []types.ColumnInfo{
		genColumnInfo("partition"),
	}
	return &athena.GetQueryResultsOutput{
		ResultSet: &types.ResultSet{
			ResultSetMetadata: &types.ResultSetMetadata{
				ColumnInfo: columns,
			},
			Rows: []types.Row{
				genRow(false, columns),
				genRow(false, columns),
			},
		},
	}, nil
}

func dummyFailedIterationResponse(token *string) (*athena.GetQueryResultsOutput, error) {
	tokenStr := ""
	if token != nil {
		tokenStr = *token
	}
	switch tokenStr {
	case "":
		nextToken := "page_1"
		columns := []types.ColumnInfo{
			genColumnInfo("first_name"),
			genColumnInfo("last_name"),
		}
		return &athena.GetQueryResultsOutput{
			NextToken: &nextToken,
			ResultSet: &types.ResultSet{
				ResultSetMetadata: &types.ResultSetMetadata{
					ColumnInfo: columns,
				},
				Rows: []types.Row{
					genRow(true, columns),
					genRow(false, columns),
					genRow(false, columns),
					genRow(false, columns),
					genRow(false, columns),
				},
			},
		}, nil
	default:
		return nil, dummyError
	}
}

func castToValue(dest ...driver.Value) []driver.Value {
	return dest
}

func TestRowsAPI_Next(t *testing.T) {
	tests := []struct {
		desc                string
		queryID             string
		skipHeader          bool
		expectedResultsSize int
		expectedError       error
	}{
		{
			desc:                "show query, no header, 2 rows, no error",
			queryID:             "show",
			skipHeader:          false,
			expectedResultsSize: 2,
		},
		{
			desc:                "select query, header, 0 rows, no error",
			queryID:             "select_zero",
			skipHeader:          true,
			expectedResultsSize: 0,
		},
		{
			desc:                "select query, header, multipage, 9 rows, no error",
			queryID:             "select",
			skipHeader:          true,
			expectedResultsSize: 9,
		},
		{
			desc:          "failed during calling next",
			queryID:       "iteration_fail",
			skipHeader:    true,
			expectedError: dummyError,
		},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			r, err := newRows(rowsConfig{
				Athena:     &mockAthenaClient{},
				QueryID:    test.queryID,
				SkipHeader: test.skipHeader,
			})
			assert.NoError(t, err)

			var firstName, lastName string
			cnt := 0
			for {
				err := r.Next(castToValue(&firstName, &lastName))
				if err != nil {
					if err != io.EOF {
						assert.Equal(t, test.expectedError, err)
					}
					break
				}
				cnt++
			}
			if test.expectedError == nil {
				assert.Equal(t, test.expectedResultsSize, cnt)
			}
		})
	}
}

func TestRowsAPI_Columns(t *testing.T) {
	r, err := newRowsAPI(rowsConfig{
		Athena:     &mockAthenaClient{},
		QueryID:    "select",
		SkipHeader: true,
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"first_name", "last_name"}, r.Columns())
	assert.Equal(t, "varchar", r.ColumnTypeDatabaseTypeName(0))
}

func Test_getRecordsForDL(t *testing.T) {
	tests := []struct {
		name    string
		param   string
		want    [][]downloadField
		wantErr bool
	}{
		{
			name:  "nulls, empties and embedded commas",
			param: ",\"1\"\n\"\",\"9\"\n\"hoge, hoge\",\"10\"",
			want: [][]downloadField{
				{
					{
						isNil: true,
					},
					{
						val: "1",
					},
				},
				{
					{
						isNil: false,
						val:   "",
					},
					{
						val: "9",
					},
				},
				{
					{
						isNil: false,
						val:   "hoge, hoge",
					},
					{
						val: "10",
					},
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := getRecordsForDL(strings.NewReader(tt.param))
			if (err != nil) != tt.wantErr {
				t.Errorf("getRecordsForDL() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			for i, dfs := range got {
				for j, df := range dfs {
					want := tt.want[i][j]
					if want != df {
						t.Errorf("getRecordsForDL() expected:%v, actual:%v", want, df)
					}
				}
			}
		})
	}
}

func Test_parseDelimitedRecords(t *testing.T) {
	input := "a\x01b\x01c\nd\x01\x01f"
	got, err := parseDelimitedRecords(strings.NewReader(input))
	assert.NoError(t, err)
	assert.Equal(t, [][]string{
		{"a", "b", "c"},
		{"d", "", "f"},
	}, got)
}

func Test_splitS3Location(t *testing.T) {
	tests := []struct {
		name       string
		location   string
		wantBucket string
		wantPrefix string
		wantErr    bool
	}{
		{
			name:       "bucket only",
			location:   "s3://my-bucket",
			wantBucket: "my-bucket",
		},
		{
			name:       "bucket with prefix",
			location:   "s3://my-bucket/athena-results",
			wantBucket: "my-bucket",
			wantPrefix: "athena-results",
		},
		{
			name:       "trailing slash",
			location:   "s3://my-bucket/athena-results/",
			wantBucket: "my-bucket",
			wantPrefix: "athena-results",
		},
		{
			name:     "missing scheme",
			location: "my-bucket/athena-results",
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, prefix, err := splitS3Location(tt.location)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantPrefix, prefix)
		})
	}
}

var _ AthenaAPI = (*mockAthenaClient)(nil)

// mockAthenaClient serves canned responses keyed by the query execution ID.
type mockAthenaClient struct {
	queryStates []types.QueryExecutionState
	callCount   int
}

func (m *mockAthenaClient) GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error) {
	return queryToResultsGenMap[*params.QueryExecutionId](params.NextToken)
}

func (m *mockAthenaClient) StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error) {
	queryID := "select"
	return &athena.StartQueryExecutionOutput{QueryExecutionId: &queryID}, nil
}

func (m *mockAthenaClient) GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error) {
	state := types.QueryExecutionStateSucceeded
	if m.callCount < len(m.queryStates) {
		state = m.queryStates[m.callCount]
	}
	m.callCount++

	reason := "test reason"
	return &athena.GetQueryExecutionOutput{
		QueryExecution: &types.QueryExecution{
			QueryExecutionId: params.QueryExecutionId,
			Status: &types.QueryExecutionStatus{
				State:             state,
				StateChangeReason: &reason,
			},
		},
	}, nil
}

func (m *mockAthenaClient) StopQueryExecution(ctx context.Context, params *athena.StopQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StopQueryExecutionOutput, error) {
	return &athena.StopQueryExecutionOutput{}, nil
}

func (m *mockAthenaClient) GetWorkGroup(ctx context.Context, params *athena.GetWorkGroupInput, optFns ...func(*athena.Options)) (*athena.GetWorkGroupOutput, error) {
	location := "s3://workgroup-bucket/results"
	return &athena.GetWorkGroupOutput{
		WorkGroup: &types.WorkGroup{
			Name: params.WorkGroup,
			Configuration: &types.WorkGroupConfiguration{
				ResultConfiguration: &types.ResultConfiguration{
					OutputLocation: &location,
				},
			},
		},
	}, nil
}

func (m *mockAthenaClient) GetTableMetadata(ctx context.Context, params *athena.GetTableMetadataInput, optFns ...func(*athena.Options)) (*athena.GetTableMetadataOutput, error) {
	return &athena.GetTableMetadataOutput{
		TableMetadata: &types.TableMetadata{
			Name: params.TableName,
		},
	}, nil
}
