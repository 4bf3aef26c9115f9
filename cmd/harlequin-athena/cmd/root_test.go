package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/singlow/harlequin-athena/adapter"
)

type fakeCursor struct {
	columns []adapter.Column
	rows    [][]interface{}
	limit   int
}

func (c *fakeCursor) Columns() []adapter.Column { return c.columns }

func (c *fakeCursor) SetLimit(limit int) adapter.Cursor {
	c.limit = limit
	return c
}

func (c *fakeCursor) FetchAll() ([][]interface{}, error) {
	if c.limit > 0 && len(c.rows) > c.limit {
		return c.rows[:c.limit], nil
	}
	return c.rows, nil
}

func Test_writeCSV(t *testing.T) {
	cursor := &fakeCursor{
		columns: []adapter.Column{
			{Name: "id", TypeLabel: "##"},
			{Name: "name", TypeLabel: "t"},
			{Name: "placed_at", TypeLabel: "ts"},
		},
		rows: [][]interface{}{
			{int64(1), "alice", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
			{int64(2), nil, nil},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, cursor))

	assert.Equal(t,
		"id,name,placed_at\n"+
			"1,alice,2024-05-01T12:00:00Z\n"+
			"2,,\n",
		buf.String())
}

func Test_writeCSV_noColumns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, &fakeCursor{}))
	assert.Empty(t, buf.String())
}

func Test_formatValue(t *testing.T) {
	assert.Equal(t, "", formatValue(nil))
	assert.Equal(t, "raw", formatValue([]byte("raw")))
	assert.Equal(t, "42", formatValue(int64(42)))
	assert.Equal(t, "1.5", formatValue(1.5))
	assert.Equal(t, "true", formatValue(true))
	assert.Equal(t, "2024-05-01T12:00:00Z",
		formatValue(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
}

func Test_readQuery_fromArg(t *testing.T) {
	c := &Cmd{}
	query, err := c.readQuery(bytes.NewBufferString("ignored"), []string{"  SELECT 1  "})
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", query)
}

func TestNewCmd_versionFlag(t *testing.T) {
	root := NewCmd("1.2.3")
	root.SetArgs([]string{"--version"})

	var buf bytes.Buffer
	root.SetOut(&buf)

	require.NoError(t, root.Execute())
}
