package adapter

import (
	"database/sql"
)

// athenaCursor wraps sql.Rows from an executed query. Columns are captured
// up front so they stay available after the rows are drained and closed.
type athenaCursor struct {
	rows    *sql.Rows
	columns []Column
	limit   int
}

var _ Cursor = (*athenaCursor)(nil)

func newCursor(rows *sql.Rows) (*athenaCursor, error) {
	names, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, newQueryError(err)
	}

	types, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		return nil, newQueryError(err)
	}

	columns := make([]Column, len(names))
	for i, name := range names {
		columns[i] = Column{
			Name:      name,
			TypeLabel: ShortTypeLabel(types[i].DatabaseTypeName()),
		}
	}

	return &athenaCursor{rows: rows, columns: columns}, nil
}

// Columns returns the result columns. DDL statements produce none.
func (c *athenaCursor) Columns() []Column {
	return c.columns
}

// SetLimit caps the number of rows FetchAll returns. Zero means no limit.
func (c *athenaCursor) SetLimit(limit int) Cursor {
	c.limit = limit
	return c
}

// FetchAll drains the rows, up to the configured limit, and closes the
// cursor.
func (c *athenaCursor) FetchAll() ([][]interface{}, error) {
	defer c.rows.Close()

	var out [][]interface{}
	for c.rows.Next() {
		if c.limit > 0 && len(out) >= c.limit {
			break
		}

		values := make([]interface{}, len(c.columns))
		dest := make([]interface{}, len(c.columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := c.rows.Scan(dest...); err != nil {
			return nil, newQueryError(err)
		}
		out = append(out, values)
	}

	if err := c.rows.Err(); err != nil {
		return nil, newQueryError(err)
	}
	return out, nil
}
