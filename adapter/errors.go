package adapter

const (
	connectErrorTitle = "Harlequin could not connect to your database."
	queryErrorTitle   = "Harlequin encountered an error while executing your query."
)

// ConnectionError reports a failure to establish or validate a connection.
type ConnectionError struct {
	Msg   string
	Title string
	Err   error
}

func (e *ConnectionError) Error() string {
	return e.Msg
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func newConnectionError(msg string, err error) *ConnectionError {
	return &ConnectionError{Msg: msg, Title: connectErrorTitle, Err: err}
}

// QueryError reports a failure while executing a query or fetching results.
type QueryError struct {
	Msg   string
	Title string
	Err   error
}

func (e *QueryError) Error() string {
	return e.Msg
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func newQueryError(err error) *QueryError {
	return &QueryError{Msg: err.Error(), Title: queryErrorTitle, Err: err}
}
