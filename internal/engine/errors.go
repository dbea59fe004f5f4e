package engine

import (
	"errors"
	"fmt"
)

// QueryError is returned when the engine rejects or fails a query.
type QueryError struct {
	SQL string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v [%s]", e.Err, e.SQL)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsQueryError reports whether err wraps a QueryError.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}
