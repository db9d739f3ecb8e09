package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// LoadError reports a single row that failed to persist after the
// row-granularity retry. The run continues; the row is lost.
type LoadError struct {
	Table string
	Key   int64
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s row key=%d: %v", e.Table, e.Key, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// QueryError reports a database failure during feature extraction. It is
// fatal for the run; no partial feature table is emitted.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("feature query %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
