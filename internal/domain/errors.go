// Package domain defines the error taxonomy surfaced by the dataset
// operations. The HTTP layer maps each kind to a status code with errors.As.
package domain

import "fmt"

// ValidationError indicates invalid input: no file, an empty dataset, a
// missing table name or colliding column names.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError indicates an operation on an absent dataset.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// StorageError wraps a blob store failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("blob %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// SQLError wraps a statement rejected by the SQL engine.
type SQLError struct {
	Op  string
	Err error
}

func (e *SQLError) Error() string { return fmt.Sprintf("sql %s: %v", e.Op, e.Err) }
func (e *SQLError) Unwrap() error { return e.Err }

// UpstreamError reports an analysis service call that failed or answered
// with a non-2xx status. Status is zero when the service was unreachable.
type UpstreamError struct {
	Endpoint string
	Status   int
	Body     string
	Err      error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("analysis %s: %v", e.Endpoint, e.Err)
	case e.Body != "":
		return fmt.Sprintf("analysis %s: status %d: %s", e.Endpoint, e.Status, e.Body)
	default:
		return fmt.Sprintf("analysis %s: status %d", e.Endpoint, e.Status)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...any) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrStorage wraps err as a StorageError for op (put, get, delete).
func ErrStorage(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// ErrSQL wraps err as an SQLError for op (ddl, insert, query, ...).
func ErrSQL(op string, err error) *SQLError {
	return &SQLError{Op: op, Err: err}
}
