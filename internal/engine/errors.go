package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/hierframe/internal/classify"
	"github.com/roach88/hierframe/internal/store"
)

// Error codes for failures the engine itself detects. Table-level codes come
// from frame and classify; ErrorCode merges both.
const (
	// ErrCodeBuild is any other failure while building a batch.
	ErrCodeBuild = "BUILD_ERROR"

	// ErrCodeWrite means a built table could not be persisted.
	ErrCodeWrite = "WRITE_ERROR"

	// ErrCodeConflict means a table exists with different content.
	ErrCodeConflict = "TABLE_CONFLICT"

	// ErrCodeCancelled means the run was cancelled.
	ErrCodeCancelled = "CANCELLED"
)

// BatchError reports the first failure of one batch. The batch is aborted:
// none of its tables are written.
type BatchError struct {
	BatchID string
	Seq     int64
	// Output is the output being built or written when the batch failed.
	Output string
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d (%s) output %s: %v", e.Seq, e.BatchID, e.Output, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// IsBatchError returns true if err is or wraps a *BatchError.
func IsBatchError(err error) bool {
	var be *BatchError
	return errors.As(err, &be)
}

// ErrorCode classifies err for reporting. Table-level errors keep their own
// code; anything else from a batch is ErrCodeBuild. Returns "" for nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if code := classify.ErrorCode(err); code != "" {
		return code
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeCancelled
	case store.IsConflictError(err):
		return ErrCodeConflict
	}
	var we *writeError
	if errors.As(err, &we) {
		return ErrCodeWrite
	}
	return ErrCodeBuild
}

// writeError marks a store failure so it is not reported as a build error.
type writeError struct {
	err error
}

func (e *writeError) Error() string { return "write: " + e.err.Error() }

func (e *writeError) Unwrap() error { return e.err }
