package hkey

import (
	"errors"
	"fmt"
)

// DepthError reports key-depth arithmetic that goes out of bounds.
type DepthError struct {
	// Op names the operation that failed ("ancestor", "prefix", "merge", ...).
	Op string
	// Depth is the depth of the key or table involved.
	Depth int
	// Requested is the depth the operation asked for.
	Requested int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("DEPTH_ERROR: %s: requested depth %d from depth %d", e.Op, e.Requested, e.Depth)
}

// IsDepthError returns true if err is or wraps a *DepthError.
func IsDepthError(err error) bool {
	var de *DepthError
	return errors.As(err, &de)
}
