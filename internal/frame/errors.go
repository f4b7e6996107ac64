package frame

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/hierframe/internal/hkey"
)

// Error codes shared by every table-level error. The CLI surfaces them.
const (
	ErrCodeDepth           = "DEPTH_ERROR"
	ErrCodeCardinality     = "CARDINALITY_ERROR"
	ErrCodeColumnCollision = "COLUMN_COLLISION"
	ErrCodeKeyCollision    = "KEY_COLLISION"
)

// CardinalityError reports a merge whose data violates the declared
// cardinality.
type CardinalityError struct {
	Cardinality Cardinality
	// Side is "left" or "right": the side on which a prefix repeated.
	Side string
	// Prefix is the join prefix that matched more than one row.
	Prefix hkey.Key
	// Count is how many rows share Prefix on Side.
	Count int
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("%s: %s merge: %s prefix %s matches %d rows",
		ErrCodeCardinality, e.Cardinality, e.Side, e.Prefix, e.Count)
}

// ColumnCollisionError reports record groups present on both sides of a
// merge, or a derived column written over an existing one. Callers resolve
// it by renaming explicitly; nothing is disambiguated automatically.
type ColumnCollisionError struct {
	Op     string
	Groups []string
	Column *ColumnRef
}

func (e *ColumnCollisionError) Error() string {
	if e.Column != nil {
		return fmt.Sprintf("%s: %s: column %s already exists", ErrCodeColumnCollision, e.Op, e.Column)
	}
	return fmt.Sprintf("%s: %s: record groups on both sides: %s",
		ErrCodeColumnCollision, e.Op, strings.Join(e.Groups, ", "))
}

// KeyCollisionError reports two rows with the same full key in a table that
// requires unique keys.
type KeyCollisionError struct {
	Op  string
	Key hkey.Key
}

func (e *KeyCollisionError) Error() string {
	return fmt.Sprintf("%s: %s: duplicate key %s", ErrCodeKeyCollision, e.Op, e.Key)
}

// IsCardinalityError returns true if err is or wraps a *CardinalityError.
func IsCardinalityError(err error) bool {
	var ce *CardinalityError
	return errors.As(err, &ce)
}

// IsColumnCollisionError returns true if err is or wraps a *ColumnCollisionError.
func IsColumnCollisionError(err error) bool {
	var ce *ColumnCollisionError
	return errors.As(err, &ce)
}

// IsKeyCollisionError returns true if err is or wraps a *KeyCollisionError.
func IsKeyCollisionError(err error) bool {
	var ke *KeyCollisionError
	return errors.As(err, &ke)
}

// ErrorCode returns the code of a table-level error, or "" for other errors.
func ErrorCode(err error) string {
	switch {
	case hkey.IsDepthError(err):
		return ErrCodeDepth
	case IsCardinalityError(err):
		return ErrCodeCardinality
	case IsColumnCollisionError(err):
		return ErrCodeColumnCollision
	case IsKeyCollisionError(err):
		return ErrCodeKeyCollision
	default:
		return ""
	}
}
