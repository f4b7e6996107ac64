package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is a study compile failure with its position in the CUE
// source when one is known. Field is the dotted path of the offending value,
// e.g. "outputs[0].signals[1].expr".
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   pathOf(firstErr),
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

// pathOf returns the CUE path of an error, or "cue" when it has none.
func pathOf(err errors.Error) string {
	p := err.Path()
	if len(p) == 0 {
		return "cue"
	}
	var b strings.Builder
	for i, sel := range p {
		if _, err := strconv.Atoi(sel); err == nil {
			fmt.Fprintf(&b, "[%s]", sel)
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(sel)
	}
	return b.String()
}
