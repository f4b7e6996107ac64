package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/hierframe/internal/classify"
	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/querysql"
	"github.com/roach88/hierframe/internal/store"
)

// AssertionContext carries what assertions read from.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Table    string
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Table != "" {
		fmt.Fprintf(&buf, " (%s)", e.Table)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var msgs []string
	for i, a := range assertions {
		if err := evaluate(result, a, actx); err != nil {
			msgs = append(msgs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return msgs
}

func evaluate(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertTableExists:
		return assertTableExists(actx, a)
	case AssertRowCount:
		return assertRowCount(actx, a)
	case AssertColumnValues:
		return assertColumnValues(actx, a)
	case AssertQueryCount:
		return assertQueryCount(actx, a)
	case AssertBatchFailed:
		return assertBatchFailed(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertTableExists(actx *AssertionContext, a Assertion) error {
	_, err := actx.Store.ReadMeta(actx.Ctx, a.Table)
	if errors.Is(err, store.ErrNotFound) {
		return &AssertionError{Type: a.Type, Table: a.Table, Expected: "table stored", Actual: "not found"}
	}
	return err
}

func assertRowCount(actx *AssertionContext, a Assertion) error {
	meta, err := actx.Store.ReadMeta(actx.Ctx, a.Table)
	if err != nil {
		return err
	}
	if meta.RowCount != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Table:    a.Table,
			Expected: fmt.Sprintf("%d rows", a.Count),
			Actual:   fmt.Sprintf("%d rows", meta.RowCount),
		}
	}
	return nil
}

func assertColumnValues(actx *AssertionContext, a Assertion) error {
	ref, err := frame.Ref(a.Column)
	if err != nil {
		return err
	}
	t, _, err := actx.Store.ReadTable(actx.Ctx, a.Table)
	if err != nil {
		return err
	}
	got, ok := t.Column(ref)
	if !ok {
		return &AssertionError{Type: a.Type, Table: a.Table, Expected: "column " + a.Column, Actual: "no such column"}
	}

	want := make([]frame.Value, len(a.Values))
	for i, v := range a.Values {
		fv, err := frame.FromAny(v)
		if err != nil {
			return fmt.Errorf("values[%d]: %w", i, err)
		}
		want[i] = fv
	}

	mismatch := len(got) != len(want)
	for i := 0; !mismatch && i < len(got); i++ {
		mismatch = !sameCell(got[i], want[i])
	}
	if mismatch {
		return &AssertionError{
			Type:     a.Type,
			Table:    a.Table,
			Expected: formatValues(want),
			Actual:   formatValues(got),
		}
	}
	return nil
}

func assertQueryCount(actx *AssertionContext, a Assertion) error {
	filter, err := classify.Parse(a.Where)
	if err != nil {
		return err
	}
	t, _, err := actx.Store.QueryRows(actx.Ctx, querysql.Select{Table: a.Table, Filter: filter})
	if err != nil {
		return err
	}
	if t.Len() != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Table:    a.Table,
			Expected: fmt.Sprintf("%d rows where %s", a.Count, classify.Describe(filter)),
			Actual:   fmt.Sprintf("%d rows", t.Len()),
		}
	}
	return nil
}

func assertBatchFailed(result *Result, a Assertion) error {
	f, ok := result.Failure(a.Seq)
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("batch %d failed with %s", a.Seq, a.Code),
			Actual:   "batch succeeded",
		}
	}
	if f.Code != a.Code {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("batch %d failed with %s", a.Seq, a.Code),
			Actual:   fmt.Sprintf("failed with %s: %s", f.Code, f.Message),
		}
	}
	return nil
}

// sameCell is frame.Equal except that two Null cells match.
func sameCell(a, b frame.Value) bool {
	if frame.IsNull(a) || frame.IsNull(b) {
		return frame.IsNull(a) && frame.IsNull(b)
	}
	return frame.Equal(a, b)
}

func formatValues(vs []frame.Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = frame.FormatValue(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
