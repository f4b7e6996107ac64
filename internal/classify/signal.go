package classify

import (
	"errors"
	"fmt"

	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/hkey"
)

// ErrCodeUnclassified is the code of *UnclassifiedError.
const ErrCodeUnclassified = "UNCLASSIFIED"

// Signal is one named signal definition: a Bool output column and the
// expression that fills it.
type Signal struct {
	Out  frame.ColumnRef
	Expr Expr
}

// ApplySignals evaluates every definition against t and appends one Bool
// column per signal. Each definition sees the input table only, never
// another signal's output, so definitions cannot interfere.
func ApplySignals(t *frame.Table, signals ...Signal) (*frame.Table, error) {
	masks := make([][]bool, len(signals))
	for i, s := range signals {
		mask, err := Eval(t, s.Expr)
		if err != nil {
			return nil, fmt.Errorf("signal %s: %w", s.Out, err)
		}
		masks[i] = mask
	}

	out := t
	for i, s := range signals {
		vals := make([]frame.Value, len(masks[i]))
		for r, m := range masks[i] {
			vals[r] = frame.Bool(m)
		}
		next, err := out.WithColumn(s.Out, vals)
		if err != nil {
			return nil, fmt.Errorf("signal %s: %w", s.Out, err)
		}
		out = next
	}
	return out, nil
}

// Category is one outcome of a true-type classification.
type Category struct {
	Tag   string
	Label string // display label; Tag when empty
	Expr  Expr
}

// DisplayLabel returns Label, or Tag when no label is set.
func (c Category) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Tag
}

// TrueType assigns every row exactly one category tag.
//
// Categories are tried in declaration order and the first match wins, so
// overlapping predicates resolve deterministically. A row matching nothing
// gets Fallback; with no Fallback it is an *UnclassifiedError.
type TrueType struct {
	Out        frame.ColumnRef
	Categories []Category
	Fallback   string
}

// Validate checks the category set itself: tags present and unique.
func (tt TrueType) Validate() error {
	if tt.Out.Group == "" {
		return errors.New("true type: output column is required")
	}
	if len(tt.Categories) == 0 {
		return fmt.Errorf("true type %s: no categories", tt.Out)
	}
	seen := map[string]bool{}
	for i, c := range tt.Categories {
		if c.Tag == "" {
			return fmt.Errorf("true type %s: category %d has no tag", tt.Out, i)
		}
		if seen[c.Tag] {
			return fmt.Errorf("true type %s: duplicate category %q", tt.Out, c.Tag)
		}
		seen[c.Tag] = true
		if c.Expr == nil {
			return fmt.Errorf("true type %s: category %q has no expression", tt.Out, c.Tag)
		}
	}
	return nil
}

// Classify appends the String column Out holding each row's category tag.
func (tt TrueType) Classify(t *frame.Table) (*frame.Table, error) {
	if err := tt.Validate(); err != nil {
		return nil, err
	}
	masks := make([][]bool, len(tt.Categories))
	for i, c := range tt.Categories {
		mask, err := Eval(t, c.Expr)
		if err != nil {
			return nil, fmt.Errorf("true type %s category %q: %w", tt.Out, c.Tag, err)
		}
		masks[i] = mask
	}

	vals := make([]frame.Value, t.Len())
	for r := range vals {
		for i, c := range tt.Categories {
			if masks[i][r] {
				vals[r] = frame.String(c.Tag)
				break
			}
		}
		if vals[r] != nil {
			continue
		}
		if tt.Fallback == "" {
			return nil, &UnclassifiedError{Out: tt.Out, Key: t.Key(r)}
		}
		vals[r] = frame.String(tt.Fallback)
	}
	return t.WithColumn(tt.Out, vals)
}

// Label returns the display label for tag, or tag itself when unknown.
func (tt TrueType) Label(tag string) string {
	for _, c := range tt.Categories {
		if c.Tag == tag {
			return c.DisplayLabel()
		}
	}
	return tag
}

// UnclassifiedError reports a row no category matched when no fallback is
// configured.
type UnclassifiedError struct {
	Out frame.ColumnRef
	Key hkey.Key
}

func (e *UnclassifiedError) Error() string {
	return fmt.Sprintf("%s: true type %s: no category matches row %s", ErrCodeUnclassified, e.Out, e.Key)
}

// IsUnclassifiedError returns true if err is or wraps an *UnclassifiedError.
func IsUnclassifiedError(err error) bool {
	var ue *UnclassifiedError
	return errors.As(err, &ue)
}

// ErrorCode extends frame.ErrorCode with ErrCodeUnclassified.
func ErrorCode(err error) string {
	if IsUnclassifiedError(err) {
		return ErrCodeUnclassified
	}
	return frame.ErrorCode(err)
}
