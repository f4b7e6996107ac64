package classify

import (
	"errors"
	"fmt"

	"github.com/roach88/hierframe/internal/frame"
)

// Check validates an expression against a table without evaluating it.
// It reports every problem found: unknown columns, nil operands, ordering
// comparisons against non-numeric literals and unknown node types.
func Check(e Expr, t *frame.Table) []error {
	c := &checker{table: t}
	c.check(e)
	return c.errs
}

type checker struct {
	table *frame.Table
	errs  []error
}

func (c *checker) addError(format string, args ...any) {
	c.errs = append(c.errs, fmt.Errorf(format, args...))
}

func (c *checker) ref(ref frame.ColumnRef) {
	if c.table != nil && !c.table.Has(ref) {
		c.addError("unknown column %s", ref)
	}
}

func (c *checker) check(e Expr) {
	switch x := e.(type) {
	case nil:
		c.addError("nil expression")
	case Col:
		c.ref(x.Ref)
	case Const:
	case Not:
		c.check(x.X)
	case And:
		for _, sub := range x.Exprs {
			c.check(sub)
		}
	case Or:
		for _, sub := range x.Exprs {
			c.check(sub)
		}
	case Equals:
		c.ref(x.Ref)
		if x.Value == nil {
			c.addError("%s == <nil>: missing literal", x.Ref)
		}
	case Compare:
		c.ref(x.Ref)
		if x.Op < NotEqual || x.Op > GreaterEqual {
			c.addError("%s: unknown operator %s", x.Ref, x.Op)
		}
		if x.Value == nil {
			c.addError("%s %s <nil>: missing literal", x.Ref, x.Op)
		} else if x.Op != NotEqual {
			if _, ok := frame.AsFloat(x.Value); !ok {
				c.addError("%s %s %s: ordering needs a numeric literal", x.Ref, x.Op, frame.FormatValue(x.Value))
			}
		}
	default:
		c.addError("unknown expression type %T", e)
	}
}

// Eval evaluates e for every row of t. The result has one entry per row.
// Static problems found by Check are returned joined; a cell whose type
// cannot take part in the expression is an error, never coerced.
func Eval(t *frame.Table, e Expr) ([]bool, error) {
	if errs := Check(e, t); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return eval(t, e)
}

func eval(t *frame.Table, e Expr) ([]bool, error) {
	n := t.Len()
	switch x := e.(type) {
	case Col:
		out := make([]bool, n)
		for i := range out {
			v := t.Value(i, x.Ref)
			switch b := v.(type) {
			case frame.Bool:
				out[i] = bool(b)
			case frame.Null:
			default:
				return nil, fmt.Errorf("column %s row %s holds %s, want bool", x.Ref, t.Key(i), frame.TypeName(v))
			}
		}
		return out, nil

	case Const:
		out := make([]bool, n)
		for i := range out {
			out[i] = x.Value
		}
		return out, nil

	case Not:
		inner, err := eval(t, x.X)
		if err != nil {
			return nil, err
		}
		for i := range inner {
			inner[i] = !inner[i]
		}
		return inner, nil

	case And:
		return fold(t, x.Exprs, true)

	case Or:
		return fold(t, x.Exprs, false)

	case Equals:
		out := make([]bool, n)
		for i := range out {
			out[i] = frame.Equal(t.Value(i, x.Ref), x.Value)
		}
		return out, nil

	case Compare:
		out := make([]bool, n)
		for i := range out {
			ok, err := compare(t.Value(i, x.Ref), x.Op, x.Value)
			if err != nil {
				return nil, fmt.Errorf("%s row %s: %w", x.Ref, t.Key(i), err)
			}
			out[i] = ok
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown expression type %T", e)
	}
}

// fold combines operands with AND (all == true) or OR (all == false).
func fold(t *frame.Table, exprs []Expr, all bool) ([]bool, error) {
	out := make([]bool, t.Len())
	for i := range out {
		out[i] = all
	}
	for _, sub := range exprs {
		vals, err := eval(t, sub)
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			if all {
				out[i] = out[i] && v
			} else {
				out[i] = out[i] || v
			}
		}
	}
	return out, nil
}

func compare(cell frame.Value, op Op, lit frame.Value) (bool, error) {
	if frame.IsNull(cell) || frame.IsNull(lit) {
		return false, nil
	}
	if op == NotEqual {
		return !frame.Equal(cell, lit), nil
	}
	a, ok := frame.AsFloat(cell)
	if !ok {
		return false, fmt.Errorf("cannot order %s value", frame.TypeName(cell))
	}
	b, _ := frame.AsFloat(lit)
	switch op {
	case Less:
		return a < b, nil
	case LessEqual:
		return a <= b, nil
	case Greater:
		return a > b, nil
	case GreaterEqual:
		return a >= b, nil
	default:
		return false, fmt.Errorf("unknown operator %s", op)
	}
}

// Mask evaluates e and returns the rows of t where it holds.
func Mask(t *frame.Table, e Expr) (*frame.Table, error) {
	mask, err := Eval(t, e)
	if err != nil {
		return nil, err
	}
	return t.Filter(mask)
}

// Derive evaluates e and attaches the result as a Bool column out.
func Derive(t *frame.Table, out frame.ColumnRef, e Expr) (*frame.Table, error) {
	mask, err := Eval(t, e)
	if err != nil {
		return nil, err
	}
	vals := make([]frame.Value, len(mask))
	for i, m := range mask {
		vals[i] = frame.Bool(m)
	}
	return t.WithColumn(out, vals)
}
