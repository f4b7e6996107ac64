package classify

import (
	"fmt"

	"github.com/roach88/hierframe/internal/frame"
)

// Expr is a boolean expression evaluated row by row.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Col reads a Bool column as a flag. Null reads as false.
type Col struct {
	Ref frame.ColumnRef
}

func (Col) exprNode() {}

// Const is true or false for every row.
type Const struct {
	Value bool
}

func (Const) exprNode() {}

// Not inverts its operand.
type Not struct {
	X Expr
}

func (Not) exprNode() {}

// And is true when every operand is true. An empty And is true.
type And struct {
	Exprs []Expr
}

func (And) exprNode() {}

// Or is true when any operand is true. An empty Or is false.
type Or struct {
	Exprs []Expr
}

func (Or) exprNode() {}

// Equals compares a column against a literal.
//
// Semantics:
//
//	<ref> == <value>
//
// Int and Float compare numerically; a Null cell or a Null literal never
// matches.
type Equals struct {
	Ref   frame.ColumnRef
	Value frame.Value
}

func (Equals) exprNode() {}

// Op is a comparison operator other than equality.
type Op int

const (
	NotEqual Op = iota + 1
	Less
	LessEqual
	Greater
	GreaterEqual
)

// String returns the operator's source spelling.
func (o Op) String() string {
	switch o {
	case NotEqual:
		return "!="
	case Less:
		return "<"
	case LessEqual:
		return "<="
	case Greater:
		return ">"
	case GreaterEqual:
		return ">="
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// flip mirrors an operator for swapped operands: 1 < x is x > 1.
func (o Op) flip() Op {
	switch o {
	case Less:
		return Greater
	case LessEqual:
		return GreaterEqual
	case Greater:
		return Less
	case GreaterEqual:
		return LessEqual
	default:
		return o
	}
}

// Compare compares a column against a literal.
//
// Ordering operators are numeric: both the cell and the literal must be
// Int or Float. NotEqual works on any cell type. A Null cell makes every
// comparison false, NotEqual included.
type Compare struct {
	Ref   frame.ColumnRef
	Op    Op
	Value frame.Value
}

func (Compare) exprNode() {}

// AllOf is a convenience constructor for And.
func AllOf(exprs ...Expr) Expr {
	return And{Exprs: exprs}
}

// AnyOf is a convenience constructor for Or.
func AnyOf(exprs ...Expr) Expr {
	return Or{Exprs: exprs}
}

// Flag is a convenience constructor for Col from a dotted name.
func Flag(name string) Expr {
	return Col{Ref: frame.MustRef(name)}
}

// Refs returns every column an expression reads, in first-use order
// without duplicates.
func Refs(e Expr) []frame.ColumnRef {
	var out []frame.ColumnRef
	seen := map[frame.ColumnRef]bool{}
	walk(e, func(ref frame.ColumnRef) {
		if !seen[ref] {
			seen[ref] = true
			out = append(out, ref)
		}
	})
	return out
}

func walk(e Expr, fn func(frame.ColumnRef)) {
	switch x := e.(type) {
	case Col:
		fn(x.Ref)
	case Not:
		walk(x.X, fn)
	case And:
		for _, sub := range x.Exprs {
			walk(sub, fn)
		}
	case Or:
		for _, sub := range x.Exprs {
			walk(sub, fn)
		}
	case Equals:
		fn(x.Ref)
	case Compare:
		fn(x.Ref)
	}
}
