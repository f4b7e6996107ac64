package classify

import (
	"fmt"
	"strings"

	"github.com/roach88/hierframe/internal/frame"
)

// Describe renders an expression in the syntax Parse reads, so that
// Parse(Describe(e)) yields an equivalent expression.
func Describe(e Expr) string {
	return describe(e, false)
}

// describe parenthesises junctions nested inside another junction.
// Comparisons bind tighter than && and || and need no parentheses.
func describe(e Expr, nested bool) string {
	switch x := e.(type) {
	case nil:
		return "<nil>"
	case Col:
		return x.Ref.String()
	case Const:
		if x.Value {
			return "true"
		}
		return "false"
	case Not:
		switch x.X.(type) {
		case Col, Const:
			return "!" + describe(x.X, false)
		}
		return "!(" + describe(x.X, false) + ")"
	case And:
		return junctionText(x.Exprs, " && ", "true", nested)
	case Or:
		return junctionText(x.Exprs, " || ", "false", nested)
	case Equals:
		return fmt.Sprintf("%s == %s", x.Ref, literalText(x.Value))
	case Compare:
		return fmt.Sprintf("%s %s %s", x.Ref, x.Op, literalText(x.Value))
	default:
		return fmt.Sprintf("<%T>", e)
	}
}

func junctionText(exprs []Expr, sep, empty string, nested bool) string {
	switch len(exprs) {
	case 0:
		return empty
	case 1:
		return describe(exprs[0], nested)
	}
	parts := make([]string, len(exprs))
	for i, sub := range exprs {
		parts[i] = describe(sub, true)
	}
	s := strings.Join(parts, sep)
	if nested {
		return "(" + s + ")"
	}
	return s
}

func literalText(v frame.Value) string {
	data, err := frame.MarshalValue(v)
	if err != nil {
		return frame.FormatValue(v)
	}
	return string(data)
}
