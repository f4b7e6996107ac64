package classify

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/literal"
	"cuelang.org/go/cue/parser"
	"cuelang.org/go/cue/token"

	"github.com/roach88/hierframe/internal/frame"
)

// Parse reads an expression in CUE expression syntax.
//
// Supported forms:
//   - flag                      → Col{flag}
//   - group.field == literal    → Equals
//   - group.field != < <= > >= literal → Compare
//   - a && b, a || b, !a, (a)   → And, Or, Not
//   - true, false               → Const
//
// Literals are integers, floats, quoted strings, true, false and null.
// A literal may appear on either side of a comparison.
func Parse(src string) (Expr, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("empty expression")
	}
	node, err := parser.ParseExpr("expr", src)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", src, err)
	}
	e, err := fromAST(node)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", src, err)
	}
	return e, nil
}

// MustParse is Parse for static expressions. Panics on malformed input.
func MustParse(src string) Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

func fromAST(n ast.Expr) (Expr, error) {
	switch x := n.(type) {
	case *ast.ParenExpr:
		return fromAST(x.X)

	case *ast.UnaryExpr:
		if x.Op != token.NOT {
			return nil, fmt.Errorf("unsupported unary operator %s", x.Op)
		}
		inner, err := fromAST(x.X)
		if err != nil {
			return nil, err
		}
		return Not{X: inner}, nil

	case *ast.BinaryExpr:
		switch x.Op {
		case token.LAND:
			return junction(x, token.LAND, func(es []Expr) Expr { return And{Exprs: es} })
		case token.LOR:
			return junction(x, token.LOR, func(es []Expr) Expr { return Or{Exprs: es} })
		case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
			return comparison(x)
		default:
			return nil, fmt.Errorf("unsupported operator %s", x.Op)
		}

	case *ast.BasicLit:
		switch x.Kind {
		case token.TRUE:
			return Const{Value: true}, nil
		case token.FALSE:
			return Const{Value: false}, nil
		default:
			return nil, fmt.Errorf("literal %s is not a condition", x.Value)
		}

	case *ast.Ident, *ast.SelectorExpr:
		ref, err := refOf(n)
		if err != nil {
			return nil, err
		}
		return Col{Ref: ref}, nil

	default:
		return nil, fmt.Errorf("unsupported syntax %T", n)
	}
}

// junction flattens a chain of the same operator: a && b && c is one And.
func junction(x *ast.BinaryExpr, op token.Token, mk func([]Expr) Expr) (Expr, error) {
	var operands []Expr
	var collect func(n ast.Expr) error
	collect = func(n ast.Expr) error {
		if b, ok := n.(*ast.BinaryExpr); ok && b.Op == op {
			if err := collect(b.X); err != nil {
				return err
			}
			return collect(b.Y)
		}
		e, err := fromAST(n)
		if err != nil {
			return err
		}
		operands = append(operands, e)
		return nil
	}
	if err := collect(x); err != nil {
		return nil, err
	}
	return mk(operands), nil
}

func comparison(x *ast.BinaryExpr) (Expr, error) {
	op := x.Op
	refNode, litNode := x.X, x.Y
	if isLiteral(refNode) && !isLiteral(litNode) {
		refNode, litNode = litNode, refNode
		op = flipToken(op)
	}
	ref, err := refOf(refNode)
	if err != nil {
		return nil, fmt.Errorf("left of %s: %w", x.Op, err)
	}
	val, err := literalOf(litNode)
	if err != nil {
		return nil, fmt.Errorf("right of %s: %w", x.Op, err)
	}

	switch op {
	case token.EQL:
		return Equals{Ref: ref, Value: val}, nil
	case token.NEQ:
		return Compare{Ref: ref, Op: NotEqual, Value: val}, nil
	case token.LSS:
		return Compare{Ref: ref, Op: Less, Value: val}, nil
	case token.LEQ:
		return Compare{Ref: ref, Op: LessEqual, Value: val}, nil
	case token.GTR:
		return Compare{Ref: ref, Op: Greater, Value: val}, nil
	default:
		return Compare{Ref: ref, Op: GreaterEqual, Value: val}, nil
	}
}

func flipToken(op token.Token) token.Token {
	switch op {
	case token.LSS:
		return token.GTR
	case token.LEQ:
		return token.GEQ
	case token.GTR:
		return token.LSS
	case token.GEQ:
		return token.LEQ
	default:
		return op
	}
}

// refOf turns an identifier or selector chain into a column reference:
// nu.position.x is group "nu", field "position.x".
func refOf(n ast.Expr) (frame.ColumnRef, error) {
	var parts []string
	for {
		switch x := n.(type) {
		case *ast.Ident:
			parts = append(parts, x.Name)
			for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
				parts[i], parts[j] = parts[j], parts[i]
			}
			return frame.Ref(strings.Join(parts, "."))
		case *ast.SelectorExpr:
			name, _, err := ast.LabelName(x.Sel)
			if err != nil {
				return frame.ColumnRef{}, fmt.Errorf("selector: %w", err)
			}
			parts = append(parts, name)
			n = x.X
		default:
			return frame.ColumnRef{}, fmt.Errorf("expected a column name, got %T", n)
		}
	}
}

func isLiteral(n ast.Expr) bool {
	switch x := n.(type) {
	case *ast.BasicLit:
		return true
	case *ast.UnaryExpr:
		_, ok := x.X.(*ast.BasicLit)
		return ok && (x.Op == token.SUB || x.Op == token.ADD)
	default:
		return false
	}
}

func literalOf(n ast.Expr) (frame.Value, error) {
	negate := false
	if u, ok := n.(*ast.UnaryExpr); ok && (u.Op == token.SUB || u.Op == token.ADD) {
		negate = u.Op == token.SUB
		n = u.X
	}
	lit, ok := n.(*ast.BasicLit)
	if !ok {
		return nil, fmt.Errorf("expected a literal, got %T", n)
	}

	switch lit.Kind {
	case token.INT:
		v, err := strconv.ParseInt(strings.ReplaceAll(lit.Value, "_", ""), 0, 64)
		if err != nil {
			return nil, fmt.Errorf("integer %s: %w", lit.Value, err)
		}
		if negate {
			v = -v
		}
		return frame.Int(v), nil
	case token.FLOAT:
		v, err := strconv.ParseFloat(strings.ReplaceAll(lit.Value, "_", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("float %s: %w", lit.Value, err)
		}
		if negate {
			v = -v
		}
		return frame.Float(v), nil
	}

	if negate {
		return nil, fmt.Errorf("cannot negate %s", lit.Value)
	}
	switch lit.Kind {
	case token.STRING:
		s, err := literal.Unquote(lit.Value)
		if err != nil {
			return nil, fmt.Errorf("string %s: %w", lit.Value, err)
		}
		return frame.String(s), nil
	case token.TRUE:
		return frame.Bool(true), nil
	case token.FALSE:
		return frame.Bool(false), nil
	case token.NULL:
		return frame.Null{}, nil
	default:
		return nil, fmt.Errorf("unsupported literal %s", lit.Value)
	}
}
