// Package querysql compiles classification expressions to parameterized
// SQLite queries over persisted table rows.
//
// Rows are stored as canonical JSON cell objects; every column read goes
// through json_type/json_extract with the JSON path bound as a parameter.
// The compiled SQL keeps the in-memory semantics of classify.Eval: a Null
// or absent cell never satisfies a comparison, NotEqual included, and every
// fragment evaluates to 0 or 1, never SQL NULL, so NOT behaves as it does
// in memory.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/hierframe/internal/classify"
	"github.com/roach88/hierframe/internal/frame"
)

// Select reads the rows of one persisted table.
type Select struct {
	// Table is the persisted table name, e.g. "kmc_0".
	Table string
	// Filter keeps rows where it holds. Nil keeps every row.
	Filter classify.Expr
	// Limit caps the number of rows. Zero means no limit.
	Limit int
}

// SQLCompiler compiles Select queries for the store's rows table.
//
// Every query ends in ORDER BY idx, the row's position in key order, so
// results come back in the table's own order. Values and JSON paths are
// always bound as parameters, never interpolated.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts q to SQL selecting (idx, key, cells).
// Returns (sql, params, error).
func (c *SQLCompiler) Compile(q Select) (string, []any, error) {
	if q.Table == "" {
		return "", nil, fmt.Errorf("compile: table name is required")
	}
	if q.Limit < 0 {
		return "", nil, fmt.Errorf("compile: negative limit %d", q.Limit)
	}

	where := "table_name = ?"
	params := []any{q.Table}
	if q.Filter != nil {
		filterSQL, filterParams, err := c.CompileFilter(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where += " AND " + filterSQL
		params = append(params, filterParams...)
	}

	sql := "SELECT idx, key, cells FROM rows WHERE " + where + " ORDER BY idx ASC"
	if q.Limit > 0 {
		sql += " LIMIT ?"
		params = append(params, q.Limit)
	}
	return sql, params, nil
}

// CompileFilter compiles e to a WHERE fragment over the cells column.
func (c *SQLCompiler) CompileFilter(e classify.Expr) (string, []any, error) {
	if errs := classify.Check(e, nil); len(errs) > 0 {
		return "", nil, errs[0]
	}
	return c.compile(e)
}

func (c *SQLCompiler) compile(e classify.Expr) (string, []any, error) {
	switch x := e.(type) {
	case classify.Col:
		path, err := jsonPath(x.Ref)
		if err != nil {
			return "", nil, err
		}
		return "(json_type(cells, ?) IS 'true')", []any{path}, nil

	case classify.Const:
		if x.Value {
			return "(1 = 1)", nil, nil
		}
		return "(1 = 0)", nil, nil

	case classify.Not:
		sql, params, err := c.compile(x.X)
		if err != nil {
			return "", nil, err
		}
		return "(NOT " + sql + ")", params, nil

	case classify.And:
		return c.junction(x.Exprs, " AND ", "(1 = 1)")

	case classify.Or:
		return c.junction(x.Exprs, " OR ", "(1 = 0)")

	case classify.Equals:
		return c.equals(x.Ref, x.Value)

	case classify.Compare:
		return c.compare(x)

	default:
		return "", nil, fmt.Errorf("unsupported expression type: %T", e)
	}
}

func (c *SQLCompiler) junction(exprs []classify.Expr, sep, empty string) (string, []any, error) {
	if len(exprs) == 0 {
		return empty, nil, nil
	}
	parts := make([]string, 0, len(exprs))
	var params []any
	for _, sub := range exprs {
		sql, p, err := c.compile(sub)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, p...)
	}
	return "(" + strings.Join(parts, sep) + ")", params, nil
}

// equals matches a cell of the literal's kind holding the literal's value.
// Int and Float literals match either numeric kind, as frame.Equal does.
func (c *SQLCompiler) equals(ref frame.ColumnRef, lit frame.Value) (string, []any, error) {
	path, err := jsonPath(ref)
	if err != nil {
		return "", nil, err
	}
	switch v := lit.(type) {
	case frame.Null:
		return "(1 = 0)", nil, nil
	case frame.Bool:
		want := "false"
		if v {
			want = "true"
		}
		return "(json_type(cells, ?) IS '" + want + "')", []any{path}, nil
	case frame.Int, frame.Float, frame.String:
		param, kinds := valueToParam(v)
		sql := "(COALESCE(json_type(cells, ?) IN (" + kinds + ") AND json_extract(cells, ?) = ?, 0))"
		return sql, []any{path, path, param}, nil
	default:
		return "", nil, fmt.Errorf("unsupported literal type for %s: %T", ref, lit)
	}
}

func (c *SQLCompiler) compare(x classify.Compare) (string, []any, error) {
	path, err := jsonPath(x.Ref)
	if err != nil {
		return "", nil, err
	}
	if x.Op == classify.NotEqual {
		if frame.IsNull(x.Value) {
			return "(1 = 0)", nil, nil
		}
		eq, params, err := c.equals(x.Ref, x.Value)
		if err != nil {
			return "", nil, err
		}
		present := "(COALESCE(json_type(cells, ?) NOT IN ('null'), 0))"
		return "(" + present + " AND NOT " + eq + ")", append([]any{path}, params...), nil
	}

	switch x.Value.(type) {
	case frame.Int, frame.Float:
	default:
		return "", nil, fmt.Errorf("%s %s: ordering needs a numeric literal, got %s", x.Ref, x.Op, frame.TypeName(x.Value))
	}
	param, kinds := valueToParam(x.Value)
	sql := fmt.Sprintf("(COALESCE(json_type(cells, ?) IN (%s) AND json_extract(cells, ?) %s ?, 0))", kinds, x.Op)
	return sql, []any{path, path, param}, nil
}

// jsonPath returns the JSON path of a column inside a cells object.
func jsonPath(ref frame.ColumnRef) (string, error) {
	name := ref.String()
	if strings.ContainsAny(name, `"\`) {
		return "", fmt.Errorf("column %q cannot be addressed in a JSON path", name)
	}
	return `$."` + name + `"`, nil
}

// valueToParam converts a scalar literal to a Go SQL parameter and the
// json_type kinds it compares against.
func valueToParam(v frame.Value) (any, string) {
	switch val := v.(type) {
	case frame.Int:
		return int64(val), "'integer', 'real'"
	case frame.Float:
		return float64(val), "'integer', 'real'"
	case frame.String:
		return string(val), "'text'"
	default:
		return nil, "''"
	}
}
