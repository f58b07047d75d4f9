package ast

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xwb1989/sqlparser"
)

var (
	// ErrInvalidQuery is matched by every parse failure.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNotSupported is returned for SQL the remote dialect has no equivalent for.
	ErrNotSupported = errors.New("not supported")
)

// ParseError reports SQL text that could not be parsed.
type ParseError struct {
	Query string
	Err   error
}

func (e *ParseError) Error() string {
	return "invalid query: " + e.Query
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is makes every ParseError match ErrInvalidQuery.
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidQuery
}

// functions whose spelling differs between SQL dialects
var functionAliases = map[string]string{
	"date_trunc": "datetrunc",
}

var comparisonOps = map[string]string{
	"=":      "eq",
	"!=":     "neq",
	"<>":     "neq",
	"<":      "lt",
	"<=":     "lte",
	">":      "gt",
	">=":     "gte",
	"like":   "like",
	"regexp": "matches",
	"in":     "in",
	"not in": "nin",
}

var arithmeticOps = map[string]string{
	"+": "add",
	"-": "sub",
	"*": "mul",
	"/": "div",
}

// Parse converts SQL text into a query tree. Double-quoted names are identifiers,
// so a sheet URL can be written as FROM "https://docs.google.com/...".
func Parse(sql string) (Map, error) {
	stmt, err := sqlparser.Parse(ansiQuotes(sql))
	if err != nil {
		return nil, &ParseError{Query: sql, Err: err}
	}
	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, &ParseError{Query: sql, Err: fmt.Errorf("%w: only SELECT statements can be executed", ErrNotSupported)}
	}
	return convertSelect(sel)
}

// ansiQuotes rewrites "identifier" into `identifier`, leaving single-quoted
// strings alone.
func ansiQuotes(sql string) string {
	var b strings.Builder
	b.Grow(len(sql))
	runes := []rune(sql)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '\'':
			b.WriteRune(r)
			for i++; i < len(runes); i++ {
				b.WriteRune(runes[i])
				if runes[i] == '\\' && i+1 < len(runes) {
					i++
					b.WriteRune(runes[i])
					continue
				}
				if runes[i] == '\'' {
					if i+1 < len(runes) && runes[i+1] == '\'' {
						i++
						b.WriteRune(runes[i])
						continue
					}
					break
				}
			}
		case '"':
			b.WriteRune('`')
			for i++; i < len(runes); i++ {
				if runes[i] == '"' {
					if i+1 < len(runes) && runes[i+1] == '"' {
						i++
						b.WriteRune('"')
						continue
					}
					break
				}
				if runes[i] == '`' {
					b.WriteString("``")
					continue
				}
				b.WriteRune(runes[i])
			}
			b.WriteRune('`')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func convertSelect(sel *sqlparser.Select) (Map, error) {
	if sel.Distinct != "" {
		return nil, fmt.Errorf("%w: DISTINCT", ErrNotSupported)
	}
	query := Map{}

	terms := make(List, 0, len(sel.SelectExprs))
	for _, expr := range sel.SelectExprs {
		term, err := convertSelectExpr(expr)
		if err != nil {
			return nil, err
		}
		if aliased, ok := expr.(*sqlparser.AliasedExpr); ok && !aliased.As.IsEmpty() {
			term = Map{KeyValue: term, KeyName: String(aliased.As.String())}
		} else if term != Star {
			term = Map{KeyValue: term}
		}
		terms = append(terms, term)
	}
	query[KeySelect] = terms

	table, err := convertFrom(sel.From)
	if err != nil {
		return nil, err
	}
	if table != "" {
		query[KeyFrom] = String(table)
	}

	if sel.Where != nil {
		where, err := convertExpr(sel.Where.Expr)
		if err != nil {
			return nil, err
		}
		query[KeyWhere] = where
	}

	if len(sel.GroupBy) > 0 {
		groupBy := make(List, 0, len(sel.GroupBy))
		for _, expr := range sel.GroupBy {
			value, err := convertExpr(expr)
			if err != nil {
				return nil, err
			}
			groupBy = append(groupBy, Map{KeyValue: value})
		}
		query[KeyGroupBy] = groupBy
	}

	if sel.Having != nil {
		having, err := convertExpr(sel.Having.Expr)
		if err != nil {
			return nil, err
		}
		query[KeyHaving] = having
	}

	if len(sel.OrderBy) > 0 {
		orderBy := make(List, 0, len(sel.OrderBy))
		for _, order := range sel.OrderBy {
			value, err := convertExpr(order.Expr)
			if err != nil {
				return nil, err
			}
			entry := Map{KeyValue: value}
			if order.Direction != "" {
				entry[KeySort] = String(strings.ToLower(order.Direction))
			}
			orderBy = append(orderBy, entry)
		}
		query[KeyOrderBy] = orderBy
	}

	if sel.Limit != nil {
		if sel.Limit.Rowcount != nil {
			limit, err := convertExpr(sel.Limit.Rowcount)
			if err != nil {
				return nil, err
			}
			query[KeyLimit] = limit
		}
		if sel.Limit.Offset != nil {
			offset, err := convertExpr(sel.Limit.Offset)
			if err != nil {
				return nil, err
			}
			query[KeyOffset] = offset
		}
	}
	return query, nil
}

func convertFrom(from sqlparser.TableExprs) (string, error) {
	if len(from) == 0 {
		return "", nil
	}
	if len(from) > 1 {
		return "", fmt.Errorf("%w: joins", ErrNotSupported)
	}
	aliased, ok := from[0].(*sqlparser.AliasedTableExpr)
	if !ok {
		return "", fmt.Errorf("%w: joins", ErrNotSupported)
	}
	name, ok := aliased.Expr.(sqlparser.TableName)
	if !ok {
		return "", fmt.Errorf("%w: subqueries", ErrNotSupported)
	}
	table := name.Name.String()
	if !name.Qualifier.IsEmpty() {
		table = name.Qualifier.String() + "." + table
	} else if table == "dual" {
		return "", nil
	}
	return table, nil
}

func convertSelectExpr(expr sqlparser.SelectExpr) (Node, error) {
	switch e := expr.(type) {
	case *sqlparser.StarExpr:
		return Star, nil
	case *sqlparser.AliasedExpr:
		return convertExpr(e.Expr)
	default:
		return nil, fmt.Errorf("%w: select expression %s", ErrNotSupported, sqlparser.String(expr))
	}
}

func convertExpr(expr sqlparser.Expr) (Node, error) {
	switch e := expr.(type) {
	case *sqlparser.ColName:
		return String(e.Name.String()), nil
	case *sqlparser.SQLVal:
		return convertValue(e)
	case sqlparser.BoolVal:
		return Bool(e), nil
	case *sqlparser.NullVal:
		return Null{}, nil
	case *sqlparser.ParenExpr:
		return convertExpr(e.Expr)
	case *sqlparser.FuncExpr:
		return convertFunc(e)
	case *sqlparser.AndExpr:
		return convertLogical("and", e.Left, e.Right)
	case *sqlparser.OrExpr:
		return convertLogical("or", e.Left, e.Right)
	case *sqlparser.NotExpr:
		inner, err := convertExpr(e.Expr)
		if err != nil {
			return nil, err
		}
		return Map{"not": inner}, nil
	case *sqlparser.ComparisonExpr:
		return convertComparison(e)
	case *sqlparser.IsExpr:
		inner, err := convertExpr(e.Expr)
		if err != nil {
			return nil, err
		}
		switch e.Operator {
		case "is null":
			return Map{"missing": inner}, nil
		case "is not null":
			return Map{"exists": inner}, nil
		}
	case *sqlparser.RangeCond:
		args, err := convertExprs(e.Left, e.From, e.To)
		if err != nil {
			return nil, err
		}
		between := Map{"between": args}
		if e.Operator == "not between" {
			return Map{"not": between}, nil
		}
		return between, nil
	case *sqlparser.BinaryExpr:
		op, ok := arithmeticOps[e.Operator]
		if !ok {
			break
		}
		args, err := convertExprs(e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		return Map{op: args}, nil
	case *sqlparser.UnaryExpr:
		if e.Operator != "-" {
			break
		}
		inner, err := convertExpr(e.Expr)
		if err != nil {
			return nil, err
		}
		if n, ok := inner.(Number); ok {
			return -n, nil
		}
		return Map{"neg": inner}, nil
	case sqlparser.ValTuple:
		return convertExprs(e...)
	}
	return nil, fmt.Errorf("%w: expression %s", ErrNotSupported, sqlparser.String(expr))
}

func convertExprs(exprs ...sqlparser.Expr) (List, error) {
	out := make(List, 0, len(exprs))
	for _, expr := range exprs {
		n, err := convertExpr(expr)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func convertValue(v *sqlparser.SQLVal) (Node, error) {
	switch v.Type {
	case sqlparser.StrVal:
		return Literal(string(v.Val)), nil
	case sqlparser.IntVal, sqlparser.FloatVal:
		f, err := strconv.ParseFloat(string(v.Val), 64)
		if err != nil {
			return nil, err
		}
		return Number(f), nil
	case sqlparser.ValArg:
		// the tokenizer names the n-th '?' ":vn"
		n, err := strconv.Atoi(strings.TrimPrefix(string(v.Val), ":v"))
		if err != nil {
			return nil, fmt.Errorf("%w: named parameter %s", ErrNotSupported, v.Val)
		}
		return Map{KeyParam: Number(n)}, nil
	}
	return nil, fmt.Errorf("%w: value %s", ErrNotSupported, sqlparser.String(v))
}

func convertFunc(f *sqlparser.FuncExpr) (Node, error) {
	if f.Distinct {
		return nil, fmt.Errorf("%w: DISTINCT in %s", ErrNotSupported, f.Name.String())
	}
	name := f.Name.Lowered()
	if alias, ok := functionAliases[name]; ok {
		name = alias
	}
	args := make(List, 0, len(f.Exprs))
	for _, expr := range f.Exprs {
		arg, err := convertSelectExpr(expr)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if len(args) == 1 {
		return Map{name: args[0]}, nil
	}
	return Map{name: args}, nil
}

// convertLogical flattens nested AND/OR chains into one operand list.
func convertLogical(op string, left, right sqlparser.Expr) (Node, error) {
	operands := List{}
	for _, side := range []sqlparser.Expr{left, right} {
		n, err := convertExpr(side)
		if err != nil {
			return nil, err
		}
		if nested, ok := n.(Map); ok && len(nested) == 1 {
			if inner, ok := nested[op].(List); ok {
				operands = append(operands, inner...)
				continue
			}
		}
		operands = append(operands, n)
	}
	return Map{op: operands}, nil
}

func convertComparison(c *sqlparser.ComparisonExpr) (Node, error) {
	negate := false
	operator := c.Operator
	switch operator {
	case "not like":
		operator, negate = "like", true
	case "not regexp":
		operator, negate = "regexp", true
	}
	op, ok := comparisonOps[operator]
	if !ok {
		return nil, fmt.Errorf("%w: operator %s", ErrNotSupported, c.Operator)
	}
	args, err := convertExprs(c.Left, c.Right)
	if err != nil {
		return nil, err
	}
	var n Node = Map{op: args}
	if negate {
		n = Map{"not": n}
	}
	return n, nil
}
