package ast

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sheetsql/sheets-client-go/gviz"
)

var binaryOps = map[string]string{
	"eq":      "=",
	"neq":     "!=",
	"lt":      "<",
	"lte":     "<=",
	"gt":      ">",
	"gte":     ">=",
	"like":    "like",
	"matches": "matches",
	"add":     "+",
	"sub":     "-",
	"mul":     "*",
	"div":     "/",
}

var bareIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Translate serializes a query tree into the remote query language. Column labels
// are replaced by their remote ids; references that are not in columns pass
// through unchanged and are left for the remote to accept or reject. Aliases
// become a LABEL clause since the remote has no AS.
func Translate(query Map, columns gviz.ColumnMap) (string, error) {
	t := &translator{columns: columns}
	return t.query(query)
}

// Format renders an expression using column labels.
func Format(expr Node) (string, error) {
	t := &translator{}
	return t.expr(expr)
}

type translator struct {
	columns gviz.ColumnMap
}

func (t *translator) query(query Map) (string, error) {
	if _, ok := query[KeyHaving]; ok {
		return "", fmt.Errorf("%w: HAVING", ErrNotSupported)
	}
	var clauses []string

	selectList, labels, err := t.selectList(SelectTerms(query))
	if err != nil {
		return "", err
	}
	clauses = append(clauses, "SELECT "+selectList)

	if where, ok := query[KeyWhere]; ok {
		text, err := t.expr(where)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, "WHERE "+text)
	}

	if groupBy := entries(query[KeyGroupBy]); len(groupBy) > 0 {
		parts := make([]string, 0, len(groupBy))
		for _, entry := range groupBy {
			text, err := t.expr(TermValue(entry))
			if err != nil {
				return "", err
			}
			parts = append(parts, text)
		}
		clauses = append(clauses, "GROUP BY "+strings.Join(parts, ", "))
	}

	if orderBy := entries(query[KeyOrderBy]); len(orderBy) > 0 {
		parts := make([]string, 0, len(orderBy))
		for _, entry := range orderBy {
			text, err := t.expr(TermValue(entry))
			if err != nil {
				return "", err
			}
			if m, ok := entry.(Map); ok {
				if dir, ok := m[KeySort].(String); ok && dir != "" {
					text += " " + strings.ToUpper(string(dir))
				}
			}
			parts = append(parts, text)
		}
		clauses = append(clauses, "ORDER BY "+strings.Join(parts, ", "))
	}

	for _, key := range []string{KeyLimit, KeyOffset} {
		value, ok := query[key]
		if !ok {
			continue
		}
		n, ok := value.(Number)
		if !ok || n < 0 || float64(n) != float64(int64(n)) {
			return "", fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidQuery, key)
		}
		clauses = append(clauses, fmt.Sprintf("%s %d", strings.ToUpper(key), int64(n)))
	}

	if len(labels) > 0 {
		clauses = append(clauses, "LABEL "+strings.Join(labels, ", "))
	}
	return strings.Join(clauses, " "), nil
}

func (t *translator) selectList(terms List) (string, []string, error) {
	if len(terms) == 0 {
		return "", nil, fmt.Errorf("%w: empty select list", ErrInvalidQuery)
	}
	if len(terms) == 1 && terms[0] == Star {
		return "*", nil, nil
	}
	var parts, labels []string
	for _, term := range terms {
		if term == Star {
			// the remote only accepts * on its own
			for _, entry := range t.columns {
				parts = append(parts, t.column(entry.Label))
			}
			continue
		}
		text, err := t.expr(TermValue(term))
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, text)
		if name := TermName(term); name != "" {
			quoted, err := quote(name)
			if err != nil {
				return "", nil, err
			}
			labels = append(labels, text+" "+quoted)
		}
	}
	return strings.Join(parts, ", "), labels, nil
}

func (t *translator) column(label string) string {
	if id, ok := t.columns.ID(label); ok {
		return id
	}
	if label == "*" || bareIdentifier.MatchString(label) {
		return label
	}
	return "`" + label + "`"
}

func (t *translator) expr(n Node) (string, error) {
	switch v := n.(type) {
	case String:
		return t.column(string(v)), nil
	case Number:
		return strconv.FormatFloat(float64(v), 'f', -1, 64), nil
	case Bool:
		return strconv.FormatBool(bool(v)), nil
	case Null:
		return "null", nil
	case Map:
		if len(v) != 1 {
			return "", fmt.Errorf("%w: expression with keys %v", ErrNotSupported, v.Keys())
		}
		for op, arg := range v {
			return t.call(op, arg)
		}
	}
	return "", fmt.Errorf("%w: expression %T", ErrNotSupported, n)
}

func (t *translator) call(op string, arg Node) (string, error) {
	switch op {
	case KeyParam:
		return "", fmt.Errorf("%w: parameter %v is not bound", ErrInvalidQuery, arg)
	case KeyLiteral:
		s, ok := arg.(String)
		if !ok {
			return "", fmt.Errorf("%w: literal %T", ErrNotSupported, arg)
		}
		return quote(string(s))
	case "and", "or":
		return t.join(entries(arg), op, " "+op+" ")
	case "not", "neg":
		inner, err := t.operand(arg, op)
		if err != nil {
			return "", err
		}
		if op == "neg" {
			return "-" + inner, nil
		}
		return "not " + inner, nil
	case "missing", "exists":
		inner, err := t.operand(arg, op)
		if err != nil {
			return "", err
		}
		if op == "missing" {
			return inner + " is null", nil
		}
		return inner + " is not null", nil
	case "between":
		args := entries(arg)
		if len(args) != 3 {
			return "", fmt.Errorf("%w: between takes 3 arguments", ErrInvalidQuery)
		}
		return t.join(List{Map{"gte": List{args[0], args[1]}}, Map{"lte": List{args[0], args[2]}}}, "and", " and ")
	case "in", "nin":
		// the remote has no IN, so it becomes a chain of equalities
		args := entries(arg)
		if len(args) != 2 {
			return "", fmt.Errorf("%w: %s takes 2 arguments", ErrInvalidQuery, op)
		}
		var alternatives List
		for _, value := range entries(args[1]) {
			alternatives = append(alternatives, Map{"eq": List{args[0], value}})
		}
		text, err := t.join(alternatives, "or", " or ")
		if err != nil {
			return "", err
		}
		if op == "nin" {
			return "not (" + text + ")", nil
		}
		return "(" + text + ")", nil
	}

	if symbol, ok := binaryOps[op]; ok {
		args := entries(arg)
		if len(args) != 2 {
			return "", fmt.Errorf("%w: %s takes 2 arguments", ErrInvalidQuery, op)
		}
		return t.join(args, op, " "+symbol+" ")
	}

	// anything else is a function call
	args := entries(arg)
	parts := make([]string, 0, len(args))
	for _, a := range args {
		text, err := t.expr(a)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	return op + "(" + strings.Join(parts, ", ") + ")", nil
}

func (t *translator) join(operands List, op, sep string) (string, error) {
	parts := make([]string, 0, len(operands))
	for _, operand := range operands {
		text, err := t.operand(operand, op)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, sep), nil
}

// operand renders n as an argument of parent, parenthesized unless n binds
// tighter.
func (t *translator) operand(n Node, parent string) (string, error) {
	text, err := t.expr(n)
	if err != nil {
		return "", err
	}
	if p := precedence(n); p > 0 && p <= precedenceOf(parent) {
		return "(" + text + ")", nil
	}
	return text, nil
}

// precedence is 0 for nodes that never need parentheses.
func precedence(n Node) int {
	m, ok := n.(Map)
	if !ok || len(m) != 1 {
		return 0
	}
	for op := range m {
		return precedenceOf(op)
	}
	return 0
}

func precedenceOf(op string) int {
	switch op {
	case "or":
		return 1
	case "and", "between":
		return 2
	case "not", "nin":
		return 3
	case "eq", "neq", "lt", "lte", "gt", "gte", "like", "matches", "missing", "exists":
		return 4
	case "add", "sub":
		return 5
	case "mul", "div":
		return 6
	case "neg":
		return 7
	}
	return 0
}

// quote writes a string literal. The remote has no escape sequences, so the
// quote character is chosen to avoid the content; text holding both quote
// characters cannot be written at all.
func quote(s string) (string, error) {
	if !strings.ContainsRune(s, '\'') {
		return "'" + s + "'", nil
	}
	if strings.ContainsRune(s, '"') {
		return "", fmt.Errorf("%w: string %q holds both quote characters", ErrNotSupported, s)
	}
	return `"` + s + `"`, nil
}
