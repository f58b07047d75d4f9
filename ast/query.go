package ast

// Query keys.
const (
	KeySelect  = "select"
	KeyFrom    = "from"
	KeyWhere   = "where"
	KeyGroupBy = "groupby"
	KeyHaving  = "having"
	KeyOrderBy = "orderby"
	KeyLimit   = "limit"
	KeyOffset  = "offset"

	KeyValue   = "value"
	KeyName    = "name"
	KeySort    = "sort"
	KeyLiteral = "literal"
	KeyParam   = "param"
)

// Star is the select term for all columns.
const Star = String("*")

// SelectTerms returns the select list. A single term stored as a Map is returned
// as a one-element list.
func SelectTerms(query Map) List {
	switch terms := query[KeySelect].(type) {
	case List:
		return terms
	case Map, String:
		return List{terms}
	default:
		return nil
	}
}

// TermValue returns the expression of a select, group-by or order-by entry.
func TermValue(term Node) Node {
	if m, ok := term.(Map); ok {
		if v, ok := m[KeyValue]; ok {
			return v
		}
	}
	return term
}

// TermName returns the alias of a select term, or "".
func TermName(term Node) string {
	if m, ok := term.(Map); ok {
		if name, ok := m[KeyName].(String); ok {
			return string(name)
		}
	}
	return ""
}

// TermLabel is the name a select term is known by: its alias, or its expression
// rendered with column labels.
func TermLabel(term Node) string {
	if name := TermName(term); name != "" {
		return name
	}
	text, err := Format(TermValue(term))
	if err != nil {
		return ""
	}
	return text
}

// GroupByColumns returns the plain column references of the GROUP BY clause.
func GroupByColumns(query Map) []string {
	var columns []string
	for _, entry := range entries(query[KeyGroupBy]) {
		if col, ok := TermValue(entry).(String); ok && col != Star {
			columns = append(columns, string(col))
		}
	}
	return columns
}

// Table returns the FROM clause, "" when the query has none.
func Table(query Map) string {
	table, _ := query[KeyFrom].(String)
	return string(table)
}

// Literal builds a string literal node.
func Literal(s string) Map {
	return Map{KeyLiteral: String(s)}
}

func entries(n Node) List {
	switch v := n.(type) {
	case List:
		return v
	case nil:
		return nil
	default:
		return List{v}
	}
}
