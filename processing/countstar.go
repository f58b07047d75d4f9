package processing

import (
	"fmt"

	"github.com/sheetsql/sheets-client-go/ast"
	"github.com/sheetsql/sheets-client-go/gviz"
)

const (
	countStarID    = "count-star"
	countStarLabel = "count star"
)

var (
	countStarQuery = NewMatcher(ast.Map{ast.KeySelect: ast.Map{ast.KeyValue: ast.Map{"count": ast.Star}}})
	countStarTerm  = NewMatcher(ast.Map{ast.KeyValue: ast.Map{"count": ast.Star}})
)

// CountStarRule rewrites COUNT(*), which the remote cannot run, into a count of
// every column. The largest of those counts is the row count as long as each
// row has a value in at least one column.
type CountStarRule struct{}

func (CountStarRule) Name() string { return "CountStar" }

func (CountStarRule) Match(query ast.Map) bool {
	return countStarQuery.Match(query)
}

func (r CountStarRule) PreProcess(query ast.Map, columns gviz.ColumnMap) (ast.Map, []Alias, error) {
	if !r.Match(query) {
		return nil, nil, ErrRuleMismatch
	}
	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("%w: cannot expand COUNT(*)", ErrNoColumns)
	}

	grouped := query[ast.KeyGroupBy] != nil
	grouping := make(map[string]bool)
	for _, label := range ast.GroupByColumns(query) {
		grouping[label] = true
	}
	var counted []string
	for _, label := range columns.SortedLabels() {
		if !grouping[label] {
			counted = append(counted, label)
		}
	}
	if len(counted) == 0 {
		counted = columns.SortedLabels()
	}

	var (
		terms    ast.List
		aliases  []Alias
		replaced bool
	)
	for _, term := range ast.SelectTerms(query) {
		if countStarTerm.Match(term) && replaced {
			return nil, nil, fmt.Errorf("%w: more than one COUNT(*) in the select list", ast.ErrNotSupported)
		}
		if !countStarTerm.Match(term) {
			terms = append(terms, term)
			aliases = append(aliases, termAliases(term, columns)...)
			continue
		}
		output := ast.TermName(term)
		if output == "" {
			output = countStarLabel
		}
		for _, label := range counted {
			name := syntheticName(r.Name(), label)
			terms = append(terms, ast.Map{
				ast.KeyValue: ast.Map{"count": ast.String(label)},
				ast.KeyName:  ast.String(name),
			})
			aliases = append(aliases, Alias{Name: name, Rule: r.Name(), Source: label, Output: output, Grouped: grouped})
		}
		replaced = true
	}
	rewritten := query.With(ast.KeySelect, terms)
	if orderBy, ok := query[ast.KeyOrderBy]; ok {
		rewritten[ast.KeyOrderBy] = orderByCount(orderBy, counted[0])
	}
	return rewritten, aliases, nil
}

// orderByCount sorts by the count of label wherever the query sorts by
// COUNT(*). The remote can only sort by an aggregate it computes, and each
// column count orders the rows like COUNT(*) as long as that column has no
// blanks.
func orderByCount(orderBy ast.Node, label string) ast.Node {
	rewrite := func(entry ast.Node) ast.Node {
		if m, ok := entry.(ast.Map); ok && countStarTerm.Match(m) {
			return m.With(ast.KeyValue, ast.Map{"count": ast.String(label)})
		}
		return entry
	}
	entries, ok := orderBy.(ast.List)
	if !ok {
		return rewrite(orderBy)
	}
	out := make(ast.List, 0, len(entries))
	for _, entry := range entries {
		out = append(out, rewrite(entry))
	}
	return out
}

func (r CountStarRule) PostProcess(payload *gviz.Response, aliases []Alias) (*gviz.Response, error) {
	t, err := table(payload, aliases)
	if err != nil {
		return nil, err
	}

	var (
		kept      []int
		synthetic []int
		output    = countStarLabel
		grouped   bool
	)
	for i, alias := range aliases {
		if alias.Rule == r.Name() {
			if len(synthetic) == 0 {
				output = alias.Output
				grouped = alias.Grouped
			}
			synthetic = append(synthetic, i)
		} else {
			kept = append(kept, i)
		}
	}

	out := &gviz.Table{ParsedNumHeaders: t.ParsedNumHeaders}
	for _, i := range kept {
		if i < len(t.Cols) {
			out.Cols = append(out.Cols, t.Cols[i])
		} else {
			out.Cols = append(out.Cols, gviz.Column{ID: aliases[i].Name, Label: aliases[i].Name})
		}
	}
	out.Cols = append(out.Cols, gviz.Column{ID: countStarID, Label: output, Type: "number"})

	out.Rows = make([]gviz.Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]*gviz.Cell, 0, len(kept)+1)
		for _, i := range kept {
			cells = append(cells, row.Cells[i])
		}
		total := 0.0
		for _, i := range synthetic {
			if row.Cells[i] == nil {
				continue
			}
			if n, ok := gviz.ToFloat(row.Cells[i].Value); ok && n > total {
				total = n
			}
		}
		cells = append(cells, &gviz.Cell{Value: total})
		out.Rows = append(out.Rows, gviz.Row{Cells: cells})
	}

	// COUNT(*) over nothing is one row holding 0; grouped, it is no groups.
	if len(t.Rows) == 0 && !grouped {
		cells := make([]*gviz.Cell, len(kept), len(kept)+1)
		out.Rows = append(out.Rows, gviz.Row{Cells: append(cells, &gviz.Cell{Value: 0.0})})
	}
	return withTable(payload, out), nil
}
