package processing

import (
	"fmt"
	"strings"

	"github.com/sheetsql/sheets-client-go/ast"
	"github.com/sheetsql/sheets-client-go/gviz"
)

const (
	partYear  = "year"
	partMonth = "month"
)

var dateTruncQuery = NewMatcher(ast.Map{ast.KeySelect: ast.Map{ast.KeyValue: ast.Map{"datetrunc": ast.Any}}})

// DateTruncRule handles DATE_TRUNC('month', col). The remote has no date
// truncation, so the column is selected as year(col) and month(col) and the two
// are put back together into the first day of the month.
type DateTruncRule struct{}

func (DateTruncRule) Name() string { return "DateTrunc" }

func (DateTruncRule) Match(query ast.Map) bool {
	if !dateTruncQuery.Match(query) {
		return false
	}
	for _, term := range ast.SelectTerms(query) {
		if _, ok := monthTrunc(ast.TermValue(term)); ok {
			return true
		}
	}
	return false
}

// monthTrunc returns the column truncated by a datetrunc('month', col) call.
func monthTrunc(n ast.Node) (string, bool) {
	call, ok := n.(ast.Map)
	if !ok || len(call) != 1 {
		return "", false
	}
	args, ok := call["datetrunc"].(ast.List)
	if !ok || len(args) != 2 {
		return "", false
	}
	unit, ok := args[0].(ast.Map)
	if !ok || len(unit) != 1 {
		return "", false
	}
	if text, ok := unit[ast.KeyLiteral].(ast.String); !ok || !strings.EqualFold(string(text), partMonth) {
		return "", false
	}
	column, ok := args[1].(ast.String)
	if !ok || column == ast.Star {
		return "", false
	}
	return string(column), true
}

func (r DateTruncRule) PreProcess(query ast.Map, columns gviz.ColumnMap) (ast.Map, []Alias, error) {
	if !r.Match(query) {
		return nil, nil, ErrRuleMismatch
	}

	var (
		terms   ast.List
		aliases []Alias
	)
	for _, term := range ast.SelectTerms(query) {
		column, ok := monthTrunc(ast.TermValue(term))
		if !ok {
			terms = append(terms, term)
			aliases = append(aliases, termAliases(term, columns)...)
			continue
		}
		output := ast.TermName(term)
		if output == "" {
			output = "datetrunc month " + column
		}
		for _, part := range []string{partYear, partMonth} {
			name := syntheticName(r.Name(), column)
			if part == partMonth {
				name += "__" + partMonth
			}
			terms = append(terms, ast.Map{
				ast.KeyValue: ast.Map{part: ast.String(column)},
				ast.KeyName:  ast.String(name),
			})
			aliases = append(aliases, Alias{Name: name, Rule: r.Name(), Source: column, Part: part, Output: output})
		}
	}

	out := query.With(ast.KeySelect, terms)
	for _, key := range []string{ast.KeyGroupBy, ast.KeyOrderBy} {
		if entries, ok := out[key].(ast.List); ok {
			out = out.With(key, expandMonthTrunc(entries))
		}
	}
	return out, aliases, nil
}

// expandMonthTrunc replaces datetrunc('month', col) entries of a GROUP BY or
// ORDER BY list with year(col) and month(col) entries.
func expandMonthTrunc(entries ast.List) ast.List {
	out := make(ast.List, 0, len(entries))
	for _, entry := range entries {
		column, ok := monthTrunc(ast.TermValue(entry))
		if !ok {
			out = append(out, entry)
			continue
		}
		for _, part := range []string{partYear, partMonth} {
			expanded := ast.Map{ast.KeyValue: ast.Map{part: ast.String(column)}}
			if m, ok := entry.(ast.Map); ok {
				if sort, ok := m[ast.KeySort]; ok {
					expanded[ast.KeySort] = sort
				}
			}
			out = append(out, expanded)
		}
	}
	return out
}

func (r DateTruncRule) PostProcess(payload *gviz.Response, aliases []Alias) (*gviz.Response, error) {
	t, err := table(payload, aliases)
	if err != nil {
		return nil, err
	}

	type source struct {
		year, month int
		merged      bool
	}
	var sources []source
	out := &gviz.Table{ParsedNumHeaders: t.ParsedNumHeaders}
	for i := 0; i < len(aliases); i++ {
		alias := aliases[i]
		if alias.Rule != r.Name() {
			sources = append(sources, source{year: i})
			if i < len(t.Cols) {
				out.Cols = append(out.Cols, t.Cols[i])
			} else {
				out.Cols = append(out.Cols, gviz.Column{ID: alias.Name, Label: alias.Name})
			}
			continue
		}
		if alias.Part != partYear || i+1 >= len(aliases) || aliases[i+1].Part != partMonth || aliases[i+1].Source != alias.Source {
			return nil, fmt.Errorf("%w: unpaired date part %s", ErrPayloadShape, alias.Name)
		}
		sources = append(sources, source{year: i, month: i + 1, merged: true})
		out.Cols = append(out.Cols, gviz.Column{ID: "datetrunc-" + alias.Source, Label: alias.Output, Type: "date"})
		i++
	}

	out.Rows = make([]gviz.Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]*gviz.Cell, 0, len(sources))
		for _, s := range sources {
			if !s.merged {
				cells = append(cells, row.Cells[s.year])
				continue
			}
			cells = append(cells, monthStart(row.Cells[s.year], row.Cells[s.month]))
		}
		out.Rows = append(out.Rows, gviz.Row{Cells: cells})
	}
	return withTable(payload, out), nil
}

// monthStart builds the date cell for the first day of a month from the
// remote's year and zero-based month values.
func monthStart(year, month *gviz.Cell) *gviz.Cell {
	if year == nil || month == nil {
		return nil
	}
	y, ok := gviz.ToFloat(year.Value)
	if !ok {
		return nil
	}
	m, ok := gviz.ToFloat(month.Value)
	if !ok {
		return nil
	}
	return &gviz.Cell{
		Value:     fmt.Sprintf("Date(%d,%d,1)", int(y), int(m)),
		Formatted: fmt.Sprintf("%04d-%02d-01", int(y), int(m)+1),
	}
}
