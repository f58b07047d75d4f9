package processing

import (
	"errors"
	"fmt"

	"github.com/sheetsql/sheets-client-go/ast"
	"github.com/sheetsql/sheets-client-go/gviz"
)

var (
	// ErrRuleMismatch is returned when a rule is asked to rewrite a query it does
	// not match.
	ErrRuleMismatch = errors.New("rule does not match query")
	// ErrPayloadShape is returned when a payload does not line up with the
	// aliases of the request that produced it.
	ErrPayloadShape = errors.New("payload does not match request")
	// ErrNoColumns is returned when a rewrite needs the table columns and none
	// are known.
	ErrNoColumns = errors.New("no columns known for table")
)

// Rule is a rewrite for one query shape the remote dialect cannot run.
type Rule interface {
	Name() string
	// Match reports whether the rule applies to query.
	Match(query ast.Map) bool
	// PreProcess rewrites query into the remote dialect's terms. The returned
	// aliases describe the rewritten select list position by position. query is
	// not modified.
	PreProcess(query ast.Map, columns gviz.ColumnMap) (ast.Map, []Alias, error)
	// PostProcess turns the payload of the rewritten query back into the payload
	// the original query would have produced. Zero rows is never an error.
	PostProcess(payload *gviz.Response, aliases []Alias) (*gviz.Response, error)
}

// Alias names one column of a rewritten select list and records where it came
// from. Rule is empty for columns the user asked for.
type Alias struct {
	// Name is the select list name sent to the remote.
	Name string
	// Rule is the name of the rule that introduced the column.
	Rule string
	// Source is the label of the column the synthetic column is derived from.
	Source string
	// Part tells apart several synthetic columns derived from one source.
	Part string
	// Output is the label of the column the synthetic columns collapse into.
	Output string
	// Grouped is set on synthetic columns of a query with a GROUP BY.
	Grouped bool
}

// Synthetic reports whether a rule introduced the column.
func (a Alias) Synthetic() bool {
	return a.Rule != ""
}

func syntheticName(rule, label string) string {
	return "__" + rule + "__" + label
}

// NoopRule never matches and leaves queries and payloads alone.
type NoopRule struct{}

func (NoopRule) Name() string { return "Noop" }

func (NoopRule) Match(ast.Map) bool { return false }

func (NoopRule) PreProcess(query ast.Map, columns gviz.ColumnMap) (ast.Map, []Alias, error) {
	var aliases []Alias
	for _, term := range ast.SelectTerms(query) {
		aliases = append(aliases, termAliases(term, columns)...)
	}
	return query, aliases, nil
}

func (NoopRule) PostProcess(payload *gviz.Response, _ []Alias) (*gviz.Response, error) {
	return payload, nil
}

// termAliases describes a select term the rules leave as is. A star stands for
// every column of the table.
func termAliases(term ast.Node, columns gviz.ColumnMap) []Alias {
	if term == ast.Star {
		aliases := make([]Alias, 0, len(columns))
		for _, label := range columns.Labels() {
			aliases = append(aliases, Alias{Name: label, Source: label, Output: label})
		}
		return aliases
	}
	label := ast.TermLabel(term)
	return []Alias{{Name: label, Source: label, Output: label}}
}

// table returns the payload table, checking that every row and the column list
// line up with aliases.
func table(payload *gviz.Response, aliases []Alias) (*gviz.Table, error) {
	if payload == nil {
		return nil, fmt.Errorf("%w: no payload", ErrPayloadShape)
	}
	if payload.Table == nil {
		return &gviz.Table{}, nil
	}
	t := payload.Table
	if len(t.Cols) != len(aliases) {
		return nil, fmt.Errorf("%w: %d columns for %d aliases", ErrPayloadShape, len(t.Cols), len(aliases))
	}
	for i, row := range t.Rows {
		if len(row.Cells) != len(aliases) {
			return nil, fmt.Errorf("%w: row %d has %d cells for %d aliases", ErrPayloadShape, i, len(row.Cells), len(aliases))
		}
	}
	return t, nil
}

// withTable returns a copy of payload carrying t.
func withTable(payload *gviz.Response, t *gviz.Table) *gviz.Response {
	out := *payload
	out.Table = t
	return &out
}
