package processing

import (
	"github.com/sheetsql/sheets-client-go/ast"
	"github.com/sheetsql/sheets-client-go/gviz"
)

var defaultPipeline = NewPipeline()

// PostProcessFunc adapts a remote payload given the aliases of its request.
type PostProcessFunc func(payload *gviz.Response, aliases []Alias) (*gviz.Response, error)

// Submission is a query ready to be sent to the remote.
type Submission struct {
	// Query is the query text in the remote dialect.
	Query string
	// Table is the FROM clause of the original query.
	Table       string
	Tree        ast.Map
	Rule        Rule
	Aliases     []Alias
	PostProcess PostProcessFunc
}

// Submit parses sql and rewrites it for a table with the given columns.
func Submit(sql string, columns gviz.ColumnMap) (*Submission, error) {
	tree, err := ast.Parse(sql)
	if err != nil {
		return nil, err
	}
	return SubmitQuery(tree, columns)
}

// SubmitQuery rewrites an already parsed query.
func SubmitQuery(tree ast.Map, columns gviz.ColumnMap) (*Submission, error) {
	return defaultPipeline.Submit(tree, columns)
}

// Submit rewrites tree and serializes it into the remote dialect.
func (p *Pipeline) Submit(tree ast.Map, columns gviz.ColumnMap) (*Submission, error) {
	prepared, err := p.Prepare(tree, columns)
	if err != nil {
		return nil, err
	}
	text, err := ast.Translate(prepared.Query, columns)
	if err != nil {
		return nil, err
	}
	return &Submission{
		Query:       text,
		Table:       ast.Table(tree),
		Tree:        prepared.Query,
		Rule:        prepared.Rule,
		Aliases:     prepared.Aliases,
		PostProcess: prepared.Rule.PostProcess,
	}, nil
}

// Adapt runs postProcess over raw. Payloads reporting an error status are
// returned as a *gviz.ResponseError and never post-processed.
func Adapt(raw *gviz.Response, aliases []Alias, postProcess PostProcessFunc) (*gviz.Response, error) {
	if err := raw.Err(); err != nil {
		return nil, err
	}
	if postProcess == nil {
		return raw, nil
	}
	return postProcess(raw, aliases)
}

// Adapt adapts the payload returned for the submission.
func (s *Submission) Adapt(raw *gviz.Response) (*gviz.Response, error) {
	return Adapt(raw, s.Aliases, s.PostProcess)
}
