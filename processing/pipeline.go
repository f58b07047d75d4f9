package processing

import (
	log "github.com/sirupsen/logrus"

	"github.com/sheetsql/sheets-client-go/ast"
	"github.com/sheetsql/sheets-client-go/gviz"
)

// DefaultRules returns the rules in priority order. The order is part of the
// behavior: the first rule that matches a query handles it.
func DefaultRules() []Rule {
	return []Rule{CountStarRule{}, DateTruncRule{}, NoopRule{}}
}

// Pipeline picks the rule for a query and runs it on both sides of the remote
// round trip. It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	rules []Rule
}

// NewPipeline returns a pipeline over rules, or over DefaultRules when none are
// given. A NoopRule is appended when rules does not end with one.
func NewPipeline(rules ...Rule) *Pipeline {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if _, ok := rules[len(rules)-1].(NoopRule); !ok {
		rules = append(rules[:len(rules):len(rules)], NoopRule{})
	}
	return &Pipeline{rules: rules}
}

// Rules returns the rules in the order they are tried.
func (p *Pipeline) Rules() []Rule {
	return append([]Rule(nil), p.rules...)
}

// Select returns the first rule that matches query, or the trailing NoopRule.
func (p *Pipeline) Select(query ast.Map) Rule {
	for _, rule := range p.rules {
		if rule.Match(query) {
			return rule
		}
	}
	return p.rules[len(p.rules)-1]
}

// Prepared is a rewritten query together with what is needed to adapt its
// result.
type Prepared struct {
	Query   ast.Map
	Rule    Rule
	Aliases []Alias
}

// Prepare rewrites query with the selected rule. query is not modified.
func (p *Pipeline) Prepare(query ast.Map, columns gviz.ColumnMap) (*Prepared, error) {
	rule := p.Select(query)
	rewritten, aliases, err := rule.PreProcess(ast.Clone(query).(ast.Map), columns)
	if err != nil {
		return nil, err
	}
	log.Debugf("Query rewritten by rule %s with %d aliases", rule.Name(), len(aliases))
	return &Prepared{Query: rewritten, Rule: rule, Aliases: aliases}, nil
}

// Finish adapts payload with the rule that prepared the request.
func (p *Pipeline) Finish(payload *gviz.Response, aliases []Alias, rule Rule) (*gviz.Response, error) {
	return rule.PostProcess(payload, aliases)
}

// Finish adapts the payload returned for the prepared query.
func (p *Prepared) Finish(payload *gviz.Response) (*gviz.Response, error) {
	return p.Rule.PostProcess(payload, p.Aliases)
}
