package processing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sheetsql/sheets-client-go/ast"
	"github.com/sheetsql/sheets-client-go/gviz"
)

type mockRule struct {
	mock.Mock
}

func (m *mockRule) Name() string { return "Mock" }

func (m *mockRule) Match(query ast.Map) bool {
	return m.Called(query).Bool(0)
}

func (m *mockRule) PreProcess(query ast.Map, columns gviz.ColumnMap) (ast.Map, []Alias, error) {
	args := m.Called(query, columns)
	return args.Get(0).(ast.Map), args.Get(1).([]Alias), args.Error(2)
}

func (m *mockRule) PostProcess(payload *gviz.Response, aliases []Alias) (*gviz.Response, error) {
	args := m.Called(payload, aliases)
	return args.Get(0).(*gviz.Response), args.Error(1)
}

func TestPipelineSelect(t *testing.T) {
	p := NewPipeline()

	assert.IsType(t, CountStarRule{}, p.Select(mustParse(t, "SELECT COUNT(*) FROM T")))
	assert.IsType(t, DateTruncRule{}, p.Select(mustParse(t, "SELECT DATE_TRUNC('month', d) FROM T")))
	assert.IsType(t, NoopRule{}, p.Select(mustParse(t, "SELECT a FROM T")))

	// both rules match, the earlier one wins
	assert.IsType(t, CountStarRule{}, p.Select(mustParse(t, "SELECT DATE_TRUNC('month', d), COUNT(*) FROM T GROUP BY d")))
}

func TestNewPipelineAppendsNoop(t *testing.T) {
	rules := []Rule{CountStarRule{}}
	p := NewPipeline(rules...)

	require.Len(t, p.Rules(), 2)
	assert.IsType(t, NoopRule{}, p.Rules()[1])
	assert.Len(t, rules, 1)
	assert.Len(t, NewPipeline().Rules(), 3)
}

func TestPipelineFirstMatchWins(t *testing.T) {
	first := &mockRule{}
	second := &mockRule{}
	query := ast.Map{"select": ast.List{ast.Star}}
	first.On("Match", query).Return(false).Once()
	second.On("Match", query).Return(true).Once()
	second.On("PreProcess", query, gviz.ColumnMap(nil)).Return(query, []Alias{{Name: "x"}}, nil).Once()

	p := NewPipeline(first, second)
	prepared, err := p.Prepare(query, nil)
	require.NoError(t, err)
	assert.Same(t, second, prepared.Rule)
	assert.Equal(t, []Alias{{Name: "x"}}, prepared.Aliases)

	payload := &gviz.Response{Status: gviz.StatusOK}
	second.On("PostProcess", payload, prepared.Aliases).Return(payload, nil).Once()
	adapted, err := prepared.Finish(payload)
	require.NoError(t, err)
	assert.Same(t, payload, adapted)

	first.AssertExpectations(t)
	second.AssertExpectations(t)
	first.AssertNotCalled(t, "PreProcess", mock.Anything, mock.Anything)
}

func TestPipelinePrepareLeavesQueryAlone(t *testing.T) {
	query := mustParse(t, "SELECT country, COUNT(*) FROM T GROUP BY country")
	before := ast.Clone(query)

	prepared, err := NewPipeline().Prepare(query, countryColumns)
	require.NoError(t, err)
	assert.True(t, ast.Equal(before, query))
	assert.False(t, ast.Equal(before, prepared.Query))
}

func TestNoopRule(t *testing.T) {
	query := mustParse(t, "SELECT *, cnt AS c FROM T")
	rewritten, aliases, err := NoopRule{}.PreProcess(query, countryColumns)
	require.NoError(t, err)
	assert.True(t, ast.Equal(query, rewritten))
	assert.Equal(t, []string{"country", "cnt", "c"}, []string{aliases[0].Name, aliases[1].Name, aliases[2].Name})

	payload := &gviz.Response{Table: &gviz.Table{}}
	adapted, err := NoopRule{}.PostProcess(payload, aliases)
	require.NoError(t, err)
	assert.Same(t, payload, adapted)
}

func TestSubmitAndAdapt(t *testing.T) {
	submission, err := Submit(`SELECT COUNT(*) AS total FROM "https://docs.google.com/spreadsheets/d/x"`, countryColumns)
	require.NoError(t, err)

	assert.Equal(t, "https://docs.google.com/spreadsheets/d/x", submission.Table)
	assert.Equal(t, "SELECT count(B), count(A) LABEL count(B) '__CountStar__cnt', count(A) '__CountStar__country'", submission.Query)
	assert.IsType(t, CountStarRule{}, submission.Rule)

	raw := &gviz.Response{Status: gviz.StatusOK, Table: &gviz.Table{
		Cols: columnsFor(submission.Aliases),
		Rows: []gviz.Row{row(3.0, 4.0)},
	}}
	adapted, err := submission.Adapt(raw)
	require.NoError(t, err)
	assert.Equal(t, "total", adapted.Table.GetColumnLabel(0))
	assert.Equal(t, 4.0, adapted.Table.GetDouble(0, 0))

	adapted, err = Adapt(raw, submission.Aliases, submission.PostProcess)
	require.NoError(t, err)
	assert.Equal(t, 4.0, adapted.Table.GetDouble(0, 0))
}

func TestSubmitPassThrough(t *testing.T) {
	submission, err := Submit(`SELECT * FROM "sheet"`, countryColumns)
	require.NoError(t, err)
	assert.Equal(t, "SELECT *", submission.Query)

	raw := &gviz.Response{Status: gviz.StatusOK, Table: &gviz.Table{}}
	adapted, err := submission.Adapt(raw)
	require.NoError(t, err)
	assert.Same(t, raw, adapted)
}

func TestSubmitInvalidQuery(t *testing.T) {
	_, err := Submit("SELECTSELECTSELECT", countryColumns)
	assert.True(t, errors.Is(err, ast.ErrInvalidQuery))
	assert.EqualError(t, err, "invalid query: SELECTSELECTSELECT")
}

func TestAdaptRemoteError(t *testing.T) {
	raw := &gviz.Response{Status: gviz.StatusError, Errors: []gviz.Message{{Reason: "invalid_query", DetailedMessage: "bad"}}}
	_, err := Adapt(raw, nil, NoopRule{}.PostProcess)
	assert.True(t, errors.Is(err, gviz.ErrRemote))
}
