package ast

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCountStar(t *testing.T) {
	query, err := Parse("SELECT COUNT(*) AS total FROM T")
	require.NoError(t, err)

	expected := Map{
		KeySelect: List{Map{KeyValue: Map{"count": Star}, KeyName: String("total")}},
		KeyFrom:   String("T"),
	}
	assert.True(t, Equal(expected, query), "got %#v", query)
}

func TestParseGroupBy(t *testing.T) {
	query, err := Parse("SELECT country, COUNT(*) FROM T GROUP BY country ORDER BY country DESC LIMIT 5 OFFSET 2")
	require.NoError(t, err)

	assert.True(t, Equal(List{
		Map{KeyValue: String("country")},
		Map{KeyValue: Map{"count": Star}},
	}, query[KeySelect]))
	assert.Equal(t, []string{"country"}, GroupByColumns(query))
	assert.True(t, Equal(List{Map{KeyValue: String("country"), KeySort: String("desc")}}, query[KeyOrderBy]))
	assert.Equal(t, Number(5), query[KeyLimit])
	assert.Equal(t, Number(2), query[KeyOffset])
}

func TestParseQuotedSource(t *testing.T) {
	source := "https://docs.google.com/spreadsheets/d/1abc/edit#gid=0"
	query, err := Parse(`SELECT * FROM "` + source + `"`)
	require.NoError(t, err)

	assert.True(t, Equal(List{Star}, query[KeySelect]))
	assert.Equal(t, source, Table(query))
}

func TestParseWithoutTable(t *testing.T) {
	query, err := Parse("SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, "", Table(query))

	query, err = Parse("SELECT 1 FROM dual")
	require.NoError(t, err)
	assert.Equal(t, "", Table(query))
}

func TestParseDateTrunc(t *testing.T) {
	for _, sql := range []string{
		"SELECT DATE_TRUNC('month', created) FROM T",
		"SELECT datetrunc('month', created) FROM T",
	} {
		query, err := Parse(sql)
		require.NoError(t, err, sql)
		expected := List{Map{KeyValue: Map{"datetrunc": List{Literal("month"), String("created")}}}}
		assert.True(t, Equal(expected, query[KeySelect]), "got %#v", query[KeySelect])
	}
}

func TestParseWhere(t *testing.T) {
	query, err := Parse("SELECT a FROM T WHERE a = 'x' AND b > 3 AND c IS NULL AND d IS NOT NULL")
	require.NoError(t, err)

	expected := Map{"and": List{
		Map{"eq": List{String("a"), Literal("x")}},
		Map{"gt": List{String("b"), Number(3)}},
		Map{"missing": String("c")},
		Map{"exists": String("d")},
	}}
	assert.True(t, Equal(expected, query[KeyWhere]), "got %#v", query[KeyWhere])
}

func TestParseOperators(t *testing.T) {
	tests := []struct {
		sql      string
		expected Node
	}{
		{"SELECT a FROM T WHERE a IN (1, 2)", Map{"in": List{String("a"), List{Number(1), Number(2)}}}},
		{"SELECT a FROM T WHERE a NOT IN (1)", Map{"nin": List{String("a"), List{Number(1)}}}},
		{"SELECT a FROM T WHERE a BETWEEN 1 AND 3", Map{"between": List{String("a"), Number(1), Number(3)}}},
		{"SELECT a FROM T WHERE a NOT LIKE 'x%'", Map{"not": Map{"like": List{String("a"), Literal("x%")}}}},
		{"SELECT a FROM T WHERE a <> 2 OR NOT b", Map{"or": List{
			Map{"neq": List{String("a"), Number(2)}},
			Map{"not": String("b")},
		}}},
		{"SELECT a FROM T WHERE a + 1 > -2.5", Map{"gt": List{Map{"add": List{String("a"), Number(1)}}, Number(-2.5)}}},
	}

	for _, test := range tests {
		t.Run(test.sql, func(t *testing.T) {
			query, err := Parse(test.sql)
			require.NoError(t, err)
			assert.True(t, Equal(test.expected, query[KeyWhere]), "got %#v", query[KeyWhere])
		})
	}
}

func TestParseInvalidQuery(t *testing.T) {
	_, err := Parse("SELECTSELECTSELECT")
	require.Error(t, err)
	assert.Equal(t, "invalid query: SELECTSELECTSELECT", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidQuery))

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "SELECTSELECTSELECT", parseErr.Query)
}

func TestParseNotSupported(t *testing.T) {
	_, err := Parse("INSERT INTO T (a) VALUES (1)")
	assert.True(t, errors.Is(err, ErrInvalidQuery))
	assert.True(t, errors.Is(err, ErrNotSupported))

	for _, sql := range []string{
		"SELECT DISTINCT a FROM T",
		"SELECT a FROM T JOIN U ON T.a = U.a",
		"SELECT a FROM (SELECT a FROM T) AS s",
	} {
		_, err := Parse(sql)
		assert.True(t, errors.Is(err, ErrNotSupported), sql)
	}
}

func TestAnsiQuotes(t *testing.T) {
	assert.Equal(t, "SELECT `a b` FROM t WHERE c = 'say \"hi\"'", ansiQuotes(`SELECT "a b" FROM t WHERE c = 'say "hi"'`))
	assert.Equal(t, "SELECT `a\"b`", ansiQuotes(`SELECT "a""b"`))
	assert.Equal(t, "SELECT 'it''s'", ansiQuotes(`SELECT 'it''s'`))
}
