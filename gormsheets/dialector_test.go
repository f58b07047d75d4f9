package gormsheets

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sheetsql/sheets-client-go/sheets"
)

func TestDialectorNameAndExplain(t *testing.T) {
	d := Dialector{}
	require.Equal(t, "sheets", d.Name())

	explained := d.Explain(`select * from "https://docs.google.com/spreadsheets/d/abc" where cnt = ?`, 10)
	require.Contains(t, explained, "10")
}

func TestDialectorQuoteToKeepsURLWhole(t *testing.T) {
	var buf bytes.Buffer
	d := Dialector{}
	d.QuoteTo(&buf, "https://docs.google.com/spreadsheets/d/abc/edit#gid=0")
	require.Equal(t, `"https://docs.google.com/spreadsheets/d/abc/edit#gid=0"`, buf.String())
}

func TestDialectorQuoteToEscapesQuotes(t *testing.T) {
	var buf bytes.Buffer
	d := Dialector{}
	d.QuoteTo(&buf, `weird"name`)
	require.Equal(t, `"weird""name"`, buf.String())
}

func TestDialectorBindVarTo(t *testing.T) {
	var buf bytes.Buffer
	d := Dialector{}
	d.BindVarTo(&buf, nil, nil)
	require.Equal(t, "?", buf.String())
}

func TestDialectorInitializeRequiresConn(t *testing.T) {
	_, err := gorm.Open(New(Config{}), &gorm.Config{})
	require.Error(t, err)
}

func TestDialectorInitializeSuccess(t *testing.T) {
	_, err := gorm.Open(Open(&sheets.Connection{}), &gorm.Config{})
	require.NoError(t, err)
}

func TestDialectorDefaultValueOf(t *testing.T) {
	d := Dialector{}
	require.Equal(t, clause.Expr{SQL: "DEFAULT"}, d.DefaultValueOf(nil))
}

func TestDialectorDataTypeOf(t *testing.T) {
	d := Dialector{}
	require.Equal(t, "", d.DataTypeOf(nil))
}

func TestDialectorMigrator(t *testing.T) {
	d := Dialector{}
	m := d.Migrator(&gorm.DB{})
	_, ok := m.(readOnlyMigrator)
	require.True(t, ok)
}
