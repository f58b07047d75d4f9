package gormsheets

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/migrator"
	"gorm.io/gorm/schema"

	"github.com/sheetsql/sheets-client-go/gviz"
	"github.com/sheetsql/sheets-client-go/sheets"
)

var errUnsupportedMigration = errors.New("sheets cannot be migrated")

// readOnlyMigrator answers questions about existing sheets from their header
// query and refuses every schema change.
type readOnlyMigrator struct {
	db   *gorm.DB
	conn *sheets.Connection
}

// columns looks up the sheet behind value, a sheet URL or a model whose table
// name is one.
func (m readOnlyMigrator) columns(value interface{}) (gviz.ColumnMap, error) {
	if m.conn == nil {
		return nil, errors.New("sheets connection is required")
	}
	table, ok := value.(string)
	if !ok {
		stmt := &gorm.Statement{DB: m.db}
		if err := stmt.Parse(value); err != nil {
			return nil, err
		}
		table = stmt.Table
	}
	ctx := context.Background()
	if m.db != nil && m.db.Statement != nil && m.db.Statement.Context != nil {
		ctx = m.db.Statement.Context
	}
	return m.conn.Columns(ctx, table)
}

// fieldLabel resolves a struct field name to its column name when value is a
// model.
func (m readOnlyMigrator) fieldLabel(value interface{}, name string) string {
	if _, ok := value.(string); ok {
		return name
	}
	stmt := &gorm.Statement{DB: m.db}
	if err := stmt.Parse(value); err != nil || stmt.Schema == nil {
		return name
	}
	if field := stmt.Schema.LookUpField(name); field != nil {
		return field.DBName
	}
	return name
}

func (m readOnlyMigrator) HasTable(value interface{}) bool {
	_, err := m.columns(value)
	return err == nil
}

func (m readOnlyMigrator) HasColumn(value interface{}, name string) bool {
	columns, err := m.columns(value)
	if err != nil {
		return false
	}
	label := m.fieldLabel(value, name)
	for _, l := range columns.Labels() {
		if strings.EqualFold(l, label) {
			return true
		}
	}
	return false
}

func (m readOnlyMigrator) ColumnTypes(value interface{}) ([]gorm.ColumnType, error) {
	columns, err := m.columns(value)
	if err != nil {
		return nil, err
	}
	types := make([]gorm.ColumnType, 0, len(columns))
	for _, entry := range columns {
		types = append(types, migrator.ColumnType{
			NameValue:          sql.NullString{String: entry.Label, Valid: true},
			DataTypeValue:      sql.NullString{String: entry.Type, Valid: entry.Type != ""},
			ColumnTypeValue:    sql.NullString{String: entry.Type, Valid: entry.Type != ""},
			NullableValue:      sql.NullBool{Bool: true, Valid: true},
			PrimaryKeyValue:    sql.NullBool{Valid: true},
			UniqueValue:        sql.NullBool{Valid: true},
			AutoIncrementValue: sql.NullBool{Valid: true},
			CommentValue:       sql.NullString{String: entry.ID, Valid: true},
		})
	}
	return types, nil
}

func (m readOnlyMigrator) AutoMigrate(_ ...interface{}) error {
	return errUnsupportedMigration
}

func (m readOnlyMigrator) CurrentDatabase() string {
	return ""
}

func (m readOnlyMigrator) FullDataTypeOf(*schema.Field) clause.Expr {
	return clause.Expr{}
}

func (m readOnlyMigrator) GetTypeAliases(string) []string {
	return nil
}

func (m readOnlyMigrator) CreateTable(_ ...interface{}) error {
	return errUnsupportedMigration
}

func (m readOnlyMigrator) DropTable(_ ...interface{}) error {
	return errUnsupportedMigration
}

func (m readOnlyMigrator) RenameTable(_, _ interface{}) error {
	return errUnsupportedMigration
}

func (m readOnlyMigrator) GetTables() ([]string, error) {
	return nil, errUnsupportedMigration
}

func (m readOnlyMigrator) TableType(_ interface{}) (gorm.TableType, error) {
	return nil, errUnsupportedMigration
}

func (m readOnlyMigrator) AddColumn(_ interface{}, _ string) error {
	return errUnsupportedMigration
}

func (m readOnlyMigrator) DropColumn(_ interface{}, _ string) error {
	return errUnsupportedMigration
}

func (m readOnlyMigrator) AlterColumn(_ interface{}, _ string) error {
	return errUnsupportedMigration
}

func (m readOnlyMigrator) MigrateColumn(_ interface{}, _ *schema.Field, _ gorm.ColumnType) error {
	return errUnsupportedMigration
}

func (m readOnlyMigrator) MigrateColumnUnique(_ interface{}, _ *schema.Field, _ gorm.ColumnType) error {
	return errUnsupportedMigration
}

func (m readOnlyMigrator) RenameColumn(_ interface{}, _ string, _ string) error {
	return errUnsupportedMigration
}

func (m readOnlyMigrator) CreateView(_ string, _ gorm.ViewOption) error {
	return errUnsupportedMigration
}

func (m readOnlyMigrator) DropView(_ string) error {
	return errUnsupportedMigration
}

func (m readOnlyMigrator) CreateConstraint(_ interface{}, _ string) error {
	return errUnsupportedMigration
}

func (m readOnlyMigrator) DropConstraint(_ interface{}, _ string) error {
	return errUnsupportedMigration
}

func (m readOnlyMigrator) HasConstraint(_ interface{}, _ string) bool {
	return false
}

func (m readOnlyMigrator) CreateIndex(_ interface{}, _ string) error {
	return errUnsupportedMigration
}

func (m readOnlyMigrator) DropIndex(_ interface{}, _ string) error {
	return errUnsupportedMigration
}

func (m readOnlyMigrator) HasIndex(_ interface{}, _ string) bool {
	return false
}

func (m readOnlyMigrator) RenameIndex(_ interface{}, _ string, _ string) error {
	return errUnsupportedMigration
}

func (m readOnlyMigrator) GetIndexes(_ interface{}) ([]gorm.Index, error) {
	return nil, errUnsupportedMigration
}
