package gormsheets

import (
	"database/sql"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/callbacks"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/sheetsql/sheets-client-go/sheets"
)

// Config configures the sheets GORM dialector.
type Config struct {
	Conn *sheets.Connection
}

// Dialector is the GORM dialector for Google Sheets.
type Dialector struct {
	config Config
}

// Open returns a GORM dialector reading sheets through conn.
func Open(conn *sheets.Connection) gorm.Dialector {
	return Dialector{config: Config{Conn: conn}}
}

// New returns a GORM dialector configured by config.
func New(config Config) gorm.Dialector {
	return Dialector{config: config}
}

func (Dialector) Name() string {
	return "sheets"
}

// Initialize wires the dialector into the GORM DB instance.
func (d Dialector) Initialize(db *gorm.DB) error {
	if d.config.Conn == nil {
		return errors.New("sheets connection is required")
	}
	db.Config.DisableAutomaticPing = true
	db.ConnPool = sql.OpenDB(newConnector(d.config.Conn))

	callbacks.RegisterDefaultCallbacks(db, &callbacks.Config{})
	return nil
}

// Migrator returns a migrator that inspects sheets and rejects schema changes.
func (d Dialector) Migrator(db *gorm.DB) gorm.Migrator {
	return readOnlyMigrator{db: db, conn: d.config.Conn}
}

// DataTypeOf returns an empty datatype since migrations are unsupported.
func (Dialector) DataTypeOf(*schema.Field) string {
	return ""
}

func (Dialector) DefaultValueOf(*schema.Field) clause.Expression {
	return clause.Expr{SQL: "DEFAULT"}
}

func (Dialector) BindVarTo(writer clause.Writer, _ *gorm.Statement, _ interface{}) {
	writer.WriteByte('?')
}

// QuoteTo writes str as a double-quoted identifier. Sheet URLs contain dots,
// so unlike most dialects the name is not split into qualified parts.
func (Dialector) QuoteTo(writer clause.Writer, str string) {
	writer.WriteByte('"')
	writer.WriteString(strings.ReplaceAll(str, `"`, `""`))
	writer.WriteByte('"')
}

// Explain returns SQL with rendered parameters for logging.
func (Dialector) Explain(sql string, vars ...interface{}) string {
	return logger.ExplainSQL(sql, nil, "'", vars...)
}
