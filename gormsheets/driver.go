package gormsheets

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/sheetsql/sheets-client-go/sheets"
)

var errReadOnly = errors.New("sheets are read-only; write operations are not supported")

type connector struct {
	conn *sheets.Connection
}

func newConnector(conn *sheets.Connection) *connector {
	return &connector{conn: conn}
}

func (c *connector) Connect(context.Context) (driver.Conn, error) {
	return &sheetsConn{conn: c.conn}, nil
}

func (c *connector) Driver() driver.Driver {
	return sheetsDriver{}
}

type sheetsDriver struct{}

func (sheetsDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("sheets driver requires a Connector")
}

type sheetsConn struct {
	conn *sheets.Connection
}

func (c *sheetsConn) Prepare(query string) (driver.Stmt, error) {
	return &sheetsStmt{conn: c, query: query}, nil
}

func (c *sheetsConn) Close() error {
	return nil
}

func (c *sheetsConn) Begin() (driver.Tx, error) {
	return nil, errReadOnly
}

func (c *sheetsConn) PrepareContext(_ context.Context, query string) (driver.Stmt, error) {
	return c.Prepare(query)
}

func (c *sheetsConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if !isReadQuery(query) {
		return nil, errReadOnly
	}
	if _, err := c.query(ctx, query, args); err != nil {
		return nil, err
	}
	return sheetsResult{}, nil
}

func (c *sheetsConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	return c.query(ctx, query, args)
}

func (c *sheetsConn) query(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	} else {
		ctx = context.Background()
	}
	resp, err := c.conn.ExecuteSQLWithParamsContext(ctx, query, namedValuesToInterfaces(args))
	if err != nil {
		return nil, err
	}
	if resp.Table == nil {
		return nil, errors.New("sheets response did not include a table")
	}
	return newTableRows(resp.Table), nil
}

type sheetsStmt struct {
	conn  *sheetsConn
	query string
}

func (s *sheetsStmt) Close() error {
	return nil
}

func (s *sheetsStmt) NumInput() int {
	return -1
}

func (s *sheetsStmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), valuesToNamed(args))
}

func (s *sheetsStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	if !isReadQuery(s.query) {
		return nil, errReadOnly
	}
	return s.conn.ExecContext(ctx, s.query, args)
}

func (s *sheetsStmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), valuesToNamed(args))
}

func (s *sheetsStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	return s.conn.QueryContext(ctx, s.query, args)
}

type sheetsResult struct{}

func (sheetsResult) LastInsertId() (int64, error) {
	return 0, errReadOnly
}

func (sheetsResult) RowsAffected() (int64, error) {
	return 0, nil
}

func namedValuesToInterfaces(args []driver.NamedValue) []interface{} {
	if len(args) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(args))
	for _, arg := range args {
		values = append(values, arg.Value)
	}
	return values
}

func valuesToNamed(args []driver.Value) []driver.NamedValue {
	if len(args) == 0 {
		return nil
	}
	named := make([]driver.NamedValue, 0, len(args))
	for i, arg := range args {
		named = append(named, driver.NamedValue{Ordinal: i + 1, Value: arg})
	}
	return named
}

// isReadQuery reports whether query is a SELECT, the only statement a sheet
// answers.
func isReadQuery(query string) bool {
	fields := strings.Fields(query)
	return len(fields) > 0 && strings.EqualFold(fields[0], "SELECT")
}
