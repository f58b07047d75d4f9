package sheets

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sheetsql/sheets-client-go/ast"
	"github.com/sheetsql/sheets-client-go/gviz"
	"github.com/sheetsql/sheets-client-go/processing"
)

// headerQuery asks for the columns of a sheet without any rows.
const headerQuery = "SELECT * LIMIT 0"

// Connection to Google Sheets, normally created through calls to NewWithConfig.
// A connection is a session: the columns of every sheet it queries are looked up
// once and remembered.
type Connection struct {
	transport clientTransport
	pipeline  *processing.Pipeline
	columns   *columnMapCache
	headers   int
}

// ExecuteSQL runs a SQL query. The FROM clause names the sheet by URL.
func (c *Connection) ExecuteSQL(query string) (*gviz.Response, error) {
	return c.ExecuteSQLContext(context.Background(), query)
}

// ExecuteSQLContext runs a SQL query, giving up when ctx is done.
func (c *Connection) ExecuteSQLContext(ctx context.Context, query string) (*gviz.Response, error) {
	tree, err := ast.Parse(query)
	if err != nil {
		return nil, err
	}
	return c.execute(ctx, query, tree)
}

func (c *Connection) execute(ctx context.Context, query string, tree ast.Map) (*gviz.Response, error) {
	table := ast.Table(tree)
	if table == "" {
		return nil, fmt.Errorf("%w: the FROM clause must name a sheet URL", ast.ErrInvalidQuery)
	}
	sourceURL, err := GetURL(table, c.headers)
	if err != nil {
		return nil, err
	}
	columns, err := c.ColumnMap(ctx, sourceURL)
	if err != nil {
		log.Errorf("Unable to fetch the columns of sheet %s, Error: %v\n", table, err)
		return nil, err
	}
	submission, err := c.pipeline.Submit(tree, columns)
	if err != nil {
		return nil, err
	}
	raw, err := c.transport.execute(ctx, &Request{
		url:       sourceURL,
		query:     submission.Query,
		requestID: uuid.NewString(),
	})
	if err != nil {
		log.Errorf("Caught exception to execute SQL query %s, Error: %v\n", query, err)
		return nil, err
	}
	return submission.Adapt(raw)
}

// ExecuteSQLWithParams runs a query template with '?' placeholders bound to
// params.
func (c *Connection) ExecuteSQLWithParams(queryPattern string, params []interface{}) (*gviz.Response, error) {
	return c.ExecuteSQLWithParamsContext(context.Background(), queryPattern, params)
}

// ExecuteSQLWithParamsContext is ExecuteSQLWithParams with a context.
func (c *Connection) ExecuteSQLWithParamsContext(ctx context.Context, queryPattern string, params []interface{}) (*gviz.Response, error) {
	tree, err := ast.Parse(queryPattern)
	if err != nil {
		return nil, err
	}
	nodes, err := bindParams(params)
	if err != nil {
		return nil, err
	}
	bound, err := ast.Bind(tree, nodes)
	if err != nil {
		return nil, err
	}
	return c.execute(ctx, queryPattern, bound)
}

// Columns returns the columns of the sheet at sheetURL.
func (c *Connection) Columns(ctx context.Context, sheetURL string) (gviz.ColumnMap, error) {
	sourceURL, err := GetURL(sheetURL, c.headers)
	if err != nil {
		return nil, err
	}
	return c.ColumnMap(ctx, sourceURL)
}

// ColumnMap returns the columns of the sheet behind a data source URL, issuing
// a header query the first time the sheet is seen.
func (c *Connection) ColumnMap(ctx context.Context, sourceURL string) (gviz.ColumnMap, error) {
	if columns, found := c.columns.get(sourceURL); found {
		return columns, nil
	}
	resp, err := c.transport.execute(ctx, &Request{
		url:       sourceURL,
		query:     headerQuery,
		requestID: uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	columns := gviz.ColumnMapFromTable(resp.Table)
	c.columns.put(sourceURL, columns)
	return columns, nil
}

// Forget drops the remembered columns of a sheet so the next query looks it up
// again, for sheets whose header row changed.
func (c *Connection) Forget(sheetURL string) error {
	sourceURL, err := GetURL(sheetURL, c.headers)
	if err != nil {
		return err
	}
	c.columns.invalidate(sourceURL)
	return nil
}
