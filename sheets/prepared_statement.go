package sheets

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/sheetsql/sheets-client-go/ast"
	"github.com/sheetsql/sheets-client-go/gviz"
)

// PreparedStatement is a query template with '?' placeholders that can be run
// many times with different parameter values, much like database/sql.Stmt.
type PreparedStatement interface {
	// SetString sets the parameter at the given index to the given string value
	SetString(parameterIndex int, value string) error

	// SetInt64 sets the parameter at the given index to the given int64 value
	SetInt64(parameterIndex int, value int64) error

	// SetFloat64 sets the parameter at the given index to the given float64 value
	SetFloat64(parameterIndex int, value float64) error

	// SetBool sets the parameter at the given index to the given bool value
	SetBool(parameterIndex int, value bool) error

	// Set sets the parameter at the given index to the given value (any supported type)
	Set(parameterIndex int, value interface{}) error

	// Execute executes the prepared statement with the currently set parameters
	Execute() (*gviz.Response, error)

	// ExecuteWithParams sets all parameters and executes in one call
	ExecuteWithParams(params ...interface{}) (*gviz.Response, error)

	GetQuery() string
	GetParameterCount() int

	// ClearParameters clears all currently set parameters
	ClearParameters() error

	Close() error
}

type preparedStatement struct {
	connection    *Connection
	queryTemplate string
	paramCount    int
	parameters    []interface{}
	mutex         sync.RWMutex
	closed        bool
}

// Prepare creates a PreparedStatement from a query template such as
// SELECT * FROM "https://docs.google.com/..." WHERE country = ?
func (c *Connection) Prepare(queryTemplate string) (PreparedStatement, error) {
	if queryTemplate == "" {
		return nil, fmt.Errorf("query template cannot be empty")
	}
	paramCount := len(placeholders(queryTemplate))
	if paramCount == 0 {
		return nil, fmt.Errorf("query template must contain at least one parameter placeholder (?)")
	}
	return &preparedStatement{
		connection:    c,
		queryTemplate: queryTemplate,
		paramCount:    paramCount,
		parameters:    make([]interface{}, paramCount),
	}, nil
}

func (ps *preparedStatement) SetString(parameterIndex int, value string) error {
	return ps.Set(parameterIndex, value)
}

func (ps *preparedStatement) SetInt64(parameterIndex int, value int64) error {
	return ps.Set(parameterIndex, value)
}

func (ps *preparedStatement) SetFloat64(parameterIndex int, value float64) error {
	return ps.Set(parameterIndex, value)
}

func (ps *preparedStatement) SetBool(parameterIndex int, value bool) error {
	return ps.Set(parameterIndex, value)
}

// Set sets the parameter at the given 1-based index.
func (ps *preparedStatement) Set(parameterIndex int, value interface{}) error {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	if ps.closed {
		return fmt.Errorf("prepared statement is closed")
	}
	if parameterIndex < 1 || parameterIndex > ps.paramCount {
		return fmt.Errorf("parameter index %d is out of range [1, %d]", parameterIndex, ps.paramCount)
	}
	ps.parameters[parameterIndex-1] = value
	return nil
}

func (ps *preparedStatement) Execute() (*gviz.Response, error) {
	ps.mutex.RLock()
	if ps.closed {
		ps.mutex.RUnlock()
		return nil, fmt.Errorf("prepared statement is closed")
	}
	for i, param := range ps.parameters {
		if param == nil {
			ps.mutex.RUnlock()
			return nil, fmt.Errorf("parameter at index %d is not set", i+1)
		}
	}
	params := append([]interface{}(nil), ps.parameters...)
	ps.mutex.RUnlock()

	return ps.connection.ExecuteSQLWithParams(ps.queryTemplate, params)
}

func (ps *preparedStatement) ExecuteWithParams(params ...interface{}) (*gviz.Response, error) {
	ps.mutex.RLock()
	closed := ps.closed
	ps.mutex.RUnlock()

	if closed {
		return nil, fmt.Errorf("prepared statement is closed")
	}
	if len(params) != ps.paramCount {
		return nil, fmt.Errorf("expected %d parameters, got %d", ps.paramCount, len(params))
	}
	return ps.connection.ExecuteSQLWithParams(ps.queryTemplate, params)
}

func (ps *preparedStatement) GetQuery() string {
	return ps.queryTemplate
}

func (ps *preparedStatement) GetParameterCount() int {
	return ps.paramCount
}

func (ps *preparedStatement) ClearParameters() error {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	if ps.closed {
		return fmt.Errorf("prepared statement is closed")
	}
	for i := range ps.parameters {
		ps.parameters[i] = nil
	}
	return nil
}

func (ps *preparedStatement) Close() error {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	ps.closed = true
	ps.parameters = nil
	return nil
}

// placeholders returns the offsets of the '?' placeholders in query, skipping
// those inside quoted strings and identifiers.
func placeholders(query string) []int {
	var (
		offsets []int
		quote   byte
	)
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '?':
			offsets = append(offsets, i)
		}
	}
	return offsets
}

// bindParams converts params into the tree nodes bound to a query's '?'
// placeholders.
func bindParams(params []interface{}) ([]ast.Node, error) {
	nodes := make([]ast.Node, 0, len(params))
	for i, param := range params {
		node, err := bindValue(param)
		if err != nil {
			return nil, fmt.Errorf("failed to bind parameter at index %d: %w", i+1, err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// bindValue converts a parameter into a literal node.
func bindValue(value interface{}) (ast.Node, error) {
	switch v := value.(type) {
	case string:
		return ast.Literal(v), nil
	case []byte:
		return ast.Literal(string(v)), nil
	case int:
		return ast.Number(v), nil
	case int8:
		return ast.Number(v), nil
	case int16:
		return ast.Number(v), nil
	case int32:
		return ast.Number(v), nil
	case int64:
		return ast.Number(v), nil
	case uint:
		return ast.Number(v), nil
	case uint8:
		return ast.Number(v), nil
	case uint16:
		return ast.Number(v), nil
	case uint32:
		return ast.Number(v), nil
	case uint64:
		return ast.Number(v), nil
	case float32:
		return ast.Number(v), nil
	case float64:
		return ast.Number(v), nil
	case bool:
		return ast.Bool(v), nil
	case *big.Int:
		if v == nil {
			return nil, fmt.Errorf("nil *big.Int")
		}
		f, _ := new(big.Float).SetInt(v).Float64()
		return ast.Number(f), nil
	case time.Time:
		return ast.Literal(v.Format("2006-01-02 15:04:05")), nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", value)
	}
}
