// Package gviz models the Google Visualization data source wire format returned by
// a spreadsheet's gviz/tq endpoint.
package gviz

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Response statuses reported by the data source.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// ErrRemote is matched by every error the data source reports in its payload.
var ErrRemote = errors.New("remote query failed")

// Response is the data structure for a data source response.
type Response struct {
	Version  string    `json:"version,omitempty"`
	ReqID    string    `json:"reqId,omitempty"`
	Status   string    `json:"status,omitempty"`
	Sig      string    `json:"sig,omitempty"`
	Errors   []Message `json:"errors,omitempty"`
	Warnings []Message `json:"warnings,omitempty"`
	Table    *Table    `json:"table,omitempty"`
}

// Message is an error or warning attached to a response.
type Message struct {
	Reason          string `json:"reason"`
	Message         string `json:"message,omitempty"`
	DetailedMessage string `json:"detailed_message,omitempty"`
}

// Table is the tabular part of a response.
type Table struct {
	Cols             []Column `json:"cols"`
	Rows             []Row    `json:"rows"`
	ParsedNumHeaders int      `json:"parsedNumHeaders,omitempty"`
}

// Column describes one result column.
type Column struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Type    string `json:"type"`
	Pattern string `json:"pattern,omitempty"`
}

// Row holds the cells of one result row. A nil cell is a null value.
type Row struct {
	Cells []*Cell `json:"c"`
}

// Cell is a single value plus its optional formatted representation.
type Cell struct {
	Value     interface{} `json:"v"`
	Formatted string      `json:"f,omitempty"`
}

// ResponseError is returned when the data source answers with status "error".
type ResponseError struct {
	Status   string
	Messages []Message
}

func (e *ResponseError) Error() string {
	parts := make([]string, 0, len(e.Messages))
	for _, m := range e.Messages {
		text := m.DetailedMessage
		if text == "" {
			text = m.Message
		}
		if m.Reason != "" {
			text = m.Reason + ": " + text
		}
		parts = append(parts, text)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%v: status %s", ErrRemote, e.Status)
	}
	return fmt.Sprintf("%v: %s", ErrRemote, strings.Join(parts, "; "))
}

func (e *ResponseError) Unwrap() error {
	return ErrRemote
}

// Err returns a *ResponseError when the response carries an error status.
func (r *Response) Err() error {
	if r == nil || r.Status != StatusError {
		return nil
	}
	return &ResponseError{Status: r.Status, Messages: r.Errors}
}

// Name returns the column label, falling back to the column id.
func (c Column) Name() string {
	if label := strings.TrimSpace(c.Label); label != "" {
		return label
	}
	return c.ID
}

// GetRowCount returns how many rows in the Table
func (t Table) GetRowCount() int {
	return len(t.Rows)
}

// GetColumnCount returns how many columns in the Table
func (t Table) GetColumnCount() int {
	return len(t.Cols)
}

// GetColumnLabel returns the display name of a column given its index
func (t Table) GetColumnLabel(columnIndex int) string {
	return t.Cols[columnIndex].Name()
}

// GetColumnType returns the column data type given column index
func (t Table) GetColumnType(columnIndex int) string {
	return t.Cols[columnIndex].Type
}

// Get returns a cell value given row index and column index, nil for null cells
func (t Table) Get(rowIndex int, columnIndex int) interface{} {
	cell := t.Rows[rowIndex].Cells[columnIndex]
	if cell == nil {
		return nil
	}
	return cell.Value
}

// GetString returns a string entry given row index and column index
func (t Table) GetString(rowIndex int, columnIndex int) string {
	s, _ := t.Get(rowIndex, columnIndex).(string)
	return s
}

// GetDouble returns a numeric entry given row index and column index
func (t Table) GetDouble(rowIndex int, columnIndex int) float64 {
	val, _ := ToFloat(t.Get(rowIndex, columnIndex))
	return val
}

// GetBool returns a boolean entry given row index and column index
func (t Table) GetBool(rowIndex int, columnIndex int) bool {
	b, _ := t.Get(rowIndex, columnIndex).(bool)
	return b
}

// ToFloat converts a decoded numeric cell value to float64.
func ToFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
