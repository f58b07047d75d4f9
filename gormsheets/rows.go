package gormsheets

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sheetsql/sheets-client-go/gviz"
)

type tableRows struct {
	columns     []string
	columnTypes []string
	rows        []gviz.Row
	index       int
}

func newTableRows(table *gviz.Table) *tableRows {
	r := &tableRows{rows: table.Rows}
	for i := range table.Cols {
		r.columns = append(r.columns, table.GetColumnLabel(i))
		r.columnTypes = append(r.columnTypes, table.GetColumnType(i))
	}
	return r
}

func (r *tableRows) Columns() []string {
	return r.columns
}

func (r *tableRows) Close() error {
	return nil
}

// ColumnTypeDatabaseTypeName reports the data source type of a column.
func (r *tableRows) ColumnTypeDatabaseTypeName(index int) string {
	return strings.ToUpper(r.columnTypes[index])
}

func (r *tableRows) Next(dest []driver.Value) error {
	if r.index >= len(r.rows) {
		return io.EOF
	}
	row := r.rows[r.index]
	r.index++

	for i := range dest {
		if i >= len(row.Cells) || row.Cells[i] == nil {
			dest[i] = nil
			continue
		}
		columnType := ""
		if i < len(r.columnTypes) {
			columnType = r.columnTypes[i]
		}
		converted, err := convertValue(row.Cells[i].Value, columnType)
		if err != nil {
			return err
		}
		dest[i] = converted
	}
	return nil
}

func convertValue(value interface{}, columnType string) (driver.Value, error) {
	if value == nil {
		return nil, nil
	}
	switch columnType {
	case "date", "datetime":
		if s, ok := value.(string); ok {
			return parseDate(s)
		}
	case "timeofday":
		if parts, ok := value.([]interface{}); ok {
			return formatTimeOfDay(parts)
		}
	}
	switch v := value.(type) {
	case json.Number:
		return convertJSONNumber(v)
	case float64:
		if v == float64(int64(v)) {
			return int64(v), nil
		}
		return v, nil
	case bool:
		return v, nil
	case string:
		return v, nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func convertJSONNumber(value json.Number) (driver.Value, error) {
	if v, err := value.Int64(); err == nil {
		return v, nil
	}
	v, err := value.Float64()
	if err != nil {
		return value.String(), nil
	}
	if v == float64(int64(v)) {
		return int64(v), nil
	}
	return v, nil
}

// parseDate reads the data source's Date(year, month, day[, h, m, s[, ms]])
// notation. Months are zero-based.
func parseDate(s string) (time.Time, error) {
	inner := strings.TrimSpace(s)
	if !strings.HasPrefix(inner, "Date(") || !strings.HasSuffix(inner, ")") {
		return time.Time{}, fmt.Errorf("invalid date value %q", s)
	}
	fields := strings.Split(inner[len("Date("):len(inner)-1], ",")
	if len(fields) < 3 || len(fields) > 7 {
		return time.Time{}, fmt.Errorf("invalid date value %q", s)
	}
	parts := make([]int, 7)
	for i, field := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date value %q: %w", s, err)
		}
		parts[i] = n
	}
	return time.Date(parts[0], time.Month(parts[1]+1), parts[2], parts[3], parts[4], parts[5], parts[6]*int(time.Millisecond), time.UTC), nil
}

// formatTimeOfDay renders a [hours, minutes, seconds, milliseconds] value.
func formatTimeOfDay(parts []interface{}) (string, error) {
	values := make([]int, 4)
	for i := 0; i < len(parts) && i < len(values); i++ {
		f, ok := gviz.ToFloat(parts[i])
		if !ok {
			return "", fmt.Errorf("invalid timeofday value %v", parts)
		}
		values[i] = int(f)
	}
	return fmt.Sprintf("%02d:%02d:%02d.%03d", values[0], values[1], values[2], values[3]), nil
}
