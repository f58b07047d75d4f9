package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"github.com/sheetsql/sheets-client-go/gviz"
)

const gutter = "  "

// printTable writes table as plain text: a header row, a dash rule and one line
// per row. Numeric columns are right-aligned.
func printTable(w io.Writer, table *gviz.Table) error {
	if table == nil || len(table.Cols) == 0 {
		return nil
	}

	headers := make([]string, len(table.Cols))
	widths := make([]int, len(table.Cols))
	numeric := make([]bool, len(table.Cols))
	for i, col := range table.Cols {
		headers[i] = col.Name()
		widths[i] = displayWidth(headers[i]) + 2
		numeric[i] = col.Type == "number"
	}

	cells := make([][]string, len(table.Rows))
	for r, row := range table.Rows {
		cells[r] = make([]string, len(table.Cols))
		for c := range table.Cols {
			var cell *gviz.Cell
			if c < len(row.Cells) {
				cell = row.Cells[c]
			}
			cells[r][c] = cellText(cell)
			if n := displayWidth(cells[r][c]); n > widths[c] {
				widths[c] = n
			}
		}
	}

	rule := make([]string, len(widths))
	for i, n := range widths {
		rule[i] = strings.Repeat("-", n)
	}

	lines := [][]string{headers, rule}
	lines = append(lines, cells...)
	for _, line := range lines {
		padded := make([]string, len(line))
		for i, text := range line {
			padded[i] = pad(text, widths[i], numeric[i])
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(padded, gutter), " ")); err != nil {
			return err
		}
	}
	return nil
}

// cellText prefers the data source's formatted value.
func cellText(cell *gviz.Cell) string {
	if cell == nil || cell.Value == nil {
		return ""
	}
	if cell.Formatted != "" {
		return cell.Formatted
	}
	switch v := cell.Value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func pad(text string, size int, right bool) string {
	fill := size - displayWidth(text)
	if fill <= 0 {
		return text
	}
	if right {
		return strings.Repeat(" ", fill) + text
	}
	return text + strings.Repeat(" ", fill)
}

// displayWidth counts terminal cells, two for East Asian wide runes.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}
