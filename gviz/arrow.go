package gviz

import (
	"fmt"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"
)

// ArrowSchema returns the Arrow schema matching the table columns. Numbers map to
// float64, booleans to bool and everything else (strings, dates, times of day) to
// utf8 using the formatted cell text when present.
func (t *Table) ArrowSchema() *arrow.Schema {
	fields := make([]arrow.Field, len(t.Cols))
	for i, col := range t.Cols {
		fields[i] = arrow.Field{Name: col.Name(), Type: arrowType(col.Type), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// ToArrowRecord copies the table into a single Arrow record. The caller owns the
// record and must Release it.
func (t *Table) ToArrowRecord(mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	builder := array.NewRecordBuilder(mem, t.ArrowSchema())
	defer builder.Release()

	for r, row := range t.Rows {
		if len(row.Cells) != len(t.Cols) {
			return nil, fmt.Errorf("row %d has %d cells, table has %d columns", r, len(row.Cells), len(t.Cols))
		}
		for c, cell := range row.Cells {
			if err := appendArrowValue(builder.Field(c), cell); err != nil {
				return nil, fmt.Errorf("row %d, column %q: %v", r, t.Cols[c].Name(), err)
			}
		}
	}
	return builder.NewRecord(), nil
}

func arrowType(columnType string) arrow.DataType {
	switch columnType {
	case "number":
		return arrow.PrimitiveTypes.Float64
	case "boolean":
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

func appendArrowValue(b array.Builder, cell *Cell) error {
	if cell == nil || cell.Value == nil {
		b.AppendNull()
		return nil
	}
	switch builder := b.(type) {
	case *array.Float64Builder:
		f, ok := ToFloat(cell.Value)
		if !ok {
			return fmt.Errorf("cannot convert %T to number", cell.Value)
		}
		builder.Append(f)
	case *array.BooleanBuilder:
		v, ok := cell.Value.(bool)
		if !ok {
			return fmt.Errorf("cannot convert %T to boolean", cell.Value)
		}
		builder.Append(v)
	case *array.StringBuilder:
		if s, ok := cell.Value.(string); ok && cell.Formatted == "" {
			builder.Append(s)
		} else if cell.Formatted != "" {
			builder.Append(cell.Formatted)
		} else {
			builder.Append(fmt.Sprintf("%v", cell.Value))
		}
	default:
		return fmt.Errorf("unsupported arrow builder %T", b)
	}
	return nil
}
