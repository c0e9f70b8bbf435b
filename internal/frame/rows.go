package frame

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
)

// CellValue returns one cell as a plain Go value: float64, int64, string,
// bool, or []float64 for list columns. Nulls return nil.
func CellValue(col arrow.Array, row int) (interface{}, error) {
	if col.IsNull(row) {
		return nil, nil
	}
	switch arr := col.(type) {
	case *array.Float64:
		return arr.Value(row), nil
	case *array.Int64:
		return arr.Value(row), nil
	case *array.String:
		return arr.Value(row), nil
	case *array.Boolean:
		return arr.Value(row), nil
	case *array.List:
		vals, ok := arr.ListValues().(*array.Float64)
		if !ok {
			return nil, fmt.Errorf("unsupported list value type %s", arr.ListValues().DataType())
		}
		start, end := arr.ValueOffsets(row)
		out := make([]float64, 0, end-start)
		for j := start; j < end; j++ {
			out = append(out, vals.Value(int(j)))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported column type %s", col.DataType())
	}
}

// Rows converts a window of the record into row objects keyed by column
// name. offset rows are skipped; at most limit rows are returned (limit <= 0
// means all remaining rows).
func Rows(rec arrow.Record, offset, limit int) ([]map[string]interface{}, error) {
	n := int(rec.NumRows())
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}

	names := Names(rec)
	out := make([]map[string]interface{}, 0, end-offset)
	for row := offset; row < end; row++ {
		obj := make(map[string]interface{}, len(names))
		for i, name := range names {
			v, err := CellValue(rec.Column(i), row)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", name, err)
			}
			obj[name] = v
		}
		out = append(out, obj)
	}
	return out, nil
}
