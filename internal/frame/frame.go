// Package frame provides the fixed tabular operations the session adapters
// need over Arrow records: column lookup, typed extraction, projection,
// renaming, row filtering, and a single-key left join.
//
// It is deliberately not a general dataframe engine. The curated session
// tables use a fixed, known set of column types (float64, int64, string,
// bool, list<float64>), and every operation returns an error naming the
// offending column when a table does not match expectations.
//
// Missing float64 values are represented as NaN on extraction; Arrow nulls
// (which arise from unmatched join rows) convert to NaN as well.
package frame

import (
	"fmt"
	"math"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
)

// ColumnIndex returns the schema index of the named column.
func ColumnIndex(rec arrow.Record, name string) (int, error) {
	indices := rec.Schema().FieldIndices(name)
	switch len(indices) {
	case 0:
		return 0, fmt.Errorf("column %q not found", name)
	case 1:
		return indices[0], nil
	default:
		return 0, fmt.Errorf("column %q appears %d times", name, len(indices))
	}
}

// HasColumn reports whether the record has a column with the given name.
func HasColumn(rec arrow.Record, name string) bool {
	return len(rec.Schema().FieldIndices(name)) > 0
}

// ColumnArray returns the named column's array.
func ColumnArray(rec arrow.Record, name string) (arrow.Array, error) {
	idx, err := ColumnIndex(rec, name)
	if err != nil {
		return nil, err
	}
	return rec.Column(idx), nil
}

// Names returns the record's column names in schema order.
func Names(rec arrow.Record) []string {
	fields := rec.Schema().Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

// Float64Column extracts the named column as a float64 slice. Nulls become
// NaN. Int64 columns are promoted: the CSV type inference stores
// whole-number columns as int64.
func Float64Column(rec arrow.Record, name string) ([]float64, error) {
	col, err := ColumnArray(rec, name)
	if err != nil {
		return nil, err
	}
	switch arr := col.(type) {
	case *array.Float64:
		out := make([]float64, arr.Len())
		for i := range out {
			if arr.IsNull(i) {
				out[i] = math.NaN()
				continue
			}
			out[i] = arr.Value(i)
		}
		return out, nil
	case *array.Int64:
		out := make([]float64, arr.Len())
		for i := range out {
			if arr.IsNull(i) {
				out[i] = math.NaN()
				continue
			}
			out[i] = float64(arr.Value(i))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("column %q: expected float64, got %s", name, col.DataType())
	}
}

// Int64Column extracts the named column as an int64 slice. Nulls are an
// error: identifier columns must be fully populated.
func Int64Column(rec arrow.Record, name string) ([]int64, error) {
	col, err := ColumnArray(rec, name)
	if err != nil {
		return nil, err
	}
	arr, ok := col.(*array.Int64)
	if !ok {
		return nil, fmt.Errorf("column %q: expected int64, got %s", name, col.DataType())
	}
	out := make([]int64, arr.Len())
	for i := range out {
		if arr.IsNull(i) {
			return nil, fmt.Errorf("column %q: null value at row %d", name, i)
		}
		out[i] = arr.Value(i)
	}
	return out, nil
}

// StringColumn extracts the named column as a string slice. Nulls become "".
func StringColumn(rec arrow.Record, name string) ([]string, error) {
	col, err := ColumnArray(rec, name)
	if err != nil {
		return nil, err
	}
	arr, ok := col.(*array.String)
	if !ok {
		return nil, fmt.Errorf("column %q: expected string, got %s", name, col.DataType())
	}
	out := make([]string, arr.Len())
	for i := range out {
		if arr.IsNull(i) {
			continue
		}
		out[i] = arr.Value(i)
	}
	return out, nil
}

// BoolColumn extracts the named column as a bool slice. Nulls become false.
func BoolColumn(rec arrow.Record, name string) ([]bool, error) {
	col, err := ColumnArray(rec, name)
	if err != nil {
		return nil, err
	}
	arr, ok := col.(*array.Boolean)
	if !ok {
		return nil, fmt.Errorf("column %q: expected bool, got %s", name, col.DataType())
	}
	out := make([]bool, arr.Len())
	for i := range out {
		if arr.IsNull(i) {
			continue
		}
		out[i] = arr.Value(i)
	}
	return out, nil
}

// Float64ListColumn extracts the named column as a slice of float64 slices.
// Null entries become nil slices.
func Float64ListColumn(rec arrow.Record, name string) ([][]float64, error) {
	col, err := ColumnArray(rec, name)
	if err != nil {
		return nil, err
	}
	arr, ok := col.(*array.List)
	if !ok {
		return nil, fmt.Errorf("column %q: expected list<float64>, got %s", name, col.DataType())
	}
	vals, ok := arr.ListValues().(*array.Float64)
	if !ok {
		return nil, fmt.Errorf("column %q: expected list<float64>, got %s", name, col.DataType())
	}
	out := make([][]float64, arr.Len())
	for i := range out {
		if arr.IsNull(i) {
			continue
		}
		start, end := arr.ValueOffsets(i)
		row := make([]float64, 0, end-start)
		for j := start; j < end; j++ {
			row = append(row, vals.Value(int(j)))
		}
		out[i] = row
	}
	return out, nil
}
