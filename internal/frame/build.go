package frame

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// Column pairs a name with a typed value slice for record construction.
// Use the Float64Col, Int64Col, StringCol, BoolCol, and Float64ListCol
// constructors.
type Column struct {
	Name   string
	values interface{}
}

// Float64Col builds a float64 column. NaN entries are stored as values, not
// nulls, matching the missing-value convention of the source tables.
func Float64Col(name string, values []float64) Column {
	return Column{Name: name, values: values}
}

// Int64Col builds an int64 column.
func Int64Col(name string, values []int64) Column {
	return Column{Name: name, values: values}
}

// StringCol builds a string column.
func StringCol(name string, values []string) Column {
	return Column{Name: name, values: values}
}

// BoolCol builds a bool column.
func BoolCol(name string, values []bool) Column {
	return Column{Name: name, values: values}
}

// Float64ListCol builds a list<float64> column. Nil entries become empty
// lists.
func Float64ListCol(name string, values [][]float64) Column {
	return Column{Name: name, values: values}
}

// NewRecord builds an Arrow record from typed columns. All columns must have
// the same length.
func NewRecord(cols ...Column) (arrow.Record, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("new record: no columns")
	}

	fields := make([]arrow.Field, len(cols))
	arrs := make([]arrow.Array, len(cols))
	nRows := -1
	for i, c := range cols {
		var arr arrow.Array
		switch values := c.values.(type) {
		case []float64:
			arr = Float64Array(values)
		case []int64:
			arr = Int64Array(values)
		case []string:
			arr = StringArray(values)
		case []bool:
			arr = BoolArray(values)
		case [][]float64:
			arr = Float64ListArray(values)
		default:
			return nil, fmt.Errorf("new record: column %q has unsupported type %T", c.Name, c.values)
		}
		if nRows == -1 {
			nRows = arr.Len()
		} else if arr.Len() != nRows {
			return nil, fmt.Errorf("new record: column %q has %d rows, want %d", c.Name, arr.Len(), nRows)
		}
		fields[i] = arrow.Field{Name: c.Name, Type: arr.DataType(), Nullable: true}
		arrs[i] = arr
	}
	return array.NewRecord(arrow.NewSchema(fields, nil), arrs, int64(nRows)), nil
}

// Float64Array builds a float64 array. NaN entries are stored as values.
func Float64Array(values []float64) arrow.Array {
	b := array.NewFloat64Builder(memory.DefaultAllocator)
	b.AppendValues(values, nil)
	return b.NewArray()
}

// Int64Array builds an int64 array.
func Int64Array(values []int64) arrow.Array {
	b := array.NewInt64Builder(memory.DefaultAllocator)
	b.AppendValues(values, nil)
	return b.NewArray()
}

// StringArray builds a string array.
func StringArray(values []string) arrow.Array {
	b := array.NewStringBuilder(memory.DefaultAllocator)
	b.AppendValues(values, nil)
	return b.NewArray()
}

// BoolArray builds a boolean array.
func BoolArray(values []bool) arrow.Array {
	b := array.NewBooleanBuilder(memory.DefaultAllocator)
	b.AppendValues(values, nil)
	return b.NewArray()
}

// Float64ListArray builds a list<float64> array. Nil entries become empty
// lists.
func Float64ListArray(values [][]float64) arrow.Array {
	b := array.NewListBuilder(memory.DefaultAllocator, arrow.PrimitiveTypes.Float64)
	vb := b.ValueBuilder().(*array.Float64Builder)
	for _, row := range values {
		b.Append(true)
		vb.AppendValues(row, nil)
	}
	return b.NewArray()
}

// RepeatString builds a string array holding the same value in every row.
func RepeatString(value string, n int) arrow.Array {
	values := make([]string, n)
	for i := range values {
		values[i] = value
	}
	return StringArray(values)
}
