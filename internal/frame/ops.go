package frame

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// Select projects the record onto the named columns, in the given order.
// Every name must exist.
func Select(rec arrow.Record, names []string) (arrow.Record, error) {
	fields := make([]arrow.Field, 0, len(names))
	cols := make([]arrow.Array, 0, len(names))
	for _, name := range names {
		idx, err := ColumnIndex(rec, name)
		if err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
		fields = append(fields, rec.Schema().Field(idx))
		cols = append(cols, rec.Column(idx))
	}
	return array.NewRecord(arrow.NewSchema(fields, nil), cols, rec.NumRows()), nil
}

// Drop removes the named columns, keeping the rest in order. Every name must
// exist.
func Drop(rec arrow.Record, names ...string) (arrow.Record, error) {
	drop := make(map[string]bool, len(names))
	for _, name := range names {
		if _, err := ColumnIndex(rec, name); err != nil {
			return nil, fmt.Errorf("drop: %w", err)
		}
		drop[name] = true
	}
	fields := make([]arrow.Field, 0, int(rec.NumCols()))
	cols := make([]arrow.Array, 0, int(rec.NumCols()))
	for i, f := range rec.Schema().Fields() {
		if drop[f.Name] {
			continue
		}
		fields = append(fields, f)
		cols = append(cols, rec.Column(i))
	}
	return array.NewRecord(arrow.NewSchema(fields, nil), cols, rec.NumRows()), nil
}

// Rename renames columns according to the old-name to new-name mapping.
// Every old name must exist.
func Rename(rec arrow.Record, renames map[string]string) (arrow.Record, error) {
	for old := range renames {
		if _, err := ColumnIndex(rec, old); err != nil {
			return nil, fmt.Errorf("rename: %w", err)
		}
	}
	fields := make([]arrow.Field, 0, int(rec.NumCols()))
	for _, f := range rec.Schema().Fields() {
		if newName, ok := renames[f.Name]; ok {
			f.Name = newName
		}
		fields = append(fields, f)
	}
	return array.NewRecord(arrow.NewSchema(fields, nil), rec.Columns(), rec.NumRows()), nil
}

// FilterMask keeps the rows where mask is true. mask must have one entry per
// row.
func FilterMask(rec arrow.Record, mask []bool) (arrow.Record, error) {
	if int64(len(mask)) != rec.NumRows() {
		return nil, fmt.Errorf("filter: mask length %d does not match row count %d",
			len(mask), rec.NumRows())
	}
	rb := array.NewRecordBuilder(memory.DefaultAllocator, rec.Schema())
	for row, keep := range mask {
		if !keep {
			continue
		}
		for i := 0; i < int(rec.NumCols()); i++ {
			if err := appendValue(rb.Field(i), rec.Column(i), row); err != nil {
				return nil, fmt.Errorf("filter column %q: %w", rec.ColumnName(i), err)
			}
		}
	}
	return rb.NewRecord(), nil
}

// WithRowIndex prepends an int64 column holding each row's ordinal position.
func WithRowIndex(rec arrow.Record, name string) (arrow.Record, error) {
	if HasColumn(rec, name) {
		return nil, fmt.Errorf("row index: column %q already exists", name)
	}
	idx := make([]int64, rec.NumRows())
	for i := range idx {
		idx[i] = int64(i)
	}
	fields := make([]arrow.Field, 0, int(rec.NumCols())+1)
	fields = append(fields, arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Int64})
	fields = append(fields, rec.Schema().Fields()...)
	cols := make([]arrow.Array, 0, int(rec.NumCols())+1)
	cols = append(cols, Int64Array(idx))
	cols = append(cols, rec.Columns()...)
	return array.NewRecord(arrow.NewSchema(fields, nil), cols, rec.NumRows()), nil
}

// ReplaceColumn swaps the named column's values for arr, keeping its position.
func ReplaceColumn(rec arrow.Record, name string, arr arrow.Array) (arrow.Record, error) {
	idx, err := ColumnIndex(rec, name)
	if err != nil {
		return nil, fmt.Errorf("replace: %w", err)
	}
	if int64(arr.Len()) != rec.NumRows() {
		return nil, fmt.Errorf("replace column %q: length %d does not match row count %d",
			name, arr.Len(), rec.NumRows())
	}
	fields := make([]arrow.Field, 0, int(rec.NumCols()))
	cols := make([]arrow.Array, 0, int(rec.NumCols()))
	for i, f := range rec.Schema().Fields() {
		if i == idx {
			f.Type = arr.DataType()
			cols = append(cols, arr)
		} else {
			cols = append(cols, rec.Column(i))
		}
		fields = append(fields, f)
	}
	return array.NewRecord(arrow.NewSchema(fields, nil), cols, rec.NumRows()), nil
}

// AppendColumn adds a column at the end of the record.
func AppendColumn(rec arrow.Record, name string, arr arrow.Array) (arrow.Record, error) {
	if HasColumn(rec, name) {
		return nil, fmt.Errorf("append: column %q already exists", name)
	}
	if int64(arr.Len()) != rec.NumRows() {
		return nil, fmt.Errorf("append column %q: length %d does not match row count %d",
			name, arr.Len(), rec.NumRows())
	}
	fields := make([]arrow.Field, 0, int(rec.NumCols())+1)
	fields = append(fields, rec.Schema().Fields()...)
	fields = append(fields, arrow.Field{Name: name, Type: arr.DataType(), Nullable: true})
	cols := make([]arrow.Array, 0, int(rec.NumCols())+1)
	cols = append(cols, rec.Columns()...)
	cols = append(cols, arr)
	return array.NewRecord(arrow.NewSchema(fields, nil), cols, rec.NumRows()), nil
}

// appendValue copies one row's value from col into the matching builder,
// preserving nulls. The builder must have been created from the column's
// schema.
func appendValue(b array.Builder, col arrow.Array, row int) error {
	if col.IsNull(row) {
		b.AppendNull()
		return nil
	}
	switch src := col.(type) {
	case *array.Float64:
		b.(*array.Float64Builder).Append(src.Value(row))
	case *array.Int64:
		b.(*array.Int64Builder).Append(src.Value(row))
	case *array.String:
		b.(*array.StringBuilder).Append(src.Value(row))
	case *array.Boolean:
		b.(*array.BooleanBuilder).Append(src.Value(row))
	case *array.List:
		vals, ok := src.ListValues().(*array.Float64)
		if !ok {
			return fmt.Errorf("unsupported list value type %s", src.ListValues().DataType())
		}
		lb := b.(*array.ListBuilder)
		vb := lb.ValueBuilder().(*array.Float64Builder)
		lb.Append(true)
		start, end := src.ValueOffsets(row)
		for j := start; j < end; j++ {
			vb.Append(vals.Value(int(j)))
		}
	default:
		return fmt.Errorf("unsupported column type %s", col.DataType())
	}
	return nil
}
