package frame

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// LeftJoin joins right onto left by the named int64 key column, keeping every
// left row. The right table's columns (minus the key) are appended after the
// left table's; rows with no match get nulls there. When a key occurs more
// than once on the right, the first occurrence wins.
//
// Column names other than the key must not collide between the two tables.
func LeftJoin(left, right arrow.Record, on string) (arrow.Record, error) {
	leftKeys, err := Int64Column(left, on)
	if err != nil {
		return nil, fmt.Errorf("join left: %w", err)
	}
	rightKeys, err := Int64Column(right, on)
	if err != nil {
		return nil, fmt.Errorf("join right: %w", err)
	}

	rightKeyIdx, err := ColumnIndex(right, on)
	if err != nil {
		return nil, err
	}
	for _, f := range right.Schema().Fields() {
		if f.Name != on && HasColumn(left, f.Name) {
			return nil, fmt.Errorf("join: column %q exists in both tables", f.Name)
		}
	}

	// First occurrence of each key on the right wins.
	byKey := make(map[int64]int, len(rightKeys))
	for row, key := range rightKeys {
		if _, seen := byKey[key]; !seen {
			byKey[key] = row
		}
	}

	fields := make([]arrow.Field, 0, int(left.NumCols()+right.NumCols())-1)
	fields = append(fields, left.Schema().Fields()...)
	for i, f := range right.Schema().Fields() {
		if i == rightKeyIdx {
			continue
		}
		f.Nullable = true
		fields = append(fields, f)
	}
	schema := arrow.NewSchema(fields, nil)

	rb := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	nLeft := int(left.NumCols())
	for row := range leftKeys {
		for i := 0; i < nLeft; i++ {
			if err := appendValue(rb.Field(i), left.Column(i), row); err != nil {
				return nil, fmt.Errorf("join column %q: %w", left.ColumnName(i), err)
			}
		}
		matchRow, matched := byKey[leftKeys[row]]
		out := nLeft
		for i := 0; i < int(right.NumCols()); i++ {
			if i == rightKeyIdx {
				continue
			}
			if !matched {
				rb.Field(out).AppendNull()
			} else if err := appendValue(rb.Field(out), right.Column(i), matchRow); err != nil {
				return nil, fmt.Errorf("join column %q: %w", right.ColumnName(i), err)
			}
			out++
		}
	}
	return rb.NewRecord(), nil
}
