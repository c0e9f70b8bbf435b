package tableio

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/csv"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// CSV reads and writes tables as comma-separated files with a header row.
// Reading infers column types; empty cells read as nulls. A directory path
// resolves <dir>/<key>.csv; a file path ignores the key.
type CSV struct {
	// ColumnTypes overrides type inference for the named columns. Inference
	// misreads some text columns (an all-"F" sex column parses as booleans,
	// numeric animal names as integers), so callers with a known layout pin
	// the types here.
	ColumnTypes map[string]arrow.DataType
}

// ReadTable loads a CSV file as a single record.
func (c CSV) ReadTable(ctx context.Context, path, key string) (arrow.Record, error) {
	resolved, err := resolvePath(path, key, ".csv")
	if err != nil {
		return nil, err
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to open table file: %w", err)
	}
	defer f.Close()

	opts := []csv.Option{
		csv.WithAllocator(memory.DefaultAllocator),
		csv.WithHeader(true),
		csv.WithChunk(-1),
		csv.WithNullReader(true, ""),
	}
	if len(c.ColumnTypes) > 0 {
		opts = append(opts, csv.WithColumnTypes(c.ColumnTypes))
	}

	rdr := csv.NewInferringReader(f, opts...)
	defer rdr.Release()

	if !rdr.Next() {
		if err := rdr.Err(); err != nil {
			return nil, fmt.Errorf("failed to read table %s: %w", resolved, err)
		}
		return nil, fmt.Errorf("table file %s holds no rows", resolved)
	}
	rec := rdr.Record()
	rec.Retain()

	if err := rdr.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", resolved, err)
	}
	return rec, nil
}

// WriteTable writes the record as a CSV file with a header row. Column types
// must be representable in CSV; callers convert list columns beforehand.
func (c CSV) WriteTable(ctx context.Context, path string, rec arrow.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create table file: %w", err)
	}

	w := csv.NewWriter(f, rec.Schema(), csv.WithHeader(true), csv.WithComma(','))
	if err := w.Write(rec); err != nil {
		f.Close()
		return fmt.Errorf("failed to write table %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush table %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close table file %s: %w", path, err)
	}
	return nil
}
