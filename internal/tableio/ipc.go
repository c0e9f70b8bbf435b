package tableio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// IPC reads and writes tables as Arrow IPC stream files. A directory path
// resolves <dir>/<key>.arrow; a file path ignores the key. Each file holds
// exactly one record.
type IPC struct{}

// ReadTable loads the record from an IPC file.
func (IPC) ReadTable(ctx context.Context, path, key string) (arrow.Record, error) {
	resolved, err := resolvePath(path, key, ".arrow")
	if err != nil {
		return nil, err
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to open table file: %w", err)
	}
	defer f.Close()

	rdr, err := ipc.NewReader(f, ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", resolved, err)
	}
	defer rdr.Release()

	if !rdr.Next() {
		if err := rdr.Err(); err != nil {
			return nil, fmt.Errorf("failed to read table %s: %w", resolved, err)
		}
		return nil, fmt.Errorf("table file %s holds no record", resolved)
	}
	rec := rdr.Record()
	rec.Retain()

	if rdr.Next() {
		return nil, fmt.Errorf("table file %s holds more than one record", resolved)
	}
	if err := rdr.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", resolved, err)
	}
	return rec, nil
}

// WriteTable writes the record to an IPC file at path, creating parent
// directories as needed.
func (IPC) WriteTable(ctx context.Context, path string, rec arrow.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create table directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create table file: %w", err)
	}

	w := ipc.NewWriter(f, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(memory.DefaultAllocator))
	if err := w.Write(rec); err != nil {
		w.Close()
		f.Close()
		return fmt.Errorf("failed to write table %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("failed to finish table %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close table file %s: %w", path, err)
	}
	return nil
}
