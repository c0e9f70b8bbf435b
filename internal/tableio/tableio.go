// Package tableio defines the narrow read APIs through which session data
// enters the cache, and provides Arrow IPC, CSV, and JSON implementations.
//
// The dataset's native containers (NWB session files, HDF5 analysis files)
// are read by external tooling; anything that can produce an Arrow record per
// named table satisfies TableReader and plugs in here. The in-repo
// implementations serve converted datasets, the manifest, and test fixtures.
package tableio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v17/arrow"
)

// TableReader loads one named table from a container file or directory.
//
// key addresses a table inside a container: the analysis files store their
// table under "df", and a converted session directory stores one file per
// dataset name. Implementations reading single-table files ignore the key.
type TableReader interface {
	ReadTable(ctx context.Context, path, key string) (arrow.Record, error)
}

// ObjectReader loads a JSON-style document as a generic mapping.
type ObjectReader interface {
	ReadObject(ctx context.Context, path string) (map[string]interface{}, error)
}

// resolvePath maps a (path, key) pair to a concrete file: a directory path
// resolves <dir>/<key><ext>, a file path is returned as-is with the key
// ignored.
func resolvePath(path, key, ext string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to locate table container: %w", err)
	}
	if !fi.IsDir() {
		return path, nil
	}
	if key == "" {
		return "", fmt.Errorf("table container %s is a directory but no key was given", path)
	}
	return filepath.Join(path, key+ext), nil
}
