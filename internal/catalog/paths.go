package catalog

import (
	"fmt"
	"os"
	"path/filepath"
)

// StateDirName is the name of the directory vbcache keeps its state in.
const StateDirName = ".vbcache"

// StateDir returns the path to the .vbcache state directory under cacheRoot.
func StateDir(cacheRoot string) string {
	return filepath.Join(cacheRoot, StateDirName)
}

// EnsureStateDir creates the .vbcache state directory if it doesn't exist.
// Returns the directory path.
func EnsureStateDir(cacheRoot string) (string, error) {
	dir := StateDir(cacheRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", StateDirName, err)
	}
	return dir, nil
}
