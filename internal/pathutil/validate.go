// Package pathutil provides path validation for vbcache's write operations.
// The dataset directories are read-only by contract; exports must land
// elsewhere.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RedactPath reduces a full path to .../<parent>/<basename> for safe error messages.
// For example, "/data/release/.vbcache/catalog.db" becomes ".../.vbcache/catalog.db".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	dir := filepath.Dir(cleaned)
	base := filepath.Base(cleaned)
	parent := filepath.Base(dir)
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}

// ValidateWriteTarget checks that a write target lies outside every
// read-only dataset directory. It resolves symlinks, cleans the path, and
// rejects traversal attempts, so a target cannot reach into a protected
// tree through a link.
func ValidateWriteTarget(path string, readOnlyDirs []string) error {
	if path == "" {
		return fmt.Errorf("path validation failed: path is empty")
	}

	// Check for null bytes (common injection vector)
	if strings.ContainsRune(path, '\x00') {
		return fmt.Errorf("path validation failed: path contains null byte")
	}

	cleaned := filepath.Clean(path)
	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return fmt.Errorf("path validation failed: cannot resolve absolute path: %w", err)
	}

	// Resolve symlinks on the deepest existing ancestor (the target may not
	// exist yet), so a linked directory cannot place the write inside a
	// protected tree.
	resolvedPath, err := resolveExistingParent(absPath)
	if err != nil {
		return fmt.Errorf("path validation failed: cannot resolve path: %w", err)
	}

	for _, dir := range readOnlyDirs {
		if dir == "" {
			continue
		}
		dirAbs, err := filepath.Abs(filepath.Clean(dir))
		if err != nil {
			continue
		}
		dirResolved, err := resolveExistingParent(dirAbs)
		if err != nil {
			continue
		}
		if isSubpath(resolvedPath, dirResolved) {
			return fmt.Errorf("path validation failed: %q is inside the read-only dataset directory %q",
				RedactPath(absPath), RedactPath(dirAbs))
		}
	}

	return nil
}

// resolveExistingParent walks up the directory tree to find the deepest existing
// ancestor, resolves symlinks on it, then re-appends the non-existent tail.
// This handles cases where the target or some parent directories don't exist yet.
func resolveExistingParent(dir string) (string, error) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err == nil {
		return resolved, nil
	}

	parent := filepath.Dir(dir)
	if parent == dir {
		// We've hit the root and it doesn't exist -- give up
		return "", fmt.Errorf("cannot resolve path: %s", RedactPath(dir))
	}

	resolvedParent, err := resolveExistingParent(parent)
	if err != nil {
		return "", err
	}

	return filepath.Join(resolvedParent, filepath.Base(dir)), nil
}

// isSubpath checks whether path is equal to or a subdirectory of base.
func isSubpath(path, base string) bool {
	if path == base {
		return true
	}
	// Ensure base ends with separator so "/tmp/foo" doesn't match "/tmp/foobar"
	prefix := base + string(os.PathSeparator)
	return strings.HasPrefix(path, prefix)
}
