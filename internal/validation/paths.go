// Package validation guards local filesystem writes against hostile remote
// metadata. Node and share file names come from the server and end up in
// filepath.Join calls; these checks keep them from escaping the target
// directory.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CheckFilename rejects a bare file name that could redirect a write:
// empty names, path separators, a literal "..", or null bytes. Names like
// "data..v2.csv" are fine since separators are rejected separately.
func CheckFilename(name string) error {
	if name == "" {
		return fmt.Errorf("file name is empty")
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("file name contains a null byte")
	}
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, '\\') {
		return fmt.Errorf("file name %q contains a path separator", name)
	}
	if name == ".." {
		return fmt.Errorf("file name is '..'")
	}
	return nil
}

// CheckPathInDirectory verifies that path, once cleaned and resolved,
// stays inside baseDir. Used for server-derived relative paths before they
// are joined onto a local download root.
func CheckPathInDirectory(path, baseDir string) error {
	if path == "" {
		return fmt.Errorf("path is empty")
	}
	if baseDir == "" {
		return fmt.Errorf("base directory is empty")
	}

	cleanBase := filepath.Clean(baseDir)
	if !filepath.IsAbs(cleanBase) {
		abs, err := filepath.Abs(cleanBase)
		if err != nil {
			return fmt.Errorf("failed to resolve base directory: %w", err)
		}
		cleanBase = abs
	}

	resolved := filepath.Clean(path)
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(cleanBase, resolved)
	}

	rel, err := filepath.Rel(cleanBase, resolved)
	if err != nil {
		return fmt.Errorf("failed to resolve %q against %q: %w", path, baseDir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes %q", path, baseDir)
	}
	return nil
}
