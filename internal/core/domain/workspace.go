package domain

import (
	"path/filepath"
	"runtime"
	"strings"
)

// WorkspaceConfig is the configuration an import resolves when it starts.
type WorkspaceConfig struct {
	// Root is the absolute workspace root.
	Root string

	// AutoClassify skips the confirmation gate.
	AutoClassify bool

	// AutoIngest runs knowledge-base ingestion after save.
	AutoIngest bool

	// Locale is passed to image description.
	Locale string
}

// FoldsCase reports whether workspace paths compare case-insensitively by
// default on this platform.
func FoldsCase() bool {
	return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
}

// IsWithin reports whether path lies inside root (root itself excluded).
// Both paths are cleaned first; foldCase compares case-insensitively.
// Callers resolve symlinks and make paths absolute before calling.
func IsWithin(root, path string, foldCase bool) bool {
	if root == "" || path == "" {
		return false
	}
	rel, err := RelPath(root, path, foldCase)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// RelPath is filepath.Rel with optional case folding. When path is inside
// root the result keeps path's own spelling.
func RelPath(root, path string, foldCase bool) (string, error) {
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	if !foldCase {
		return filepath.Rel(root, path)
	}
	rel, err := filepath.Rel(strings.ToLower(root), strings.ToLower(path))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return rel, err
	}
	parts := strings.Split(path, string(filepath.Separator))
	n := strings.Count(rel, string(filepath.Separator)) + 1
	return filepath.Join(parts[len(parts)-n:]...), nil
}
