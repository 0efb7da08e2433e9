package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/logger"
)

// DefaultMaxDepth limits how deep ListDirectories descends.
const DefaultMaxDepth = 3

// ListDirectories walks root and returns folders and files up to maxDepth
// levels below it. Hidden entries, including the staging area, are skipped.
// Unreadable subdirectories are logged and skipped.
func ListDirectories(ctx context.Context, root string, maxDepth int) ([]domain.DirectoryEntry, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, root)
	}

	var entries []domain.DirectoryEntry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return walkErr
		}
		if walkErr != nil {
			logger.Warn("skipping unreadable entry", "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		depth := strings.Count(rel, "/") + 1

		kind := domain.EntryFile
		if d.IsDir() {
			kind = domain.EntryFolder
		}
		entries = append(entries, domain.DirectoryEntry{
			Name:         d.Name(),
			RelativePath: rel,
			Kind:         kind,
			Depth:        depth,
		})

		if d.IsDir() && depth >= maxDepth {
			return fs.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", root, err)
	}
	return entries, nil
}
