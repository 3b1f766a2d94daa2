package tree

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Select resolves each glob pattern relative to moduleRoot and copies every
// match into destDir, preserving the path relative to moduleRoot. Matched
// directories are created (possibly empty); matched files are copied.
// Patterns are evaluated independently and their matches unioned, so a path
// matched twice is simply copied twice (overwrite-safe).
func Select(moduleRoot, destDir string, patterns []string) (int, error) {
	fsys := os.DirFS(moduleRoot)

	copied := 0
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return copied, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}

		for _, rel := range matches {
			srcPath := filepath.Join(moduleRoot, rel)
			destPath := filepath.Join(destDir, rel)

			info, err := os.Stat(srcPath)
			if err != nil {
				return copied, fmt.Errorf("failed to stat match %s: %w", srcPath, err)
			}

			if info.IsDir() {
				if err := os.MkdirAll(destPath, 0755); err != nil {
					return copied, fmt.Errorf("failed to create %s: %w", destPath, err)
				}
				continue
			}

			if err := CopyFile(srcPath, destPath); err != nil {
				return copied, err
			}
			copied++
		}
	}

	return copied, nil
}
