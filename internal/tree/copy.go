package tree

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/stencilworks/stencil/internal/logger"
)

var log = logger.ForComponent("tree")

// Copy mirrors src into dest recursively, creating directories as needed.
// A path is excluded when any entry in exclude is a substring of its full
// source path. Dest may already exist; existing files are overwritten and
// unrelated files are left alone (merge semantics).
func Copy(src, dest string, exclude []string) (int, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("failed to stat source: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("source %s is not a directory", src)
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return 0, fmt.Errorf("failed to create destination: %w", err)
	}

	return copyDir(src, dest, exclude)
}

func copyDir(src, dest string, exclude []string) (int, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory %s: %w", src, err)
	}

	copied := 0
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		destPath := filepath.Join(dest, entry.Name())

		if excluded(srcPath, exclude) {
			log.Debug("skipping excluded path", "path", srcPath)
			continue
		}

		if entry.IsDir() {
			if err := os.MkdirAll(destPath, 0755); err != nil {
				return copied, fmt.Errorf("failed to create directory %s: %w", destPath, err)
			}
			n, err := copyDir(srcPath, destPath, exclude)
			copied += n
			if err != nil {
				return copied, err
			}
		} else {
			if err := CopyFile(srcPath, destPath); err != nil {
				return copied, err
			}
			copied++
		}
	}

	return copied, nil
}

func excluded(path string, exclude []string) bool {
	for _, pattern := range exclude {
		if pattern != "" && strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}

// CopyFile copies a single file, creating parent directories for the
// destination and preserving the source mode.
func CopyFile(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create parent directories for %s: %w", dest, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}

	return out.Close()
}
