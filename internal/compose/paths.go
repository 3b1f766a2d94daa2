package compose

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CurrentDir is the sentinel project name meaning "scaffold into the
// invocation directory" instead of creating a fresh one.
const CurrentDir = "."

// ResolveTarget computes the target directory for a new project. It fails
// fast when the invocation directory sits inside the template tree, which
// would let a run overwrite its own source, and refuses a fresh project name
// whose directory already exists with content in it.
func ResolveTarget(invocationDir, templateRoot, name string) (string, error) {
	absInvoke, err := filepath.Abs(invocationDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve invocation directory: %w", err)
	}
	absTemplate, err := filepath.Abs(templateRoot)
	if err != nil {
		return "", fmt.Errorf("failed to resolve template root: %w", err)
	}

	if insideOf(absInvoke, absTemplate) {
		return "", fmt.Errorf("%w: %s", ErrTargetInsideTemplate, absInvoke)
	}

	if name == CurrentDir {
		return absInvoke, nil
	}

	target := filepath.Join(absInvoke, name)
	if insideOf(target, absTemplate) {
		return "", fmt.Errorf("%w: %s", ErrTargetInsideTemplate, target)
	}

	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return target, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat target: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrTargetNotDirectory, target)
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return "", fmt.Errorf("failed to read target: %w", err)
	}
	if len(entries) > 0 {
		return "", fmt.Errorf("%w: %s", ErrTargetNotEmpty, target)
	}

	return target, nil
}

func insideOf(path, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
