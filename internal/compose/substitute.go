package compose

import (
	"fmt"
	"os"
	"strings"

	"github.com/stencilworks/stencil/internal/tree"
)

// ExpandVars replaces every {{KEY}} placeholder in a string. Injected code
// fragments arrive after the tree-wide substitution pass, so they get their
// own expansion before being written into the target.
func ExpandVars(s string, vars map[string]string) string {
	for key, value := range vars {
		s = strings.ReplaceAll(s, "{{"+key+"}}", value)
	}
	return s
}

// Substitute replaces every {{KEY}} placeholder in a file with the value
// from vars, for exactly the keys present; unknown placeholders are left
// untouched. Directories and non-text files are skipped silently, and the
// file is only rewritten when at least one replacement happened.
func Substitute(path string, vars map[string]string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return false, nil
	}

	if !tree.IsEditable(path) {
		return false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	content := string(data)
	updated := ExpandVars(content, vars)

	if updated == content {
		return false, nil
	}

	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return true, nil
}
