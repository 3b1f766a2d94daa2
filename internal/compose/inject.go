package compose

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Inject inserts a code fragment at a marker inside the target file. It
// reports whether the fragment was applied.
//
// A missing target file is not an error: the marker itself establishes the
// insertion point, so the file is created containing the marker followed by
// the code. An existing file without the marker is a no-op; a feature may
// declare an injection for a base-file variant that lacks the anchor.
//
// When a fragment is applied to an existing marker, the marker line is
// re-emitted after the code so later features can stack on the same anchor.
func Inject(path, marker, code string) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return false, fmt.Errorf("failed to create parent directories for %s: %w", path, err)
		}
		content := marker + "\n" + code
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return false, fmt.Errorf("failed to create %s: %w", path, err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	content := string(data)

	if filepath.Base(path) == manifestName {
		return injectManifest(path, content, marker, code)
	}

	if !strings.Contains(content, marker) {
		return false, nil
	}

	updated := strings.Replace(content, marker, code+"\n"+marker, 1)
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return true, nil
}
