package compose

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/stencilworks/stencil/internal/tree"
)

// MarkerSet tracks the markers that were actually matched during a run.
// Only those are eligible for cleanup; a marker no feature targeted stays in
// place as an anchor for a future composition.
type MarkerSet struct {
	markers map[string]bool
}

func NewMarkerSet() *MarkerSet {
	return &MarkerSet{markers: make(map[string]bool)}
}

func (s *MarkerSet) Add(marker string) {
	s.markers[strings.TrimSpace(marker)] = true
}

func (s *MarkerSet) Has(line string) bool {
	return s.markers[strings.TrimSpace(line)]
}

func (s *MarkerSet) Len() int {
	return len(s.markers)
}

func (s *MarkerSet) List() []string {
	out := make([]string, 0, len(s.markers))
	for m := range s.markers {
		out = append(out, m)
	}
	return out
}

// Cleanup removes applied marker lines from every text file under targetDir,
// skipping excluded subtrees (dependency caches) and reserved files that keep
// their markers for future runs. Manifests get JSON-safe handling: the file
// is re-parsed after stripping and re-serialized so the result is guaranteed
// syntactically valid, falling back to the textually-stripped content when
// parsing fails rather than aborting the pass.
func Cleanup(targetDir string, applied *MarkerSet, exclude, reserved []string) (int, error) {
	if applied.Len() == 0 {
		return 0, nil
	}

	cleaned := 0
	err := filepath.WalkDir(targetDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != targetDir && excludedPath(path, exclude) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(targetDir, path)
		if err != nil {
			return err
		}
		if reservedFile(rel, reserved) {
			return nil
		}

		if !tree.IsEditable(path) {
			return nil
		}

		changed, err := cleanFile(path, applied)
		if err != nil {
			return err
		}
		if changed {
			cleaned++
		}
		return nil
	})
	if err != nil {
		return cleaned, fmt.Errorf("cleanup failed: %w", err)
	}

	return cleaned, nil
}

func cleanFile(path string, applied *MarkerSet) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	content := string(data)
	lines := strings.Split(content, "\n")

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if applied.Has(line) {
			continue
		}
		kept = append(kept, line)
	}

	stripped := strings.Join(kept, "\n")
	if stripped == content {
		return false, nil
	}

	if filepath.Base(path) == manifestName {
		var manifest map[string]any
		if err := json.Unmarshal([]byte(stripped), &manifest); err == nil {
			return true, writeManifest(path, manifest)
		}
	}

	if err := os.WriteFile(path, []byte(stripped), 0644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

func excludedPath(path string, exclude []string) bool {
	for _, pattern := range exclude {
		if pattern != "" && strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}

func reservedFile(rel string, reserved []string) bool {
	rel = filepath.ToSlash(rel)
	for _, r := range reserved {
		if rel == filepath.ToSlash(r) || filepath.Base(rel) == r {
			return true
		}
	}
	return false
}
