package compose

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/stencilworks/stencil/internal/registry"
)

const manifestName = "package.json"

var markerIdent = regexp.MustCompile(`INJECT:([A-Z_]+)`)

// sectionForMarker maps a marker to the manifest section it targets:
// INJECT:SCRIPTS selects "scripts".
func sectionForMarker(marker string) string {
	m := markerIdent.FindStringSubmatch(marker)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// injectManifest merges a fragment of key/value pairs into a manifest
// section. JSON has no comment syntax, so the marker line is stripped from
// the raw text before parsing; the merge itself is structural, never textual.
// The code fragment must be the interior of an object literal; anything else
// is a registry contract violation surfaced as a FragmentError.
func injectManifest(path, content, marker, code string) (bool, error) {
	if !strings.Contains(content, marker) {
		return false, nil
	}

	section := sectionForMarker(marker)
	if section == "" {
		return false, fmt.Errorf("marker %q does not name a manifest section", marker)
	}

	stripped := stripMarkerLines(content)

	var manifest map[string]any
	if err := json.Unmarshal([]byte(stripped), &manifest); err != nil {
		return false, fmt.Errorf("manifest %s is not valid JSON: %w", path, err)
	}

	var fragment map[string]any
	if err := json.Unmarshal([]byte("{"+code+"}"), &fragment); err != nil {
		return false, &FragmentError{TargetFile: path, Code: code, Err: err}
	}

	sec, _ := manifest[section].(map[string]any)
	if sec == nil {
		sec = make(map[string]any)
	}
	for key, value := range fragment {
		sec[key] = value
	}
	manifest[section] = sec

	if err := writeManifest(path, manifest); err != nil {
		return false, err
	}

	return true, nil
}

// MergeManifest shallow-merges dependency maps into the target manifest,
// creating the sections when absent and leaving every other field alone.
// The manifest is a guaranteed artifact of the base copy, so a missing or
// unparsable file here is fatal rather than best-effort.
func MergeManifest(targetDir string, deps, devDeps map[string]string) error {
	if len(deps) == 0 && len(devDeps) == 0 {
		return nil
	}

	path := filepath.Join(targetDir, manifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest map[string]any
	if err := json.Unmarshal([]byte(stripMarkerLines(string(data))), &manifest); err != nil {
		return fmt.Errorf("manifest %s is not valid JSON: %w", path, err)
	}

	mergeSection(manifest, "dependencies", deps)
	mergeSection(manifest, "devDependencies", devDeps)

	return writeManifest(path, manifest)
}

func mergeSection(manifest map[string]any, section string, entries map[string]string) {
	if len(entries) == 0 {
		return
	}

	sec, _ := manifest[section].(map[string]any)
	if sec == nil {
		sec = make(map[string]any)
	}
	for name, version := range entries {
		sec[name] = version
	}
	manifest[section] = sec
}

func writeManifest(path string, manifest map[string]any) error {
	out, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	out = append(out, '\n')

	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// stripMarkerLines removes every line matching the marker grammar. JSON has
// no comment syntax, so the manifest must be rid of markers before parsing;
// a structural rewrite of the manifest does not preserve them.
func stripMarkerLines(content string) string {
	lines := strings.Split(content, "\n")

	kept := lines[:0]
	for _, line := range lines {
		if registry.MarkerPattern.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}
