package compose

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSubstitute(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "package.json")

	content := `{"name": "{{PROJECT_NAME}}", "author": "{{AUTHOR}}"}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	changed, err := Substitute(path, map[string]string{"PROJECT_NAME": "my-api"})
	if err != nil {
		t.Fatalf("Substitute failed: %v", err)
	}
	if !changed {
		t.Error("expected a replacement to happen")
	}

	data, _ := os.ReadFile(path)
	want := `{"name": "my-api", "author": "{{AUTHOR}}"}`
	if string(data) != want {
		t.Errorf("got %q, want %q", string(data), want)
	}
}

func TestExpandVars(t *testing.T) {
	vars := map[string]string{"PROJECT_NAME": "demo-app"}

	got := ExpandVars("docker build -t {{PROJECT_NAME}} .", vars)
	if got != "docker build -t demo-app ." {
		t.Errorf("got %q", got)
	}

	unknown := ExpandVars("keep {{OTHER}} as-is", vars)
	if unknown != "keep {{OTHER}} as-is" {
		t.Errorf("unknown placeholder should pass through, got %q", unknown)
	}
}

func TestSubstituteNoMatchesNoWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.txt")

	if err := os.WriteFile(path, []byte("no placeholders here"), 0644); err != nil {
		t.Fatal(err)
	}
	before, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	changed, err := Substitute(path, map[string]string{"PROJECT_NAME": "x"})
	if err != nil {
		t.Fatalf("Substitute failed: %v", err)
	}
	if changed {
		t.Error("expected no change")
	}

	after, _ := os.Stat(path)
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("file should not be rewritten when nothing changed")
	}
}

func TestSubstituteSkipsDirectories(t *testing.T) {
	dir := t.TempDir()

	changed, err := Substitute(dir, map[string]string{"X": "y"})
	if err != nil {
		t.Fatalf("Substitute on directory should not fail: %v", err)
	}
	if changed {
		t.Error("directory should be a silent no-op")
	}
}

func TestSubstituteSkipsBinaryFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logo.png")

	payload := []byte{0x89, 'P', 'N', 'G', 0x00, 0x01, 0x02, '{', '{', 'X', '}', '}'}
	if err := os.WriteFile(path, payload, 0644); err != nil {
		t.Fatal(err)
	}

	changed, err := Substitute(path, map[string]string{"X": "y"})
	if err != nil {
		t.Fatalf("Substitute should skip binary files, not fail: %v", err)
	}
	if changed {
		t.Error("binary file must not be rewritten")
	}
}
