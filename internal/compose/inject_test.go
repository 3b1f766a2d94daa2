package compose

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInjectAtMarker(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.js")

	original := "const app = express()\n// INJECT:ROUTES\napp.listen(3000)\n"
	if err := os.WriteFile(path, []byte(original), 0644); err != nil {
		t.Fatal(err)
	}

	applied, err := Inject(path, "// INJECT:ROUTES", "app.use('/auth', authRouter)")
	if err != nil {
		t.Fatalf("Inject failed: %v", err)
	}
	if !applied {
		t.Error("expected injection to be applied")
	}

	data, _ := os.ReadFile(path)
	content := string(data)

	want := "const app = express()\napp.use('/auth', authRouter)\n// INJECT:ROUTES\napp.listen(3000)\n"
	if content != want {
		t.Errorf("unexpected content:\ngot:  %q\nwant: %q", content, want)
	}
}

func TestInjectMarkerRetainedForStacking(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.js")

	if err := os.WriteFile(path, []byte("// INJECT:ROUTES\n"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, code := range []string{"first()", "second()", "third()"} {
		applied, err := Inject(path, "// INJECT:ROUTES", code)
		if err != nil {
			t.Fatalf("Inject(%q) failed: %v", code, err)
		}
		if !applied {
			t.Fatalf("Inject(%q) not applied", code)
		}
	}

	data, _ := os.ReadFile(path)
	content := string(data)

	want := "first()\nsecond()\nthird()\n// INJECT:ROUTES\n"
	if content != want {
		t.Errorf("fragments did not stack in order:\ngot:  %q\nwant: %q", content, want)
	}
}

func TestInjectMarkerAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.js")

	original := "const app = express()\napp.listen(3000)\n"
	if err := os.WriteFile(path, []byte(original), 0644); err != nil {
		t.Fatal(err)
	}

	applied, err := Inject(path, "// INJECT:ROUTES", "app.use(x)")
	if err != nil {
		t.Fatalf("Inject failed: %v", err)
	}
	if applied {
		t.Error("expected injection to be skipped")
	}

	data, _ := os.ReadFile(path)
	if string(data) != original {
		t.Error("file should be byte-identical after a skipped injection")
	}
}

func TestInjectCreatesMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config", ".env.example")

	applied, err := Inject(path, "# INJECT:ENV", "JWT_SECRET=changeme")
	if err != nil {
		t.Fatalf("Inject failed: %v", err)
	}
	if !applied {
		t.Error("expected injection into a missing file to be applied")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file was not created: %v", err)
	}

	want := "# INJECT:ENV\nJWT_SECRET=changeme\n"
	if string(data) != want {
		t.Errorf("unexpected content:\ngot:  %q\nwant: %q", string(data), want)
	}
}

func TestInjectManifestScripts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "package.json")

	content := "{\n" +
		"  \"name\": \"demo\",\n" +
		"  \"scripts\": {\n" +
		"    \"dev\": \"node src/index.js\"\n" +
		"  }\n" +
		"  // INJECT:SCRIPTS\n" +
		"}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	applied, err := Inject(path, "// INJECT:SCRIPTS", `"build": "tsc"`)
	if err != nil {
		t.Fatalf("Inject failed: %v", err)
	}
	if !applied {
		t.Error("expected manifest injection to be applied")
	}

	data, _ := os.ReadFile(path)
	var manifest map[string]any
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("manifest is not valid JSON after injection: %v", err)
	}

	scripts, ok := manifest["scripts"].(map[string]any)
	if !ok {
		t.Fatal("scripts section missing")
	}
	if scripts["dev"] != "node src/index.js" {
		t.Errorf("existing script lost: %v", scripts["dev"])
	}
	if scripts["build"] != "tsc" {
		t.Errorf("injected script missing: %v", scripts["build"])
	}
	if strings.Contains(string(data), "INJECT:SCRIPTS") {
		t.Error("marker line should be absent from the rewritten manifest")
	}
}

func TestInjectManifestInvalidFragment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "package.json")

	content := "{\n  \"scripts\": {}\n  // INJECT:SCRIPTS\n}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Inject(path, "// INJECT:SCRIPTS", `not json at all`)
	if err == nil {
		t.Fatal("expected an error for an invalid fragment")
	}

	var fragErr *FragmentError
	if !errors.As(err, &fragErr) {
		t.Errorf("expected FragmentError, got %T: %v", err, err)
	}
}

func TestInjectManifestMarkerAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "package.json")

	content := "{\n  \"name\": \"demo\"\n}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	applied, err := Inject(path, "// INJECT:SCRIPTS", `"build": "tsc"`)
	if err != nil {
		t.Fatalf("Inject failed: %v", err)
	}
	if applied {
		t.Error("expected manifest injection without marker to be skipped")
	}

	data, _ := os.ReadFile(path)
	if string(data) != content {
		t.Error("manifest should be untouched when the marker is absent")
	}
}
