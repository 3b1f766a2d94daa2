package tree

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSelect(t *testing.T) {
	modules := t.TempDir()
	dest := filepath.Join(t.TempDir(), "src", "modules")

	mustWrite(t, modules, "auth/router.js", "router\n")
	mustWrite(t, modules, "auth/jwt/sign.js", "sign\n")
	mustWrite(t, modules, "docker/Dockerfile", "FROM node\n")
	mustWrite(t, modules, "mail/sender.js", "mail\n")

	copied, err := Select(modules, dest, []string{"auth/**", "docker/Dockerfile"})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if copied != 3 {
		t.Errorf("expected 3 files, got %d", copied)
	}

	for _, rel := range []string{"auth/router.js", "auth/jwt/sign.js", "docker/Dockerfile"} {
		if _, err := os.Stat(filepath.Join(dest, filepath.FromSlash(rel))); err != nil {
			t.Errorf("expected %s under destination: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dest, "mail")); !os.IsNotExist(err) {
		t.Error("unselected module should not be copied")
	}
}

func TestSelectNoMatches(t *testing.T) {
	modules := t.TempDir()
	mustWrite(t, modules, "auth/router.js", "router\n")

	copied, err := Select(modules, t.TempDir(), []string{"payments/**"})
	if err != nil {
		t.Fatalf("a pattern with no matches is not an error: %v", err)
	}
	if copied != 0 {
		t.Errorf("expected 0 files, got %d", copied)
	}
}

func TestSelectOverlappingPatterns(t *testing.T) {
	modules := t.TempDir()
	dest := t.TempDir()
	mustWrite(t, modules, "auth/router.js", "router\n")

	// The same file matched by two patterns is copied twice, overwrite-safe.
	copied, err := Select(modules, dest, []string{"auth/**", "auth/router.js"})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if copied != 2 {
		t.Errorf("expected 2 copies counted, got %d", copied)
	}

	data, _ := os.ReadFile(filepath.Join(dest, "auth", "router.js"))
	if string(data) != "router\n" {
		t.Error("overlapping copy corrupted the file")
	}
}
