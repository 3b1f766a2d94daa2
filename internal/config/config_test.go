package config

import (
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ModuleDestDir != filepath.Join("src", "modules") {
		t.Errorf("unexpected module destination %q", cfg.ModuleDestDir)
	}

	wantExcluded := map[string]bool{"node_modules": true, ".git": true, "dist": true, "coverage": true}
	for _, pattern := range cfg.CopyExclusions {
		if !wantExcluded[pattern] {
			t.Errorf("unexpected exclusion %q", pattern)
		}
		delete(wantExcluded, pattern)
	}
	if len(wantExcluded) != 0 {
		t.Errorf("missing exclusions: %v", wantExcluded)
	}

	if len(cfg.ReservedFiles) != 1 || cfg.ReservedFiles[0] != ".env.example" {
		t.Errorf("unexpected reserved files: %v", cfg.ReservedFiles)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("unexpected log level %q", cfg.LogLevel)
	}
	if !cfg.Watch.Enabled || cfg.Watch.DebounceWindow <= 0 || cfg.Watch.MaxBatchSize <= 0 {
		t.Errorf("watch defaults not set: %+v", cfg.Watch)
	}
}

func TestWithTemplateDir(t *testing.T) {
	cfg := Load().WithTemplateDir("/opt/templates/express")

	if cfg.TemplateRoot != filepath.Join("/opt/templates/express", "base") {
		t.Errorf("unexpected template root %q", cfg.TemplateRoot)
	}
	if cfg.ModulesRoot != filepath.Join("/opt/templates/express", "modules") {
		t.Errorf("unexpected modules root %q", cfg.ModulesRoot)
	}
	if cfg.RegistryPath != filepath.Join("/opt/templates/express", "features.json") {
		t.Errorf("unexpected registry path %q", cfg.RegistryPath)
	}
}
