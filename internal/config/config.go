package config

import (
	"os"
	"path/filepath"
	"time"
)

type WatchConfig struct {
	Enabled        bool
	DebounceWindow time.Duration
	MaxBatchSize   int
	IgnorePatterns []string
}

type Config struct {
	TemplateRoot  string
	ModulesRoot   string
	RegistryPath  string
	ModuleDestDir string

	CopyExclusions []string
	ReservedFiles  []string

	HistoryDBPath string
	SocketPath    string
	LogLevel      string
	Watch         WatchConfig
}

func Load() *Config {
	homeDir, _ := os.UserHomeDir()
	stencilDir := filepath.Join(homeDir, ".stencil")

	return &Config{
		ModuleDestDir: filepath.Join("src", "modules"),
		CopyExclusions: []string{
			"node_modules",
			".git",
			"dist",
			"coverage",
		},
		ReservedFiles: []string{
			".env.example",
		},
		HistoryDBPath: filepath.Join(stencilDir, "history.db"),
		SocketPath:    filepath.Join(stencilDir, "daemon.sock"),
		LogLevel:      "info",
		Watch: WatchConfig{
			Enabled:        true,
			DebounceWindow: 300 * time.Millisecond,
			MaxBatchSize:   100,
			IgnorePatterns: []string{
				"**/node_modules/**",
				"**/.git/**",
				"**/dist/**",
				"**/*.log",
			},
		},
	}
}

// WithTemplateDir fills the template-derived paths from a single root
// containing base/, modules/ and features.json.
func (c *Config) WithTemplateDir(root string) *Config {
	c.TemplateRoot = filepath.Join(root, "base")
	c.ModulesRoot = filepath.Join(root, "modules")
	c.RegistryPath = filepath.Join(root, "features.json")
	return c
}

func (c *Config) EnsureDirectories() error {
	homeDir, _ := os.UserHomeDir()
	return os.MkdirAll(filepath.Join(homeDir, ".stencil"), 0700)
}
