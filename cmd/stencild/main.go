// stencild runs the composition daemon standalone, without the CLI. It is
// the process a supervisor or editor integration keeps alive.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/stencilworks/stencil/internal/config"
	"github.com/stencilworks/stencil/internal/daemon"
	"github.com/stencilworks/stencil/internal/history"
	"github.com/stencilworks/stencil/internal/logger"
	"github.com/stencilworks/stencil/internal/registry"
)

func main() {
	templateDir := os.Getenv("STENCIL_TEMPLATE_DIR")
	if templateDir == "" {
		templateDir = "templates"
	}

	cfg := config.Load().WithTemplateDir(templateDir)
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("Failed to ensure directories: %v", err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(cfg.LogLevel)
	logger.Init(logCfg)

	pidPath := filepath.Join(filepath.Dir(cfg.SocketPath), "stencild.pid")
	if isAlreadyRunning(pidPath) {
		fmt.Println("Daemon already running")
		os.Exit(0)
	}
	if err := writePIDFile(pidPath); err != nil {
		log.Fatalf("Failed to write PID file: %v", err)
	}
	defer os.Remove(pidPath)

	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		log.Fatalf("Failed to load registry: %v", err)
	}

	store, err := history.Open(cfg.HistoryDBPath)
	if err != nil {
		log.Fatalf("Failed to open history: %v", err)
	}
	defer store.Close()

	d := daemon.New(cfg, reg, store)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		d.Shutdown()
	}()

	if err := d.Start(context.Background()); err != nil {
		log.Fatalf("Daemon failed: %v", err)
	}
}

func isAlreadyRunning(pidPath string) bool {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		os.Remove(pidPath)
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		os.Remove(pidPath)
		return false
	}

	if err := process.Signal(syscall.Signal(0)); err != nil {
		os.Remove(pidPath)
		return false
	}

	return true
}

func writePIDFile(pidPath string) error {
	return os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644)
}
