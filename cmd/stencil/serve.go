package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stencilworks/stencil/internal/daemon"
	"github.com/stencilworks/stencil/internal/history"
	"github.com/stencilworks/stencil/internal/registry"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the composition engine over a unix socket (JSON-RPC)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			reg, err := registry.Load(cfg.RegistryPath)
			if err != nil {
				return err
			}

			store, err := history.Open(cfg.HistoryDBPath)
			if err != nil {
				return fmt.Errorf("failed to open history: %w", err)
			}
			defer store.Close()

			d := daemon.New(cfg, reg, store)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				d.Shutdown()
			}()

			return d.Start(cmd.Context())
		},
	}
}
