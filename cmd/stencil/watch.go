package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stencilworks/stencil/internal/compose"
	"github.com/stencilworks/stencil/internal/registry"
	"github.com/stencilworks/stencil/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var flagFeatures []string

	cmd := &cobra.Command{
		Use:   "watch <target>",
		Short: "Recompose a target whenever the template changes",
		Long: "Watches the template and modules trees and recomposes the target\n" +
			"directory on every change. Intended for template authors.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]
			cfg := loadConfig()

			reg, err := registry.Load(cfg.RegistryPath)
			if err != nil {
				return err
			}

			opts := compose.Options{
				TemplateRoot:  cfg.TemplateRoot,
				ModulesRoot:   cfg.ModulesRoot,
				TargetDir:     target,
				ModuleDestDir: cfg.ModuleDestDir,
				Exclude:       cfg.CopyExclusions,
				ReservedFiles: cfg.ReservedFiles,
				AllowExisting: true,
			}
			sel := compose.Selection{Features: flagFeatures}

			runOnce := func() {
				if _, err := compose.New(reg, opts).Run(sel); err != nil {
					fmt.Fprintln(os.Stderr, "recompose failed:", err)
				}
			}
			runOnce()

			watcher, err := watch.New(cfg.Watch, func([]string) { runOnce() })
			if err != nil {
				return err
			}
			defer watcher.Stop()

			if err := watcher.AddRoot(cfg.TemplateRoot); err != nil {
				return err
			}
			if _, err := os.Stat(cfg.ModulesRoot); err == nil {
				if err := watcher.AddRoot(cfg.ModulesRoot); err != nil {
					return err
				}
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if err := watcher.Start(ctx); err != nil {
				return err
			}

			fmt.Printf("Watching %s → %s (ctrl+c to stop)\n", flagTemplateDir, target)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&flagFeatures, "features", nil,
		"feature keys to apply on every recompose")
	return cmd
}
