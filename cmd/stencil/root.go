package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/stencilworks/stencil/internal/config"
	"github.com/stencilworks/stencil/internal/logger"
)

var (
	flagTemplateDir string
	flagLogLevel    string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stencil",
		Short:         "Compose project trees from a base template and feature modules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := logger.DefaultConfig()
			cfg.Level = logger.ParseLevel(flagLogLevel)
			logger.Init(cfg)
		},
	}

	root.PersistentFlags().StringVar(&flagTemplateDir, "template-dir",
		defaultTemplateDir(), "directory containing base/, modules/ and features.json")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info",
		"log level (debug, info, warn, error)")

	root.AddCommand(newNewCmd())
	root.AddCommand(newFeaturesCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newServeCmd())

	return root
}

func defaultTemplateDir() string {
	if dir := os.Getenv("STENCIL_TEMPLATE_DIR"); dir != "" {
		return dir
	}
	return "templates"
}

func loadConfig() *config.Config {
	return config.Load().WithTemplateDir(flagTemplateDir)
}
