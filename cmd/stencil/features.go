package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stencilworks/stencil/internal/registry"
)

func newFeaturesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "List the features available in the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			reg, err := registry.Load(cfg.RegistryPath)
			if err != nil {
				return err
			}

			for _, feat := range reg.List() {
				name := feat.Name
				if name == "" {
					name = feat.Key
				}
				fmt.Printf("%-16s %s", feat.Key, name)
				if feat.Description != "" {
					fmt.Printf(" - %s", feat.Description)
				}
				fmt.Println()
			}
			return nil
		},
	}
}
