package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stencilworks/stencil/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var flagLimit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent composition runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			store, err := history.Open(cfg.HistoryDBPath)
			if err != nil {
				return fmt.Errorf("failed to open history: %w", err)
			}
			defer store.Close()

			runs, err := store.Recent(flagLimit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded yet.")
				return nil
			}

			for _, run := range runs {
				status := run.Status
				if run.Status == history.StatusFailed {
					status = fmt.Sprintf("failed (%s)", run.Error)
				}
				fmt.Printf("#%d  %s  %s  [%s]  %s  %dms\n",
					run.ID,
					run.StartedAt.Local().Format(time.DateTime),
					run.Project,
					strings.Join(run.Features, ","),
					status,
					run.DurationMS)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&flagLimit, "limit", 20, "number of runs to show")
	return cmd
}
