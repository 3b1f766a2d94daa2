package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stencilworks/stencil/internal/compose"
	"github.com/stencilworks/stencil/internal/history"
	"github.com/stencilworks/stencil/internal/registry"
	"github.com/stencilworks/stencil/internal/tui"
)

func newNewCmd() *cobra.Command {
	var (
		flagFeatures  []string
		flagVars      []string
		flagInstall   bool
		flagInstaller string
	)

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Scaffold a new project (use \".\" for the current directory)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			cfg := loadConfig()

			reg, err := registry.Load(cfg.RegistryPath)
			if err != nil {
				return err
			}

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			target, err := compose.ResolveTarget(cwd, cfg.TemplateRoot, name)
			if err != nil {
				return err
			}

			selected := flagFeatures
			if !cmd.Flags().Changed("features") {
				selected, err = tui.PickFeatures(reg.List())
				if err != nil {
					return err
				}
			}

			project := name
			if name == compose.CurrentDir {
				project = filepath.Base(target)
			}

			vars, err := parseVars(flagVars)
			if err != nil {
				return err
			}
			if _, ok := vars["PROJECT_NAME"]; !ok {
				vars["PROJECT_NAME"] = project
			}

			opts := compose.Options{
				TemplateRoot:  cfg.TemplateRoot,
				ModulesRoot:   cfg.ModulesRoot,
				TargetDir:     target,
				ModuleDestDir: cfg.ModuleDestDir,
				Variables:     vars,
				Exclude:       cfg.CopyExclusions,
				ReservedFiles: cfg.ReservedFiles,
				AllowExisting: name == compose.CurrentDir,
			}

			started := time.Now()
			res, runErr := compose.New(reg, opts).Run(compose.Selection{
				Features:  selected,
				Install:   flagInstall,
				Installer: flagInstaller,
			})

			recordRun(cfg.HistoryDBPath, project, target, selected, started, res, runErr)
			if runErr != nil {
				return runErr
			}

			fmt.Printf("Created %s (%d files, %d injections, %v)\n",
				target, res.FilesCopied+res.ModuleFiles, res.InjectionsApplied, res.Duration.Round(time.Millisecond))

			if flagInstall {
				return runInstaller(flagInstaller, target)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&flagFeatures, "features", nil,
		"feature keys to apply, in order (skips the interactive picker)")
	cmd.Flags().StringArrayVar(&flagVars, "var", nil,
		"template variable as KEY=value (repeatable)")
	cmd.Flags().BoolVar(&flagInstall, "install", false,
		"run the package manager after scaffolding")
	cmd.Flags().StringVar(&flagInstaller, "installer", "npm",
		"package manager to use with --install")

	return cmd
}

func parseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --var %q, expected KEY=value", pair)
		}
		vars[key] = value
	}
	return vars, nil
}

func recordRun(dbPath, project, target string, features []string, started time.Time, res *compose.Result, runErr error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return
	}
	store, err := history.Open(dbPath)
	if err != nil {
		return
	}
	defer store.Close()

	run := history.Run{
		Project:   project,
		Target:    target,
		Features:  features,
		Status:    history.StatusOK,
		StartedAt: started,
	}
	if runErr != nil {
		run.Status = history.StatusFailed
		run.Error = runErr.Error()
	} else {
		run.FilesCopied = res.FilesCopied
		run.InjectionsApplied = res.InjectionsApplied
		run.DurationMS = res.Duration.Milliseconds()
	}
	store.Record(run)
}

func runInstaller(installer, target string) error {
	fmt.Printf("Running %s install…\n", installer)
	install := exec.Command(installer, "install")
	install.Dir = target
	install.Stdout = os.Stdout
	install.Stderr = os.Stderr
	if err := install.Run(); err != nil {
		return fmt.Errorf("%s install failed: %w", installer, err)
	}
	return nil
}
