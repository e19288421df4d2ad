package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/config"
	"github.com/cleared-dev/teller/internal/gitops"
	"github.com/cleared-dev/teller/internal/store"
)

// Directories created in a new workspace.
var workspaceDirs = []string{
	store.DataDir,
	"logs",
	"import",
	filepath.Join("import", "processed"),
}

func newInitCommand(a *app) *cobra.Command {
	var bankName string
	var sample bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new teller workspace",
		Long: "Initialize a new teller workspace. The directory defaults to --home.\n" +
			"With --sample three demo accounts are opened.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.home()
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, a, absDir, bankName, sample)
		},
	}

	cmd.Flags().StringVar(&bankName, "name", "Teller Bank", "bank name printed on statements")
	cmd.Flags().BoolVar(&sample, "sample", false, "open the demo accounts")

	return cmd
}

func runInit(cmd *cobra.Command, a *app, dir, bankName string, sample bool) error {
	cfgPath := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	for _, d := range workspaceDirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	cfg := config.Default(bankName)
	cfg.Server.JWTSecret = uuid.NewString()
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	ws, err := newWorkspace(dir, cfg, a.logLevel())
	if err != nil {
		return err
	}

	var seeded []string
	if sample {
		if seeded, err = ws.ledger.Seed(); err != nil {
			return err
		}
	}

	if cfg.Git.AutoCommit {
		if gitops.Available() {
			if err := ws.repo().Init(); err != nil {
				return fmt.Errorf("git init: %w", err)
			}
		} else {
			ws.log.Warn("git not found, workspace history disabled")
		}
	}

	if err := ws.finish("init", "", "Initialize "+bankName, nil); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized teller workspace at %s\n", dir)
	for _, n := range seeded {
		fmt.Fprintf(out, "Opened sample account %s\n", n)
	}
	return nil
}
