package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/store"
)

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new tally deployment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runInit(absDir)
		},
	}
}

func runInit(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	cfg := config.Default()
	if err := config.Save(filepath.Join(dir, "tally.yaml"), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Create the database file and schema up front so first run serves
	// requests immediately.
	st, err := store.Open(filepath.Join(dir, cfg.Database.Path))
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	if err := st.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}

	fmt.Printf("Initialized tally deployment at %s\n", dir)
	return nil
}
