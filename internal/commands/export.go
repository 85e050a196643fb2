package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/store"
)

func newExportCommand() *cobra.Command {
	var configPath, email, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's ledger as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer st.Close()

			return runExport(st, email, output)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "tally.yaml", "path to tally.yaml")
	cmd.Flags().StringVar(&email, "email", "", "user's email (required)")
	_ = cmd.MarkFlagRequired("email")
	cmd.Flags().StringVarP(&output, "output", "o", store.BackupFilename, "output file")

	return cmd
}

func runExport(st *store.Store, email, output string) error {
	user, err := st.UserByEmail(email)
	if err != nil {
		return fmt.Errorf("looking up user %s: %w", email, err)
	}

	doc, err := st.Export(user.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Printf("Exported %d accounts and %d transactions to %s\n", len(doc.Accounts), len(doc.Transactions), output)
	return nil
}
