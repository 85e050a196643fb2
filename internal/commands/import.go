package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/importer"
	"github.com/tally-dev/tally/internal/store"
)

func newImportCommand() *cobra.Command {
	var configPath, email string
	var accountID int

	cmd := &cobra.Command{
		Use:   "import file.csv",
		Short: "Import transactions from a CSV file",
		Args:  cobra.ExactArgs(1),
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

			return runImport(st, args[0], email, accountID)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "tally.yaml", "path to tally.yaml")
	cmd.Flags().StringVar(&email, "email", "", "owning user's email (required)")
	_ = cmd.MarkFlagRequired("email")
	cmd.Flags().IntVar(&accountID, "account", 0, "target account id (required)")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func runImport(st *store.Store, path, email string, accountID int) error {
	user, err := st.UserByEmail(email)
	if err != nil {
		return fmt.Errorf("looking up user %s: %w", email, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening CSV: %w", err)
	}
	defer f.Close()

	records, err := importer.Parse(f)
	if err != nil {
		return err
	}

	created, err := importer.NewImporter(st).Import(user.ID, accountID, records)
	if err != nil {
		return fmt.Errorf("after %d rows: %w", len(created), err)
	}
	fmt.Printf("Imported %d transactions into account %d\n", len(created), accountID)
	return nil
}
