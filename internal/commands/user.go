package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/auth"
	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/store"
)

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserAddCommand())
	return cmd
}

func newUserAddCommand() *cobra.Command {
	var configPath, email, password string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a user from the command line",
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

			user, err := auth.NewService(st, cfg.Auth.BcryptCost).CreateUser(email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Created user %d (%s)\n", user.ID, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "tally.yaml", "path to tally.yaml")
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	_ = cmd.MarkFlagRequired("email")
	cmd.Flags().StringVar(&password, "password", "", "password (required)")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
