package commands

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/auth"
	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/server"
	"github.com/tally-dev/tally/internal/session"
	"github.com/tally-dev/tally/internal/store"
)

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "tally.yaml", "path to tally.yaml")

	return cmd
}

func runServe(cfg *config.Config) error {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	authSvc := auth.NewService(st, cfg.Auth.BcryptCost)
	sessions := session.NewManager(time.Duration(cfg.Auth.SessionTTLMinutes) * time.Minute)
	srv := server.New(st, authSvc, sessions)

	log.Printf("Serving on %s (database %s)", cfg.Server.Addr, cfg.Database.Path)
	if err := http.ListenAndServe(cfg.Server.Addr, srv.Router()); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
