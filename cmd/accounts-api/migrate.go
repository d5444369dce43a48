package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/upb/accounts-api/repositories/postgres"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		Long: `Creates the users, sessions, accounts, verifications and audit_logs
tables and their indexes. Safe to run repeatedly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			factory, err := postgres.NewRepositoryFactory(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer factory.Close()

			if err := factory.InitSchema(cmd.Context()); err != nil {
				return fmt.Errorf("failed to initialize schema: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}
