package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/upb/accounts-api/config"
	"github.com/upb/accounts-api/internal/observability"
	"go.uber.org/zap"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "accounts-api",
		Short: "User administration API with role based access control",
		Long: `accounts-api serves the user administration API. Every request is
authorized against the session resolved by the identity provider before
it reaches a handler.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running without a subcommand starts the server.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		usersCmd(),
		tokenCmd(),
		versionCmd(),
	)

	return rootCmd
}

// bootstrap loads the configuration and builds the logger every command
// starts from.
func bootstrap(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.New(cmd.Context())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.With(zap.String("environment", cfg.Environment)), nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "accounts-api %s (%s)\n", version, commit)
		},
	}
}
