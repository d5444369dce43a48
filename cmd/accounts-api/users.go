package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/upb/accounts-api/internal/auth"
	"github.com/upb/accounts-api/models"
	"github.com/upb/accounts-api/repositories/postgres"
	"github.com/upb/accounts-api/services"
	"github.com/upb/accounts-api/services/audit"
	"go.uber.org/zap"
)

// cliActor is recorded as the actor of changes made from the command line.
const cliActor = "cli"

type roleUpdater interface {
	UpdateUserRole(ctx context.Context, id, role string, meta models.RequestMeta) (*models.User, error)
}

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users directly in the database",
	}
	cmd.AddCommand(setRoleCmd())
	return cmd
}

func setRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <user-id> <user|admin>",
		Short: "Assign a role to a user",
		Long: `Assigns a role without going through the HTTP API. Use it to promote
the first administrator.`,
		Args: cobra.ExactArgs(2),
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

			repos := factory.NewRepositories()
			auditService := audit.NewAuditService(repos.AuditLogs, logger, audit.Config{BufferSize: 1, WorkerCount: 1})
			if err := auditService.Start(); err != nil {
				return err
			}
			defer func() {
				if err := auditService.Stop(5 * time.Second); err != nil {
					logger.Warn("audit service did not drain", zap.Error(err))
				}
			}()

			admin := services.NewAdminService(repos.Users, auditService, logger)
			return setRole(cmd.Context(), admin, args[0], args[1], cmd.OutOrStdout())
		},
	}
}

func setRole(ctx context.Context, admin roleUpdater, id, role string, out io.Writer) error {
	user, err := admin.UpdateUserRole(ctx, id, role, models.RequestMeta{ActorID: cliActor})
	switch {
	case err == nil:
	case services.IsValidationError(err):
		return fmt.Errorf("invalid role %q: must be one of %s", role, strings.Join(auth.RoleNames, ", "))
	case services.IsNotFoundError(err):
		return fmt.Errorf("user %q not found", id)
	default:
		return err
	}

	fmt.Fprintf(out, "User %s (%s) is now %s\n", user.ID, user.Email, user.Role)
	return nil
}
