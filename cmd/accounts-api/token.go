package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/upb/accounts-api/config"
	"github.com/upb/accounts-api/identity"
	"github.com/upb/accounts-api/internal/auth"
	"go.uber.org/zap"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Session token utilities for AUTH_MODE=jwt",
	}
	cmd.AddCommand(tokenIssueCmd())
	return cmd
}

func tokenIssueCmd() *cobra.Command {
	var (
		principal auth.Principal
		role      string
		ttl       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a session token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			r, ok := auth.LookupRole(role)
			if !ok {
				return fmt.Errorf("unknown role %q", role)
			}
			principal.Role = r
			return issueToken(cfg.Auth, principal, ttl, logger, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&principal.ID, "user", "", "User id (token subject)")
	cmd.Flags().StringVar(&principal.Email, "email", "", "Email claim")
	cmd.Flags().StringVar(&role, "role", "user", "Role claim: user or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func issueToken(cfg config.AuthConfig, principal auth.Principal, ttl time.Duration, logger *zap.Logger, out io.Writer) error {
	if cfg.Mode != config.AuthModeJWT {
		return fmt.Errorf("tokens are only accepted with AUTH_MODE=%s", config.AuthModeJWT)
	}

	provider, err := identity.NewJWTProvider(identity.JWTConfig{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
	}, logger)
	if err != nil {
		return err
	}

	token, err := provider.Issue(principal, ttl)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	fmt.Fprintln(out, token)
	return nil
}
