package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/upb/accounts-api/config"
	"github.com/upb/accounts-api/handlers"
	"github.com/upb/accounts-api/identity"
	"github.com/upb/accounts-api/internal/observability"
	"github.com/upb/accounts-api/middleware"
	"github.com/upb/accounts-api/repositories"
	"github.com/upb/accounts-api/repositories/postgres"
	"github.com/upb/accounts-api/services"
	"github.com/upb/accounts-api/services/audit"
	"go.uber.org/zap"
)

// auditStopTimeout bounds how long Close waits for queued audit events.
const auditStopTimeout = 10 * time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	DB      *postgres.DB
	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users     repositories.UserRepository
	Accounts  repositories.AccountRepository
	Sessions  repositories.SessionRepository
	AuditLogs repositories.AuditRepository
	TxManager repositories.TransactionManager

	// Identity
	Provider identity.Provider
	// AuthProxy forwards /api/auth/* to the identity provider. Nil when
	// sessions are verified locally.
	AuthProxy http.Handler

	// Services
	AuditService *audit.AuditService
	UserService  *services.UserService
	AdminService *services.AdminService

	// HTTP
	Errors         *handlers.ErrorTranslator
	AuthMiddleware *middleware.AuthMiddleware
	UserHandler    *handlers.UserHandler
	AdminHandler   *handlers.AdminHandler
	HealthHandler  *handlers.HealthHandler
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository factory: %w", err)
	}

	if err := factory.GetDB().HealthCheck(ctx); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	provider, err := NewIdentityProvider(cfg.Auth, logger)
	if err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to initialize identity provider: %w", err)
	}

	deps, err := Wire(cfg, factory, provider, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// NewIdentityProvider builds the session provider selected by cfg.Mode.
func NewIdentityProvider(cfg config.AuthConfig, logger *zap.Logger) (identity.Provider, error) {
	switch cfg.Mode {
	case config.AuthModeRemote:
		provider, err := identity.NewRemoteProvider(identity.RemoteConfig{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("resolving sessions remotely", zap.String("base_url", cfg.BaseURL))
		return provider, nil
	case config.AuthModeJWT:
		provider, err := identity.NewJWTProvider(identity.JWTConfig{
			Secret: cfg.JWTSecret,
			Issuer: cfg.JWTIssuer,
		}, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("verifying session tokens locally")
		return provider, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}

// Wire assembles repositories, services and the HTTP layer over an open
// repository factory. It starts the audit workers; Close stops them.
func Wire(cfg *config.Config, factory *postgres.RepositoryFactory, provider identity.Provider, logger *zap.Logger) (*Dependencies, error) {
	d := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
		Provider:    provider,
	}

	d.initRepositories()

	if cfg.Auth.Mode == config.AuthModeRemote {
		proxy, err := identity.NewProxy(cfg.Auth.BaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create auth proxy: %w", err)
		}
		d.AuthProxy = proxy
	}

	if err := d.initServices(); err != nil {
		return nil, err
	}
	d.initHTTP()

	return d, nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Users = repos.Users
	d.Accounts = repos.Accounts
	d.Sessions = repos.Sessions
	d.AuditLogs = repos.AuditLogs
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initServices() error {
	d.AuditService = audit.NewAuditService(d.AuditLogs, d.Logger, audit.Config{
		BufferSize:  d.Config.Audit.BufferSize,
		WorkerCount: d.Config.Audit.WorkerCount,
	})
	if err := d.AuditService.Start(); err != nil {
		return fmt.Errorf("failed to start audit service: %w", err)
	}

	repos := &repositories.Repositories{
		Users:     d.Users,
		Accounts:  d.Accounts,
		Sessions:  d.Sessions,
		AuditLogs: d.AuditLogs,
	}
	d.UserService = services.NewUserService(repos, d.TxManager, d.AuditService, d.Logger)
	d.AdminService = services.NewAdminService(d.Users, d.AuditService, d.Logger)
	return nil
}

func (d *Dependencies) initHTTP() {
	if d.Config.Observability.MetricsEnabled {
		d.Metrics = observability.NewMetrics()
	}

	d.Errors = handlers.NewErrorTranslator(d.Logger, d.Config.IsDevelopment())
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Provider, d.Errors, d.Metrics, d.Logger)
	d.UserHandler = handlers.NewUserHandler(d.UserService, d.Errors, d.Logger)
	d.AdminHandler = handlers.NewAdminHandler(d.AdminService, d.Errors, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.DB.DB, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Drain queued audit events before the pool they write to goes away.
	if d.AuditService != nil {
		timeout := auditStopTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.AuditService.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
