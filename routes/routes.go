package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/upb/accounts-api/app"
	_ "github.com/upb/accounts-api/docs"
	"github.com/upb/accounts-api/internal/auth"
	"github.com/upb/accounts-api/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	cfg := deps.Config

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}

	r.Use(middleware.SecurityHeaders(cfg.IsDevelopment()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Cookie"},
		ExposedHeaders:   []string{"Link", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window, deps.Errors))

	// Public endpoints
	r.Get("/status", deps.HealthHandler.HandleStatus)
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api", func(r chi.Router) {
		// Sign-in, sign-out and session endpoints belong to the identity
		// provider. Without a remote provider they are simply not found.
		if deps.AuthProxy != nil {
			r.Handle("/auth/*", deps.AuthProxy)
		}

		r.Route("/admin", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.Require(auth.RequireAdmin))
			r.Get("/users", deps.AdminHandler.HandleListUsers)
			r.Patch("/users/{id}/role", deps.AdminHandler.HandleUpdateUserRole)
			r.Get("/stats", deps.AdminHandler.HandleStats)
		})

		r.Route("/users", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(deps.AuthMiddleware.Require(auth.RequireUser))
				r.Get("/", deps.UserHandler.HandleList)
				r.Get("/me/auth-methods", deps.UserHandler.HandleAuthMethods)
				r.Get("/{id}", deps.UserHandler.HandleGet)
			})

			r.Group(func(r chi.Router) {
				r.Use(deps.AuthMiddleware.Require(auth.RequireAdmin))
				r.Post("/", deps.UserHandler.HandleCreate)
				r.Patch("/{id}", deps.UserHandler.HandleUpdate)
				r.Delete("/{id}", deps.UserHandler.HandleDelete)
			})
		})
	})

	r.NotFound(deps.Errors.NotFound)
	r.MethodNotAllowed(deps.Errors.MethodNotAllowed)

	return r
}
