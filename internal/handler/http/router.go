package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/IdentityGo/pkg/health"
	"github.com/utafrali/IdentityGo/pkg/middleware"

	"github.com/utafrali/IdentityGo/internal/service"
)

// NewRouter creates a chi router with all identity service routes registered.
func NewRouter(
	identityService *service.IdentityService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig CORSConfig,
	refreshMaxAge time.Duration,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("identity"))

	// Operational endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Public credential endpoints
	authHandler := NewAuthHandler(identityService, logger, refreshMaxAge)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
	})

	// Bridge the auth middleware to the service's full verification,
	// including the password-change cross-check.
	tokenValidator := func(ctx context.Context, token string) (*middleware.Claims, error) {
		claims, err := identityService.Authenticate(ctx, token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID:    claims.Subject,
			EmailHash: claims.EmailHash,
		}, nil
	}

	// Authenticated profile endpoints
	userHandler := NewUserHandler(identityService)
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))

		r.Get("/me", userHandler.Me)
		r.Patch("/me", userHandler.PatchMe)

		r.Post("/me/addresses", userHandler.AddAddress)
		r.Put("/me/addresses/{id}", userHandler.UpdateAddress)
		r.Delete("/me/addresses/{id}", userHandler.DeleteAddress)
	})

	return r
}
