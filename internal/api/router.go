// Package api provides the HTTP API for Guardline.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/guardline/guardline/internal/account"
	"github.com/guardline/guardline/internal/api/handler"
	"github.com/guardline/guardline/internal/api/middleware"
	"github.com/guardline/guardline/internal/auth"
	"github.com/guardline/guardline/internal/device"
	"github.com/guardline/guardline/internal/dispatch"
	"github.com/guardline/guardline/internal/sos"
	"github.com/guardline/guardline/internal/trust"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger

	ServiceName string
	Metrics     *middleware.Metrics

	// Pool is used for readiness checks. May be nil in local development.
	Pool *pgxpool.Pool

	JWTService     *auth.JWTService
	AccountService *account.Service
	TrustService   *trust.Service
	DeviceService  *device.Service
	SOSService     *sos.Service
	Dispatcher     *dispatch.Dispatcher

	// TokenMintEnabled exposes the development token endpoint.
	TokenMintEnabled bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "guardline-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Pool)
	authHandler := handler.NewAuthHandler(cfg.AccountService, cfg.JWTService, cfg.TokenMintEnabled)
	meHandler := handler.NewMeHandler(cfg.AccountService)
	trustHandler := handler.NewTrustHandler(cfg.TrustService)
	deviceHandler := handler.NewDeviceHandler(cfg.DeviceService)
	sosHandler := handler.NewSOSHandler(cfg.SOSService, cfg.Dispatcher)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.JWTService)

	// Create rate limit middleware for different endpoint categories
	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit) // 10 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Auth endpoints (public) - strict rate limiting
		r.Route("/auth", func(r chi.Router) {
			r.Use(authRateLimit) // 10 requests per minute per IP
			r.Post("/token", authHandler.MintToken)
		})

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Me endpoints (authenticated) - account-based rate limiting
		r.Route("/me", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByAccount(middleware.StandardRateLimit)) // 100 req/min per account
			r.Get("/", meHandler.GetMe)
			r.Put("/phone", meHandler.ClaimPhone)

			// Trust graph
			r.Route("/trusted", func(r chi.Router) {
				r.Get("/", trustHandler.ListOutgoing)
				r.Post("/", trustHandler.Request)
				r.Get("/incoming", trustHandler.ListIncoming)
				r.Delete("/incoming/{ownerId}", trustHandler.RemoveIncoming)
				r.Post("/{ownerId}/respond", trustHandler.Respond)
				r.Delete("/{contactId}", trustHandler.Remove)
			})

			// Devices
			r.Route("/devices", func(r chi.Router) {
				r.Get("/", deviceHandler.ListDevices)
				r.Post("/", deviceHandler.RegisterDevice)
				r.Delete("/{deviceId}", deviceHandler.UnregisterDevice)
			})
		})

		// SOS endpoints (authenticated). The dispatcher applies its own
		// per-sender dispatch limit on top of the HTTP rate limit.
		r.Route("/sos/events", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByAccount(middleware.SOSRateLimit))
			r.Post("/", sosHandler.CreateEvent)
			r.Get("/{eventId}", sosHandler.GetEvent)
			r.Post("/{eventId}/dispatch", sosHandler.DispatchEvent)
		})
	})

	return r
}
