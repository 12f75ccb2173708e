// Package main provides the entrypoint for the Guardline API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/guardline/guardline/internal/account"
	"github.com/guardline/guardline/internal/api"
	"github.com/guardline/guardline/internal/api/middleware"
	"github.com/guardline/guardline/internal/auth"
	"github.com/guardline/guardline/internal/database"
	"github.com/guardline/guardline/internal/device"
	"github.com/guardline/guardline/internal/dispatch"
	"github.com/guardline/guardline/internal/push"
	"github.com/guardline/guardline/internal/push/expo"
	"github.com/guardline/guardline/internal/push/fcm"
	"github.com/guardline/guardline/internal/sos"
	"github.com/guardline/guardline/internal/telemetry"
	"github.com/guardline/guardline/internal/trust"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "guardline-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Guardline API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize JWT service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "https://api.guardline.io"
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
		Issuer:     jwtIssuer,
		Audience:   serviceName,
	})

	// Initialize account, trust, device and SOS services
	accountService := account.NewService(account.NewPostgresRepository(pool))
	log.Info().Msg("account service initialized")

	trustService := trust.NewService(trust.NewPostgresRepository(pool), accountService)
	log.Info().Msg("trust service initialized")

	deviceRepo := device.NewPostgresRepository(pool)
	deviceService := device.NewService(deviceRepo)
	log.Info().Msg("device service initialized")

	sosRepo := sos.NewPostgresRepository(pool)
	sosService := sos.NewService(sosRepo, trustService)
	log.Info().Msg("sos service initialized")

	// Initialize push transports
	transports := []push.Transport{expo.NewClient()}

	fcmServerKey := os.Getenv("FCM_SERVER_KEY")
	if fcmServerKey != "" {
		transports = append(transports, fcm.NewClient(fcmServerKey))
		log.Info().Msg("FCM transport initialized")
	} else {
		log.Warn().Msg("FCM server key not configured - web push delivery disabled")
	}

	// Initialize the dispatcher with its rate limiter
	limiter := dispatch.NewPostgresRateLimiter(pool, dispatch.DefaultRateConfig())
	dispatcher := dispatch.NewDispatcher(
		sosRepo,
		trustService,
		deviceRepo,
		limiter,
		transports,
		log,
	)
	log.Info().Msg("dispatcher initialized")

	tokenMintEnabled := os.Getenv("AUTH_TOKEN_MINT_ENABLED") == "true" || env == "development"
	if tokenMintEnabled {
		log.Warn().Msg("development token endpoint enabled - not for production use")
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:          Version,
		BuildTime:        BuildTime,
		Logger:           log,
		ServiceName:      serviceName,
		Metrics:          metrics,
		Pool:             pool,
		JWTService:       jwtService,
		AccountService:   accountService,
		TrustService:     trustService,
		DeviceService:    deviceService,
		SOSService:       sosService,
		Dispatcher:       dispatcher,
		TokenMintEnabled: tokenMintEnabled,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
