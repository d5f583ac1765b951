package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthcare/admin-dashboard/internal/config"
	"github.com/healthcare/admin-dashboard/internal/domain/cards"
	"github.com/healthcare/admin-dashboard/internal/domain/dashboard"
	"github.com/healthcare/admin-dashboard/internal/domain/insurance"
	"github.com/healthcare/admin-dashboard/internal/domain/orders"
	"github.com/healthcare/admin-dashboard/internal/domain/users"
	"github.com/healthcare/admin-dashboard/internal/platform/apiclient"
	"github.com/healthcare/admin-dashboard/internal/platform/auth"
	"github.com/healthcare/admin-dashboard/internal/platform/middleware"
	"github.com/healthcare/admin-dashboard/internal/platform/session"
	"github.com/healthcare/admin-dashboard/internal/platform/sessionstore"
	"github.com/healthcare/admin-dashboard/internal/platform/telemetry"
	"github.com/healthcare/admin-dashboard/internal/platform/web"
)

const serviceName = "admin-dashboard"

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "" || os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()

	// Tracing
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    cfg.Env,
		TracingEnabled: cfg.TracingEnabled,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampleRate,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up tracing")
	}

	// Session store
	store, err := sessionstore.Open(ctx, sessionstore.Options{
		Kind:        cfg.SessionStore,
		RedisURL:    cfg.RedisURL,
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.SessionStore).Msg("failed to open session store")
	}
	defer store.Close()
	logger.Info().Str("store", cfg.SessionStore).Msg("session store ready")

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	sessionstore.StartJanitor(janitorCtx, store, cfg.SessionPurgeInterval, logger)

	e, err := newServer(cfg, logger, store)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("api", cfg.APIBaseURL).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("tracer shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer builds the echo instance with every middleware and route
// mounted. It performs no network calls.
func newServer(cfg *config.Config, logger zerolog.Logger, store sessionstore.Store) (*echo.Echo, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = web.ErrorHandler(logger)

	api := apiclient.New(apiclient.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
	}, logger)
	sessions := session.NewManager(store, api, session.Options{
		TTL:          cfg.SessionTTL,
		CookieSecure: cfg.CookieSecure,
	}, logger)

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.Metrics())
	e.Use(telemetry.Middleware(serviceName))
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.MaxUploadSize))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(sessions.Middleware())
	e.Use(session.RequireAuth())

	// Public endpoints
	e.StaticFS("/static", web.StaticFS())
	e.GET("/health", sessionstore.HealthHandler(store, cfg.SessionStore))
	e.GET("/metrics", telemetry.MetricsHandler())

	throttle := middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.LoginRateRPS,
		BurstSize:         cfg.LoginRateBurst,
	})
	auth.NewHandler(sessions, logger).RegisterRoutes(e, throttle)

	// Admin pages
	g := e.Group("")

	userSvc := users.NewService(users.NewAPIRepo(api))
	insuranceSvc := insurance.NewService(insurance.NewAPIRepo(api))
	orderSvc := orders.NewService(orders.NewAPIRepo(api))
	cardSvc := cards.NewService(cards.NewAPIRepo(api))

	dashboard.NewHandler(dashboard.NewService(userSvc, insuranceSvc, orderSvc), logger).RegisterRoutes(g)
	users.NewHandler(userSvc, logger).RegisterRoutes(g)
	insurance.NewHandler(insuranceSvc, logger).RegisterRoutes(g)
	orders.NewHandler(orderSvc, logger).RegisterRoutes(g)
	cards.NewHandler(cardSvc).RegisterRoutes(g)

	return e, nil
}
