package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/qfin/qfin-backend/internal/amqp"
	"github.com/dafibh/qfin/qfin-backend/internal/config"
	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/handler"
	"github.com/dafibh/qfin/qfin-backend/internal/lock"
	"github.com/dafibh/qfin/qfin-backend/internal/middleware"
	"github.com/dafibh/qfin/qfin-backend/internal/repository/postgres"
	"github.com/dafibh/qfin/qfin-backend/internal/repository/storage"
	"github.com/dafibh/qfin/qfin-backend/internal/service"
	"github.com/dafibh/qfin/qfin-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Apply schema migrations before serving
	if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	ownerRepo := postgres.NewOwnerRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	financingRepo := postgres.NewFinancingRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	goalRepo := postgres.NewGoalRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)

	// Event fan-out: WebSocket hub, plus the broker when configured
	hub := websocket.NewHub()
	publishers := websocket.MultiPublisher{hub}
	var eventPublisher *amqp.Publisher
	if cfg.AMQP.Enabled() {
		eventPublisher, err = amqp.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to message broker")
		}
		publishers = append(publishers, eventPublisher)
		log.Info().Str("exchange", cfg.AMQP.Exchange).Msg("Publishing domain events to broker")
	}

	// Initialize services. Financing updates and payments share one lock per financing.
	financingLocks := lock.NewKeyedMutex[int32]()
	authService := service.NewAuthService(ownerRepo)
	financingService := service.NewFinancingService(financingRepo, financingLocks)
	paymentService := service.NewPaymentService(financingRepo, paymentRepo, financingLocks)
	goalService := service.NewGoalService(goalRepo)
	transactionService := service.NewTransactionService(transactionRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	reportService := service.NewReportService(transactionRepo, financingRepo, goalRepo)

	financingService.SetEventPublisher(publishers)
	paymentService.SetEventPublisher(publishers)
	goalService.SetEventPublisher(publishers)
	transactionService.SetEventPublisher(publishers)
	categoryService.SetEventPublisher(publishers)

	// Export archive, only with object storage configured
	var exportStore domain.ExportStore
	if cfg.S3.Enabled() {
		s3Store, err := storage.NewS3ExportStore(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize export storage")
		}
		exportStore = s3Store
	}
	archiveService := service.NewArchiveService(reportService, exportStore, cfg.Archive.URLExpiry)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	var archiveJob *service.ArchiveJob
	if cfg.Archive.Enabled {
		archiveJob, err = service.NewArchiveJob(archiveService, ownerRepo, log.Logger, cfg.Archive.Schedule)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create archive job")
		}
		if err := archiveJob.Start(jobCtx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start archive job")
		}
	}

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, authService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}
	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience, authService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create WebSocket token validator")
	}
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Initialize handlers
	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Financing:   handler.NewFinancingHandler(financingService),
		Payment:     handler.NewPaymentHandler(paymentService),
		Goal:        handler.NewGoalHandler(goalService),
		Transaction: handler.NewTransactionHandler(transactionService),
		Category:    handler.NewCategoryHandler(categoryService),
		Report:      handler.NewReportHandler(reportService, archiveService),
		WebSocket:   handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins),
		Health:      handler.NewHealthHandler(pool, hub),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders:    []string{echo.HeaderContentDisposition, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Register routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, handlers)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	cancelJobs()
	if archiveJob != nil {
		archiveJob.Stop()
	}
	hub.Shutdown()
	rateLimiter.Stop()
	if eventPublisher != nil {
		if err := eventPublisher.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close broker connection")
		}
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			event := log.Info()
			if res.Status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Int32("owner_id", middleware.GetOwnerID(c)).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
