package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/expense_approval_app/internal/adapters/notify"
	"github.com/SscSPs/expense_approval_app/internal/adapters/rates"
	"github.com/SscSPs/expense_approval_app/internal/core/services"
	"github.com/SscSPs/expense_approval_app/internal/handlers"
	"github.com/SscSPs/expense_approval_app/internal/middleware"
	"github.com/SscSPs/expense_approval_app/internal/platform/config"
	"github.com/SscSPs/expense_approval_app/internal/platform/tracing"
	"github.com/SscSPs/expense_approval_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/expense_approval_app/internal/utils"
	"github.com/SscSPs/expense_approval_app/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

const (
	serviceName     = "expense-approval-app"
	shutdownTimeout = 15 * time.Second
)

// @title Expense Approval API
// @version 1.0
// @description Expense reimbursement with multi-level, rule driven approvals.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("Server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(cfg.TracingEnabled, serviceName, nil)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("Failed to flush traces", slog.String("error", err.Error()))
		}
	}()

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck, logger)
	if err != nil {
		return err
	}
	defer database.ClosePgxPool(dbPool, logger)

	if err := runMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		return err
	}

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, cfg.PosthogEndpoint, logger)
	defer posthogClient.Close()

	repos := pgsql.NewRepositoryProvider(dbPool)

	sinks := []notify.Sink{
		notify.NewInAppSink(repos.NotificationRepo),
		notify.NewAnalyticsSink(posthogClient),
	}
	if cfg.SMTPHost != "" {
		sinks = append(sinks, notify.NewEmailSink(notify.SMTPConfig{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			Username:    cfg.SMTPUsername,
			Password:    cfg.SMTPPassword,
			From:        cfg.EmailFrom,
			LinkBaseURL: cfg.FrontendBaseURL,
		}, repos.UserRepo, nil))
	} else {
		logger.Info("SMTP_HOST not set, email notifications disabled")
	}
	dispatcher := notify.NewDispatcher(logger, notify.Options{
		QueueSize: cfg.NotifyQueueSize,
		Workers:   cfg.NotifyWorkers,
	}, sinks...)
	// closed before the pool so queued in-app notifications still reach the database
	defer dispatcher.Close()

	container := services.NewServiceContainer(cfg, repos, services.Dependencies{
		RateProvider: rates.NewHTTPProvider(cfg.ExchangeRateAPIURL, rates.WithCacheTTL(cfg.ExchangeRateCacheTTL)),
		Notifier:     dispatcher,
		Events:       posthogClient,
	})

	var rateLimiter *limiter.Limiter
	if cfg.RateLimit != "" {
		rateLimiter, err = middleware.NewLimiter(cfg.RateLimit)
		if err != nil {
			return err
		}
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		cors.New(corsConfig(cfg)),
		middleware.PosthogMiddleware(posthogClient),
	)
	if err := r.SetTrustedProxies(nil); err != nil {
		return err
	}

	handlers.RegisterRoutes(r, cfg, container, rateLimiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		c.AllowOrigins = []string{"http://localhost:3000"}
	} else {
		c.AllowOrigins = cfg.CORSAllowedOrigins
	}
	return c
}
