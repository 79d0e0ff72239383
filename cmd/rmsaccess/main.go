package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rms-platform/rms-access/internal/access"
	"github.com/rms-platform/rms-access/internal/app"
	"github.com/rms-platform/rms-access/internal/audit"
	audithttp "github.com/rms-platform/rms-access/internal/audit/http"
	"github.com/rms-platform/rms-access/internal/auth"
	"github.com/rms-platform/rms-access/internal/observability"
	"github.com/rms-platform/rms-access/internal/platform/cache"
	"github.com/rms-platform/rms-access/internal/platform/db"
	"github.com/rms-platform/rms-access/internal/rbac"
	"github.com/rms-platform/rms-access/internal/shared"
	"github.com/rms-platform/rms-access/internal/view"
	"github.com/rms-platform/rms-access/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := rbac.ValidateCatalog(); err != nil {
		logger.Error("validate permission catalog", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "rms_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := cfg.Redis().Asynq()

	var auditPublisher auth.AuditPublisher
	if cfg.AuditEnabled {
		jobClient, err := jobs.NewClient(redisOpts)
		if err != nil {
			logger.Warn("session audit disabled", slog.Any("error", err))
		} else {
			auditPublisher = jobClient
			defer func() {
				if err := jobClient.Close(); err != nil {
					logger.Warn("job client close", slog.Any("error", err))
				}
			}()
		}
	}

	backend := auth.NewBackendClient(cfg.BackendURL, cfg.BackendTimeout)
	authService := auth.NewService(backend, auditPublisher, cfg.SessionTTL)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	metrics := observability.NewMetrics()
	rbacMiddleware := rbac.Middleware{Logger: logger, Recorder: metrics}
	accessHandler := access.NewHandler(logger, templates, csrfManager, rbacMiddleware)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	var auditHandler *audithttp.Handler
	if cfg.AuditEnabled {
		pool, err := db.New(ctx, cfg.Postgres("rms-access"))
		if err != nil {
			logger.Warn("session audit timeline disabled", slog.Any("error", err))
		} else {
			defer pool.Close()
			auditHandler = audithttp.NewHandler(logger, audit.NewService(audit.NewRepository(pool)), rbacMiddleware)
		}
	}

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Templates:      templates,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		AccessHandler:  accessHandler,
		JobHandler:     jobHandler,
		AuditHandler:   auditHandler,
		RBAC:           rbacMiddleware,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.BackendURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
