package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/formula-lab/crm-api/docs"
	"github.com/formula-lab/crm-api/internal/app"
	"github.com/formula-lab/crm-api/internal/auth"
	"github.com/formula-lab/crm-api/internal/config"
	"github.com/formula-lab/crm-api/internal/http/middleware"
	"github.com/formula-lab/crm-api/internal/http/router"
	"github.com/formula-lab/crm-api/internal/jobs"
	"github.com/formula-lab/crm-api/internal/logger"
	"go.uber.org/zap"
)

// @title Formula CRM API
// @version 1.0
// @description Admin backend for contacts, sales requests, customers, cases, orders and conversations

// @contact.name API Support
// @contact.email support@formula-lab.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Basic configuration first, for logging setup
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if host := os.Getenv("SWAGGER_HOST"); host != "" {
		docs.SwaggerInfo.Host = host
	} else {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Secrets come from the environment in development and from Key Vault
	// in staging/production when enabled
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if cfg.Auth.JWTSecret == "" && cfg.Auth.APIKey == "" {
		log.Warn("Neither JWT secret nor API key is configured; every authenticated request will be rejected")
	}

	infra, err := app.Connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close(context.Background(), log)

	svc := app.NewServices(cfg, infra, log)

	authMiddleware := auth.NewMiddleware(&cfg.Auth, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	auditMiddleware := middleware.NewAuditMiddleware(svc.Audit, nil, log)

	rt := router.NewRouter(cfg, log, infra.DB, infra.Mongo, authMiddleware, rateLimiter, auditMiddleware,
		router.NewHandlers(svc, cfg.Storage.MaxUploadSizeMB, log))

	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler, err = newScheduler(cfg, svc, log)
		if err != nil {
			return err
		}
		scheduler.Start()
	} else {
		log.Info("Background jobs disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      http.TimeoutHandler(rt.Setup(), cfg.Server.RequestTimeoutDuration(), "request timed out"),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}
		log.Info("Server stopped gracefully")
	}

	return nil
}

func newScheduler(cfg *config.Config, svc *app.Services, log *zap.Logger) (*jobs.Scheduler, error) {
	scheduler := jobs.NewScheduler(log)
	jc := cfg.Jobs

	if err := jobs.RegisterSyncJob(scheduler, svc.Sync, svc.Settings, log, jc.SyncSchedule, seconds(jc.SyncTimeout)); err != nil {
		return nil, fmt.Errorf("failed to register sync job: %w", err)
	}
	if err := jobs.RegisterReminderJob(scheduler, svc.Reminders, log, jc.ReminderSchedule, seconds(jc.ReminderTimeout)); err != nil {
		return nil, fmt.Errorf("failed to register reminder job: %w", err)
	}
	if err := jobs.RegisterAuditCleanupJob(scheduler, svc.Audit, log, jc.AuditCleanupSchedule, jc.AuditRetentionDays); err != nil {
		return nil, fmt.Errorf("failed to register audit cleanup job: %w", err)
	}
	return scheduler, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
