package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/dentalops/clinic-platform/internal/api/router"
	"github.com/dentalops/clinic-platform/internal/booking"
	"github.com/dentalops/clinic-platform/internal/catalog"
	"github.com/dentalops/clinic-platform/internal/clinic"
	appconfig "github.com/dentalops/clinic-platform/internal/config"
	"github.com/dentalops/clinic-platform/internal/events"
	"github.com/dentalops/clinic-platform/internal/observability/metrics"
	"github.com/dentalops/clinic-platform/internal/queue"
	"github.com/dentalops/clinic-platform/internal/reporting"
	"github.com/dentalops/clinic-platform/internal/schedule"
	"github.com/dentalops/clinic-platform/internal/survey"
	"github.com/dentalops/clinic-platform/internal/wizard"
	"github.com/dentalops/clinic-platform/pkg/logging"
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// A separate database/sql handle for the library catalog.
	catalogDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open catalog db", "error", err)
		os.Exit(1)
	}
	defer catalogDB.Close()

	// Redis for wizard state and the dashboard cache.
	redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	clinicMetrics := metrics.NewClinicMetrics(prometheus.DefaultRegisterer)
	loc := cfg.Location()

	// Repositories and stores
	scheduleRepo := schedule.NewRepository(pool)
	if err := scheduleRepo.EnsureWeek(ctx); err != nil {
		logger.Error("failed to provision weekly schedule", "error", err)
		os.Exit(1)
	}
	queueRepo := queue.NewRepository(pool)
	bookingRepo := booking.NewRepository(pool)
	surveyRepo := survey.NewRepository(pool)
	clinicStore := clinic.NewStore(pool)
	catalogStore := catalog.NewStore(catalogDB)
	wizardStates := wizard.NewStateStore(redisClient, cfg.WizardTTL, nil)

	// Services
	queueSvc := queue.NewService(scheduleRepo, queueRepo, loc, clinicMetrics, logger)
	wizardSvc := wizard.NewService(
		scheduleRepo, bookingRepo, clinicStore, surveyRepo, wizardStates,
		loc, cfg.BookingWindowDays, clinicMetrics, logger)
	dataSheet := reporting.NewDataSheet(pool, surveyRepo)
	dashboard := reporting.NewDashboardService(
		pool, redisClient, prometheus.DefaultGatherer,
		cfg.DashboardCacheTTL, cfg.BookingWindowDays, logger)

	// Outbox delivery into the reporting projection, strictly post-commit.
	projector := reporting.NewProjector(pool, logger)
	outbox := events.NewOutboxStore(pool)
	deliverer := events.NewDeliverer(outbox, projector, logger)
	go deliverer.Start(ctx)

	// Handlers
	routerCfg := &router.Config{
		Logger:           logger,
		ClinicHandler:    clinic.NewHandler(clinicStore, scheduleRepo, queueSvc, logger),
		ScheduleHandler:  schedule.NewHandler(scheduleRepo, logger),
		QueueHandler:     queue.NewHandler(queueSvc, logger),
		WizardHandler:    wizard.NewHandler(wizardSvc, logger),
		BookingHandler:   booking.NewHandler(bookingRepo, logger),
		SurveyHandler:    survey.NewHandler(surveyRepo, logger),
		ReportingHandler: reporting.NewHandler(dataSheet, dashboard, logger),
		CatalogHandler:   catalog.NewHandler(catalogStore, logger),

		StaffAuthSecret:    cfg.StaffJWTSecret,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
