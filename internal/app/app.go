package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hotrph/calsync/internal/calendar"
	"github.com/hotrph/calsync/internal/config"
	"github.com/hotrph/calsync/internal/database"
	"github.com/hotrph/calsync/internal/event"
	"github.com/hotrph/calsync/internal/feed"
	"github.com/hotrph/calsync/internal/googlesync"
	"github.com/hotrph/calsync/internal/handler"
	"github.com/hotrph/calsync/internal/ics"
	"github.com/hotrph/calsync/internal/logger"
	"github.com/hotrph/calsync/internal/metrics"
	"github.com/hotrph/calsync/internal/middleware"
	"github.com/hotrph/calsync/internal/repository"
	"github.com/hotrph/calsync/internal/subscriber"
	"github.com/hotrph/calsync/internal/worker/cleanup"
	"github.com/hotrph/calsync/internal/worker/resync"
)

// Init initialises the application: the JSON structured logger is set up
// first so config failures are already logged in the final format, then
// the Config is loaded from the environment.
func Init(w io.Writer) (*config.Config, error) {
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run is the main entry point. It parses the subcommand from args
// (os.Args[1:]) and starts the corresponding mode.
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck is a lightweight subcommand; skip full initialisation.
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe starts the API server: it opens the database, wires every
// dependency and serves HTTP until SIGINT or SIGTERM, then shuts down
// gracefully.
func runServe(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// Repositories
	calendarRepo := repository.NewPostgresCalendarRepo(db)
	eventRepo := repository.NewPostgresEventRepo(db)
	subscriberRepo := repository.NewPostgresSubscriberRepo(db)

	// Metrics
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Domain services
	synthesizer := ics.NewSynthesizer(cfg.DefaultLocation)
	feedService := feed.NewService(calendarRepo, eventRepo, subscriberRepo, synthesizer, collector, slog.Default())
	subscriberService := subscriber.NewService(subscriberRepo, calendarRepo, cfg.BaseURL, slog.Default())
	calendarService := calendar.NewService(calendarRepo, eventRepo, slog.Default())
	eventService := event.NewService(eventRepo, calendarRepo, slog.Default())

	// Google sync pipeline
	oauthFactory := googlesync.NewClientFactory(googlesync.OAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})
	syncer := googlesync.NewSyncer(oauthFactory, eventRepo, subscriberService, collector, slog.Default())

	// Router
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.SubscribeRate = rate.Limit(float64(cfg.RateLimitSubscribe) / 60.0)
	rateLimiterCfg.SubscribeBurst = cfg.RateLimitSubscribe
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		HealthChecker:     db,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		AdminAPIKey:       cfg.AdminAPIKey,
		Logger:            slog.Default(),

		FeedService:       feedService,
		SubscriberService: subscriberService,
		CalendarService:   calendarService,

		AdminCalendarService: calendarService,
		AdminEventService:    eventService,

		OAuthFlow:        oauthFactory,
		SubscriberStore:  subscriberService,
		SubscriberSyncer: syncer,
		GoogleAuthConfig: handler.GoogleAuthHandlerConfig{BaseURL: cfg.BaseURL},

		Metrics: metrics.SetupMetricsRoute(registry),
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker starts the background worker: the Google re-sync scheduler
// plus a daily cleanup of long-past events. It runs until SIGINT or
// SIGTERM.
func runWorker(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	eventRepo := repository.NewPostgresEventRepo(db)
	subscriberRepo := repository.NewPostgresSubscriberRepo(db)
	calendarRepo := repository.NewPostgresCalendarRepo(db)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	subscriberService := subscriber.NewService(subscriberRepo, calendarRepo, cfg.BaseURL, slog.Default())

	oauthFactory := googlesync.NewClientFactory(googlesync.OAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})
	syncer := googlesync.NewSyncer(oauthFactory, eventRepo, subscriberService, collector, slog.Default())

	scheduler := resync.NewScheduler(subscriberRepo, syncer, slog.Default(), 10)
	cleanupJob := cleanup.NewCleanupJob(db, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting")

	// Daily event cleanup in the background, once immediately.
	go func() {
		if err := cleanupJob.Run(ctx); err != nil {
			slog.Error("cleanup job failed", slog.String("error", err.Error()))
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := cleanupJob.Run(ctx); err != nil {
					slog.Error("cleanup job failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	// Re-sync scheduler blocks on the main goroutine.
	scheduler.Start(ctx, time.Hour)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate applies every pending database migration in order.
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck probes the /health endpoint of the running server. It
// exists as a subcommand so distroless images have a health check
// without a shell.
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL hides the credentials inside a database URL.
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
