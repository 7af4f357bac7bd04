package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/api"
	"github.com/abhishekdav003/easyfinance-sub000/internal/batch"
	"github.com/abhishekdav003/easyfinance-sub000/internal/config"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/agent"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/client"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/loan"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/report"
	"github.com/abhishekdav003/easyfinance-sub000/internal/event"
	"github.com/abhishekdav003/easyfinance-sub000/internal/infrastructure/cache"
	"github.com/abhishekdav003/easyfinance-sub000/internal/infrastructure/database/postgres"
	"github.com/abhishekdav003/easyfinance-sub000/internal/infrastructure/logging"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

type application struct {
	services api.Services
	sweep    *batch.DefaulterSweepJob
}

func main() {
	cfg, logger := initializeApp()

	dbPool := initializeDatabase(cfg, logger)
	defer closeDatabase(dbPool, logger)

	redisClient := initializeRedisClient(cfg, logger)
	rabbitConn := setupRabbitMQ(cfg, logger)

	app := initializeServices(cfg, dbPool, redisClient, newPublisher(cfg, rabbitConn, logger), logger)
	cronScheduler := startBatchJobs(cfg, logger, app.sweep)

	routerCtx, stopRouter := context.WithCancel(context.Background())
	defer stopRouter()
	router := api.SetupRouter(routerCtx, app.services, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, rabbitConn, redisClient, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

func initializeDatabase(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	if cfg.Database.Migrate {
		logger.Info("Applying database migrations...")
		if err := postgres.RunMigrations(cfg.Database.URL, logger); err != nil {
			logger.Error("Failed to apply database migrations", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("Initializing database connection pool...")
	dbPool, err := postgres.NewConnectionPool(context.Background(), cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	return dbPool
}

func closeDatabase(dbPool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("Closing database connection pool...")
	dbPool.Close()
}

// initializeServices wires repositories and services. Reports read clients straight from
// the repository because the client service itself invalidates the report cache.
func initializeServices(cfg *config.Config, dbPool *pgxpool.Pool, redisClient *redis.Client, publisher event.EventPublisher, logger *slog.Logger) application {
	logger.Info("Initializing application components...")
	loanRepo := postgres.NewLoanRepository(dbPool, logger)
	clientRepo := postgres.NewClientRepository(dbPool, loanRepo, logger)
	agentRepo := postgres.NewAgentRepository(dbPool, logger)

	agentService := agent.NewAgentService(agentRepo, logger)
	loc := cfg.Reporting.Location()

	var dashboardCache report.DashboardCache
	if redisClient != nil {
		dashboardCache = cache.NewViewCache[report.Dashboard](redisClient, cfg.Reporting.CacheTTL, logger)
	}
	reportService := report.NewReportService(clientRepo, agentService, dashboardCache, loc, logger)

	return application{
		services: api.Services{
			Agents:  agentService,
			Clients: client.NewClientService(clientRepo, loanRepo, publisher, reportService, loc, logger),
			Loans:   loan.NewLoanService(loanRepo, agentService, publisher, reportService, loc, logger),
			Reports: reportService,
		},
		sweep: batch.NewDefaulterSweepJob(clientRepo, publisher, reportService, loc, logger),
	}
}

func newPublisher(cfg *config.Config, rabbitConn *amqp.Connection, logger *slog.Logger) event.EventPublisher {
	if rabbitConn == nil {
		logger.Info("Event publishing disabled, using no-op publisher.")
		return event.NoopPublisher{}
	}
	publisher, err := event.NewRabbitMQEventPublisher(rabbitConn, cfg.RabbitMQ.ExchangeName, logger)
	if err != nil {
		logger.Error("Failed to create RabbitMQ publisher, falling back to no-op publisher", "error", err)
		return event.NoopPublisher{}
	}
	return publisher
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, rabbitConn *amqp.Connection, redisClient *redis.Client,
	shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	triggerReason := waitForShutdownTrigger(shutdownChan, serverErrors, logger)

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	stopCronScheduler(cronScheduler, logger)
	shutdownHTTPServer(srv, serverErrors, logger)
	closeRabbitMQConnection(rabbitConn, logger)
	closeRedisClient(redisClient, logger)

	logger.Info("Application shutdown process complete.")
}

func waitForShutdownTrigger(shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) string {
	select {
	case sig := <-shutdownChan:
		logger.Info("Shutdown signal received.", "signal", sig.String())
		return "signal: " + sig.String()
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			return "server error"
		}
		logger.Info("Server goroutine finished before signal.")
		return "server exited"
	}
}

func stopCronScheduler(cronScheduler *cron.Cron, logger *slog.Logger) {
	if cronScheduler == nil {
		return
	}
	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}
}

func closeRabbitMQConnection(rabbitConn *amqp.Connection, logger *slog.Logger) {
	switch {
	case rabbitConn == nil:
		logger.Info("RabbitMQ connection was not established, skipping close.")
	case rabbitConn.IsClosed():
		logger.Info("RabbitMQ connection already closed, skipping close.")
	default:
		logger.Info("Closing RabbitMQ connection...")
		if err := rabbitConn.Close(); err != nil {
			logger.Error("Failed to close RabbitMQ connection gracefully", slog.Any("error", err))
		} else {
			logger.Info("RabbitMQ connection closed.")
		}
	}
}

func shutdownHTTPServer(srv *http.Server, serverErrors <-chan error, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", "error", err)
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}
}

// initializeRedisClient returns nil when Redis is disabled or unreachable; the dashboard
// is then computed on every request.
func initializeRedisClient(cfg *config.Config, logger *slog.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		logger.Info("Redis disabled, dashboard caching is off.")
		return nil
	}

	rdb, err := cache.NewRedisClient(context.Background(), cfg.Redis, logger)
	if err != nil {
		logger.Error("Failed to connect to Redis, dashboard caching is off", "error", err, "addr", cfg.Redis.Addr)
		return nil
	}
	return rdb
}

func closeRedisClient(redisClient *redis.Client, logger *slog.Logger) {
	if redisClient == nil {
		logger.Info("Redis client was not initialized, skipping close.")
		return
	}
	logger.Info("Closing Redis client connection...")
	if err := redisClient.Close(); err != nil {
		logger.Error("Failed to close Redis client connection gracefully", "error", err)
	}
}

// startBatchJobs schedules the defaulter sweep. SkipIfStillRunning keeps a slow sweep from
// overlapping the next tick.
func startBatchJobs(cfg *config.Config, logger *slog.Logger, sweep *batch.DefaulterSweepJob) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	scheduleSpec := cfg.Batch.DefaulterSweepSchedule
	if scheduleSpec == "" {
		scheduleSpec = "0 2 * * *"
		logger.Warn("Defaulter sweep schedule not configured, using default", "schedule", scheduleSpec)
	}
	jobTimeout := cfg.Batch.DefaulterSweepTimeout
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Minute
	}

	runSweep := func() {
		jobLogger := logger.With("job_name", "DefaulterSweep")
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if runErr := sweep.Run(ctx); runErr != nil {
			jobLogger.Error("Defaulter sweep finished with error", slog.Any("error", runErr))
		} else {
			jobLogger.Info("Defaulter sweep finished successfully.")
		}
	}

	jobID, err := c.AddFunc(scheduleSpec, runSweep)
	if err != nil {
		logger.Error("Failed to schedule defaulter sweep", "schedule", scheduleSpec, slog.Any("error", err))
	} else {
		logger.Info("Scheduled defaulter sweep", "schedule", scheduleSpec, "job_id", jobID)
	}

	// Prime the baseline at start-up so the first scheduled run can already publish
	// transitions.
	go runSweep()

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}

func connectRabbitMQ(uri string, logger *slog.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	retryCount := 5
	for i := 1; i <= retryCount; i++ {
		conn, err = amqp.Dial(uri)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ")

			go watchRabbitMQ(
				conn.NotifyBlocked(make(chan amqp.Blocking, 4)),
				conn.NotifyClose(make(chan *amqp.Error, 1)),
				logger,
			)

			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ, retrying...",
			slog.Int("attempt", i),
			slog.Int("max_attempts", retryCount),
			slog.Any("error", err),
		)
		time.Sleep(time.Duration(i*2) * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", retryCount, err)
}

// watchRabbitMQ drains connection notifications until the close channel is closed. The
// client delivers them synchronously, so an unread channel would stall the connection.
func watchRabbitMQ(blocked <-chan amqp.Blocking, closed <-chan *amqp.Error, logger *slog.Logger) {
	for {
		select {
		case b, ok := <-blocked:
			if !ok {
				blocked = nil
				continue
			}
			if b.Active {
				logger.Warn("RabbitMQ Connection Blocked", "reason", b.Reason)
			} else {
				logger.Info("RabbitMQ Connection Unblocked")
			}
		case e, ok := <-closed:
			if !ok {
				return
			}
			if e != nil {
				logger.Error("RabbitMQ Connection Closed", slog.Any("error", e))
			}
		}
	}
}

// setupRabbitMQ returns nil when publishing is disabled or the broker cannot be reached.
// Events are notifications only, so the service runs without them.
func setupRabbitMQ(cfg *config.Config, logger *slog.Logger) *amqp.Connection {
	if !cfg.RabbitMQ.Enabled {
		return nil
	}
	if cfg.RabbitMQ.URL == "" {
		logger.Error("RabbitMQ is enabled but no URL is configured")
		return nil
	}
	conn, err := connectRabbitMQ(cfg.RabbitMQ.URL, logger)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ", "error", err)
		return nil
	}
	return conn
}
