package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"job-tracker/internal/config"
	domainJob "job-tracker/internal/domain/job"
	"job-tracker/internal/infrastructure/database/postgres"
	"job-tracker/internal/infrastructure/email"
	"job-tracker/internal/infrastructure/events"
	"job-tracker/internal/logger"
	"job-tracker/internal/routes"
	"job-tracker/internal/usecase/job"
	"job-tracker/internal/usecase/user"
	"job-tracker/pkg/mqtt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
	)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := db.Migrate(migrateCtx)
		cancel()
		if err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	publisher, disconnect := newPublisher(&cfg.MQTT)
	defer disconnect()

	userRepository := postgres.NewUserRepository(db)
	jobRepository := postgres.NewJobRepository(db)
	mailer := email.NewSMTPMailer(&cfg.SMTP)

	userService := user.NewService(userRepository, jobRepository, db, mailer, cfg)
	jobService := job.NewService(jobRepository, userRepository, publisher)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	go userService.StartResetTokenCleanupJob(workerCtx, cfg.Auth.ResetTokenCleanupEvery)

	router := routes.SetupRoutes(workerCtx, cfg, db, userService, jobService)

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	addr := net.JoinHostPort(host, port)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

// newPublisher connects to the MQTT broker when one is configured. Job
// events are dropped otherwise.
func newPublisher(cfg *config.MQTTConfig) (domainJob.EventPublisher, func()) {
	if !cfg.Enabled() {
		logger.Info("MQTT broker not configured, job events disabled")
		return events.NoopPublisher{}, func() {}
	}

	client := mqtt.NewClient(&mqtt.Config{
		Broker:               cfg.Broker,
		ClientID:             cfg.ClientID,
		Username:             cfg.Username,
		Password:             cfg.Password,
		CleanSession:         true,
		KeepAlive:            60,
		ConnectTimeout:       10,
		AutoReconnect:        true,
		MaxReconnectInterval: time.Minute,
		PublishTimeout:       5 * time.Second,
	})
	if err := client.Connect(); err != nil {
		logger.Warn("MQTT broker unreachable, job events disabled",
			zap.String("broker", cfg.Broker),
			zap.Error(err),
		)
		return events.NoopPublisher{}, func() {}
	}

	return events.NewMQTTPublisher(client, cfg.TopicPrefix), client.Disconnect
}
