package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"lettermill/config"
	"lettermill/internal/adapters/email"
	"lettermill/internal/adapters/token"
	httpdelivery "lettermill/internal/delivery/http"
	"lettermill/internal/delivery/http/controllers"
	"lettermill/internal/delivery/http/middleware"
	"lettermill/internal/repository/postgres"
	"lettermill/internal/services"
)

func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Connect lazily: an unreachable database at boot is a warning, the
	// first request that needs it will surface the real error.
	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.DBConnectTimeout)
	if err := db.PingContext(pingCtx); err != nil {
		logger.Warn("database not reachable at startup", "error", err)
	}
	cancel()

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:          cfg.Email.AWSRegion,
			AccessKeyID:     cfg.Email.AWSAccessKeyID,
			SecretAccessKey: cfg.Email.AWSSecretAccessKey,
		},
	}, logger)
	if err != nil {
		logger.Error("failed to create mailer", "error", err)
		os.Exit(1)
	}

	subscriptionRepo := postgres.NewSubscriptionRepository(db, logger, cfg.DBConnectTimeout)
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, token.NewGenerator(), emailService, cfg.BaseURL, logger)
	newsletterService := services.NewNewsletterService(subscriptionRepo, mailer, logger)

	subscriptionController := controllers.NewSubscriptionController(subscriptionService, logger)
	newsletterController := controllers.NewNewsletterController(newsletterService, logger)

	mux := httpdelivery.NewRouter(subscriptionController, newsletterController)
	handler := middleware.LoggingMiddleware(logger, mux)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
