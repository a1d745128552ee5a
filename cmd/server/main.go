package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"orderdesk/internal/api"
	"orderdesk/internal/auth"
	"orderdesk/internal/config"
	"orderdesk/internal/db"
	"orderdesk/internal/importer"
	"orderdesk/internal/logger"
	"orderdesk/internal/notify"
	"orderdesk/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.LogLevel)

	database, err := db.Open(ctx, cfg.DB)
	if err != nil {
		log.WithError(err).Warn("database connection warning")
	}
	if database != nil {
		defer func() {
			if err := database.Close(); err != nil {
				log.WithError(err).Warn("database close error")
			}
		}()
	}

	schemas := services.NewSchemaService(database)
	orders := services.NewOrderService(database)
	otp := services.NewOTPService(database, cfg.OTP.TTL)
	sessions := auth.NewManager(cfg.Session.TTL)
	pipeline := importer.New(schemas, orders, log)

	sender := notify.NewTwilioSender(cfg.WhatsApp.AccountSID, cfg.WhatsApp.AuthToken, cfg.WhatsApp.From)
	notifier := notify.NewNotifier(sender, notify.RetryPolicy{
		MaxAttempts: cfg.WhatsApp.MaxAttempts,
		BaseDelay:   cfg.WhatsApp.BaseDelay,
		MaxDelay:    cfg.WhatsApp.MaxDelay,
	}, cfg.WhatsApp.CountryCode, log)

	cleanup := services.NewCleanupService(database, cfg.OTP.CleanupInterval, log)
	go cleanup.Run(ctx)

	router := api.NewRouter(&api.Server{
		DB:       database,
		Schemas:  schemas,
		Orders:   orders,
		OTP:      otp,
		Importer: pipeline,
		Sessions: sessions,
		Notifier: notifier,
		Log:      log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTP.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown error")
	}
}
