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

	bootstrap "github.com/tbeaudouin05/stripe-payment-saga/api/bootstrap"
	config "github.com/tbeaudouin05/stripe-payment-saga/api/config"
	"github.com/tbeaudouin05/stripe-payment-saga/api/router"
)

func main() {
	if err := bootstrap.Ensure(); err != nil {
		slog.Error("failed to bootstrap", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + config.AppConfig.HTTPPort,
		Handler:           router.NewRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("webhook server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "err", err)
	}
	if publisher := bootstrap.GetPublisher(); publisher != nil {
		if err := publisher.Close(); err != nil {
			slog.Error("failed to close publisher", "err", err)
		}
	}
	slog.Info("webhook server stopped")
}
