package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	bootstrap "github.com/tbeaudouin05/stripe-payment-saga/api/bootstrap"
	config "github.com/tbeaudouin05/stripe-payment-saga/api/config"
	"github.com/tbeaudouin05/stripe-payment-saga/api/messaging"
	stripeapp "github.com/tbeaudouin05/stripe-payment-saga/api/services/stripe/app"
)

func main() {
	if err := bootstrap.Ensure(); err != nil {
		slog.Error("failed to bootstrap", "err", err)
		os.Exit(1)
	}

	consumer := messaging.NewConsumer(
		config.AppConfig.Brokers(),
		config.AppConfig.PaymentEventsTopic,
		config.AppConfig.KafkaGroupID,
		stripeapp.DecodePayload,
	)
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer.Start(ctx, bootstrap.GetDispatcher().Handle)
	slog.Info("consumer stopped")
}
