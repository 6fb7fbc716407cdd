package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"mentorhub/internal/notifications"
	"mentorhub/pkg/config"
	"mentorhub/pkg/email"
	"mentorhub/pkg/kafka"
	kafka_config "mentorhub/pkg/kafka/config"
	kafkamiddleware "mentorhub/pkg/kafka/middleware"
)

const ServiceName = "notifier"

func main() {
	cfg := config.Load(ServiceName)
	kafkaCfg := kafka_config.Load(cfg.Log)

	if !cfg.SMTPEnabled {
		cfg.Log.Warn("SMTP is disabled, notifications will be logged and dropped")
	}
	worker := notifications.NewWorker(email.New(cfg.Email()), cfg.Log)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.NotificationsTopic,
		cfg.NotifierGroupID,
		cfg.NotificationsDLQTopic,
		worker.Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create notifications consumer", "error", err)
	}

	metrics := kafkamiddleware.NewMetrics()
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafkamiddleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(metrics.ConsumerMiddleware())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting Notifier",
		"topic", cfg.NotificationsTopic,
		"group_id", cfg.NotifierGroupID,
		"dlq_topic", cfg.NotificationsDLQTopic,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Notifications consumer stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close notifications consumer", "error", err)
	}
	metrics.Log(cfg.Log)
	cfg.Log.Info("Notifier stopped")
}
