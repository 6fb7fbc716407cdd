package notifications

import (
	"fmt"

	"mentorhub/pkg/config"
	"mentorhub/pkg/kafka"
	kafka_config "mentorhub/pkg/kafka/config"
	kafkamiddleware "mentorhub/pkg/kafka/middleware"
	"mentorhub/pkg/sealer"
)

// NewProducer opens the notifications topic producer. Logging and metrics middleware are
// attached when the Kafka config enables them.
func NewProducer(cfg *config.Config, kafkaCfg *kafka_config.Config, metrics *kafkamiddleware.Metrics) (*kafka.Producer, error) {
	producer, err := kafka.NewProducer(kafkaCfg, cfg.NotificationsTopic, cfg.NotificationsDLQTopic, cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifications producer: %w", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
		if metrics != nil {
			producer.Use(metrics.ProducerMiddleware())
		}
	}
	return producer, nil
}

// NewKafkaNotifier builds a Notifier that renders with the configured branding and publishes
// through publisher.
func NewKafkaNotifier(cfg *config.Config, publisher kafka.Publisher, seal *sealer.Sealer) (*Notifier, error) {
	composer, err := NewComposer(ComposerOptions{
		AppName:      cfg.AppName,
		SupportEmail: cfg.SupportEmail,
		BaseURL:      cfg.AppBaseURL,
	})
	if err != nil {
		return nil, err
	}
	return NewNotifier(NewKafkaDispatcher(publisher, cfg.ServiceName), composer, seal, cfg.Log), nil
}
