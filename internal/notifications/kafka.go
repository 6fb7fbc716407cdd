package notifications

import (
	"context"
	"fmt"

	"mentorhub/pkg/kafka"
	"mentorhub/pkg/middleware"
)

const schemaVersion = "1"

// KafkaDispatcher publishes notifications keyed by booking id, so every email for one
// booking lands on the same partition in order.
type KafkaDispatcher struct {
	publisher kafka.Publisher
	source    string
}

func NewKafkaDispatcher(publisher kafka.Publisher, source string) *KafkaDispatcher {
	return &KafkaDispatcher{publisher: publisher, source: source}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, n Notification) error {
	msg, err := kafka.NewMessage().
		WithKey(n.BookingID).
		WithValue(n).
		WithEventType(string(n.Kind)).
		WithCorrelationID(middleware.RequestIDFrom(ctx)).
		WithSchemaVersion(schemaVersion).
		WithSource(d.source).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build notification message: %w", err)
	}

	if err := d.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish notification %s: %w", n.ID, err)
	}
	return nil
}
