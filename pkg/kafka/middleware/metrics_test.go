package kafka_middleware

import (
	"context"
	"errors"
	"testing"

	"mentorhub/pkg/kafka"
)

func TestMetrics_CountsOutcomes(t *testing.T) {
	m := NewMetrics()
	publish := m.ProducerMiddleware()
	consume := m.ConsumerMiddleware()
	ctx := context.Background()
	msg := kafka.Message{Key: "b1", Value: []byte(`{}`)}

	ok := func(context.Context, kafka.Message) error { return nil }
	fail := func(context.Context, kafka.Message) error { return errors.New("broker down") }

	_ = publish(ctx, msg, ok)
	_ = publish(ctx, msg, ok)
	_ = publish(ctx, msg, fail)
	_ = consume(ctx, msg, ok)
	_ = consume(ctx, msg, fail)

	s := m.Snapshot()
	if s.Published != 2 || s.PublishFailed != 1 {
		t.Errorf("unexpected publish counts %+v", s)
	}
	if s.Consumed != 1 || s.ConsumeFailed != 1 {
		t.Errorf("unexpected consume counts %+v", s)
	}
}
