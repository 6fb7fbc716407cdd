package notifications

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"mentorhub/pkg/email"
	"mentorhub/pkg/kafka"
	"mentorhub/pkg/logger"
	"mentorhub/pkg/validation"
)

// Worker delivers notifications consumed from Kafka. Returned errors are classified for the
// consumer: bad messages are permanent, SMTP failures transient.
type Worker struct {
	sender   email.Sender
	validate *validator.Validate
	log      *logger.Logger
}

func NewWorker(sender email.Sender, log *logger.Logger) *Worker {
	return &Worker{
		sender:   sender,
		validate: validation.New(),
		log:      log,
	}
}

func (w *Worker) Handle(ctx context.Context, msg kafka.Message) error {
	var n Notification
	if err := msg.DecodeValue(&n); err != nil {
		return err
	}
	if err := validation.Struct(w.validate, &n); err != nil {
		return kafka.NewPermanentError("invalid notification", err)
	}

	err := w.sender.Send(ctx, email.Message{
		To:       []string{n.Recipient},
		Subject:  n.Subject,
		HTMLBody: n.HTMLBody,
		Headers: map[string]string{
			"X-Notification-ID": n.ID,
			"X-Booking-ID":      n.BookingID,
		},
	})

	var invalid email.ErrInvalidMessage
	switch {
	case err == nil:
		w.log.Info("Notification delivered",
			"id", n.ID,
			"kind", n.Kind,
			"audience", n.Audience,
			"booking_id", n.BookingID,
			"replayed_retries", msg.GetRetryCount(),
		)
		return nil
	case errors.Is(err, email.ErrDisabled{}):
		w.log.Info("Email disabled, notification skipped", "id", n.ID, "kind", n.Kind, "recipient", n.Recipient)
		return nil
	case errors.As(err, &invalid):
		return kafka.NewPermanentError("unsendable notification", err)
	default:
		return kafka.NewTransientError("email delivery failed", err)
	}
}
