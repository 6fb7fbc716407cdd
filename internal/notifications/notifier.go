package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mentorhub/pkg/logger"
	"mentorhub/pkg/model"
	"mentorhub/pkg/sealer"
)

// Notifier composes booking emails and hands them to a Dispatcher. Every email is attempted
// even if an earlier one fails; the failures are joined.
type Notifier struct {
	dispatcher Dispatcher
	composer   *Composer
	sealer     *sealer.Sealer
	log        *logger.Logger
}

func NewNotifier(dispatcher Dispatcher, composer *Composer, sealer *sealer.Sealer, log *logger.Logger) *Notifier {
	return &Notifier{
		dispatcher: dispatcher,
		composer:   composer,
		sealer:     sealer,
		log:        log,
	}
}

func (n *Notifier) BookingCreated(ctx context.Context, booking *model.Booking, mentor *model.MentorProfile) error {
	notes, err := n.composer.BookingCreated(booking, mentor, n.reference(booking))
	if err != nil {
		return err
	}
	return n.dispatchAll(ctx, notes)
}

func (n *Notifier) StatusChanged(ctx context.Context, booking *model.Booking, mentor *model.MentorProfile) error {
	note, err := n.composer.StatusChanged(booking, mentor, n.reference(booking))
	if err != nil {
		return err
	}
	return n.dispatchAll(ctx, []Notification{note})
}

func (n *Notifier) Reminder(ctx context.Context, booking *model.Booking, mentor *model.MentorProfile, window time.Duration) error {
	notes, err := n.composer.Reminder(booking, mentor, n.reference(booking), window)
	if err != nil {
		return err
	}
	return n.dispatchAll(ctx, notes)
}

func (n *Notifier) dispatchAll(ctx context.Context, notes []Notification) error {
	var errs []error
	for _, note := range notes {
		if err := n.dispatcher.Dispatch(ctx, note); err != nil {
			errs = append(errs, fmt.Errorf("%s to %s: %w", note.Kind, note.Audience, err))
			continue
		}
		n.log.Info("Notification dispatched",
			"id", note.ID,
			"kind", note.Kind,
			"audience", note.Audience,
			"booking_id", note.BookingID,
		)
	}
	return errors.Join(errs...)
}

func (n *Notifier) reference(booking *model.Booking) string {
	if booking.Reference != "" || n.sealer == nil || booking.ID == "" {
		return booking.Reference
	}
	ref, err := n.sealer.Seal(booking.ID, booking.UserEmail)
	if err != nil {
		n.log.Warn("Failed to seal booking reference", "booking_id", booking.ID, "error", err)
		return ""
	}
	return ref
}
