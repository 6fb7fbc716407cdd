// Package notifications turns booking events into rendered emails, ships them over Kafka
// and delivers them from the notifier worker.
package notifications

import (
	"context"
	"time"
)

type Kind string

const (
	KindBookingCreated Kind = "booking.created"
	KindStatusChanged  Kind = "booking.status_changed"
	KindReminder       Kind = "booking.reminder"
)

type Audience string

const (
	AudienceStudent Audience = "student"
	AudienceMentor  Audience = "mentor"
)

// Notification is one rendered email, ready to send.
type Notification struct {
	ID        string    `json:"id" validate:"required"`
	Kind      Kind      `json:"kind" validate:"required"`
	Audience  Audience  `json:"audience" validate:"required,oneof=student mentor"`
	BookingID string    `json:"booking_id" validate:"required"`
	Recipient string    `json:"recipient" validate:"required,email"`
	Subject   string    `json:"subject" validate:"required,max=300"`
	HTMLBody  string    `json:"html_body" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}
