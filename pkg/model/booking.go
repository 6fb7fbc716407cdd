package model

import (
	"time"

	"mentorhub/pkg/timeofday"
)

type SessionType string

const (
	SessionOneOnOne       SessionType = "oneOnOne"
	SessionChatAdvice     SessionType = "chatAdvice"
	SessionDigitalProduct SessionType = "digitalProduct"
	SessionNotes          SessionType = "notes"
)

func (t SessionType) Valid() bool {
	switch t {
	case SessionOneOnOne, SessionChatAdvice, SessionDigitalProduct, SessionNotes:
		return true
	}
	return false
}

// NeedsScheduling is true only for live sessions.
func (t SessionType) NeedsScheduling() bool {
	return t == SessionOneOnOne
}

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

type Booking struct {
	ID              string      `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ExpertID        string      `json:"expert_id" bson:"expert_id" validate:"required,mongodb"`
	UserName        string      `json:"user_name" bson:"user_name" validate:"required,max=100"`
	UserEmail       string      `json:"user_email" bson:"user_email" validate:"required,email,max=254"`
	UserPhone       string      `json:"user_phone,omitempty" bson:"user_phone,omitempty" validate:"omitempty,e164"`
	SessionType     SessionType `json:"session_type" bson:"session_type" validate:"required,oneof=oneOnOne chatAdvice digitalProduct notes"`
	ScheduledDate   string      `json:"scheduled_date" bson:"scheduled_date" validate:"required,calendar_date"`
	ScheduledTime   string      `json:"scheduled_time" bson:"scheduled_time" validate:"required,hhmm"`
	Timezone        string      `json:"timezone" bson:"timezone" validate:"required,timezone"`
	Duration        int         `json:"duration" bson:"duration" validate:"min=0,max=480"`
	Message         string      `json:"message" bson:"message" validate:"required,max=2000"`
	TotalAmount     float64     `json:"total_amount" bson:"total_amount" validate:"min=0"`
	Status          string      `json:"status" bson:"status" validate:"required,oneof=pending confirmed completed cancelled"`
	MeetingLink     string      `json:"meeting_link,omitempty" bson:"meeting_link,omitempty" validate:"omitempty,url,max=500"`
	MeetingProvider string      `json:"meeting_provider,omitempty" bson:"meeting_provider,omitempty" validate:"max=50"`
	Reminder24hSent bool        `json:"reminder_24h_sent" bson:"reminder_24h_sent"`
	Reminder1hSent  bool        `json:"reminder_1h_sent" bson:"reminder_1h_sent"`
	StartAt         time.Time   `json:"start_at,omitempty" bson:"start_at,omitempty"`
	EndAt           time.Time   `json:"end_at,omitempty" bson:"end_at,omitempty"`
	SlotKey         string      `json:"-" bson:"slot_key,omitempty"`
	Reference       string      `json:"reference,omitempty" bson:"-"`
	CreatedAt       time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" bson:"updated_at"`
}

// BookingDraft is what a student submits; the server fills in status and bookkeeping.
type BookingDraft struct {
	ExpertID      string      `json:"expert_id"`
	UserName      string      `json:"user_name"`
	UserEmail     string      `json:"user_email"`
	UserPhone     string      `json:"user_phone,omitempty"`
	SessionType   SessionType `json:"session_type"`
	ScheduledDate string      `json:"scheduled_date,omitempty"`
	ScheduledTime string      `json:"scheduled_time,omitempty"`
	Timezone      string      `json:"timezone,omitempty"`
	Duration      int         `json:"duration,omitempty"`
	Message       string      `json:"message"`
	TotalAmount   float64     `json:"total_amount"`
}

type BookingStatusUpdate struct {
	Status          string `json:"status" validate:"required,oneof=confirmed cancelled"`
	MeetingLink     string `json:"meeting_link,omitempty" validate:"omitempty,url,max=500"`
	MeetingProvider string `json:"meeting_provider,omitempty" validate:"max=50"`
}

func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// Occupies reports whether the booking blocks calendar time.
func (b *Booking) Occupies() bool {
	return b.IsActive() && b.SessionType.NeedsScheduling() && b.Duration > 0
}

// Window is the booking's minute interval on its scheduled date; it may extend past 1440.
func (b *Booking) Window() (timeofday.Interval, error) {
	start, err := timeofday.Parse(b.ScheduledTime)
	if err != nil {
		return timeofday.Interval{}, err
	}
	return timeofday.Interval{Start: start, End: start + b.Duration}, nil
}

// StartsAt is the absolute start in the booking's own timezone. StartAt and EndAt persist
// this instant in UTC so the reminder job can query by time.
func (b *Booking) StartsAt() (time.Time, error) {
	return timeofday.StartOf(b.ScheduledDate, b.ScheduledTime, timeofday.LoadLocation(b.Timezone, time.UTC))
}

func SlotKey(expertID, date, hhmm string) string {
	return expertID + "|" + date + "|" + hhmm
}

// CanTransition lists the status changes a mentor may make.
func CanTransition(from, to string) bool {
	return from == BookingStatusPending && (to == BookingStatusConfirmed || to == BookingStatusCancelled)
}
