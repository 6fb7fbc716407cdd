// Package session holds one student's walk through the booking wizard. It is plain data
// plus the fsm, so it can be stored as JSON between requests.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"mentorhub/internal/wizard/fsm"
	apperrors "mentorhub/pkg/errors"
	"mentorhub/pkg/model"
)

var (
	ErrClosed    = errors.New("wizard is closed")
	ErrNoService = errors.New("no service selected")
	ErrNotReady  = errors.New("wizard is not ready to submit")
)

type DateTime struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Timezone string `json:"timezone"`
}

// Complete is true only when date, time and timezone are all set.
func (d *DateTime) Complete() bool {
	return d != nil && d.Date != "" && d.Time != "" && d.Timezone != ""
}

func (d *DateTime) empty() bool {
	return d == nil || (d.Date == "" && d.Time == "" && d.Timezone == "")
}

type Details struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Purpose string `json:"purpose"`
}

// SuccessModal is the second machine: shown after a successful submit until dismissed.
type SuccessModal struct {
	Visible   bool   `json:"visible"`
	BookingID string `json:"booking_id,omitempty"`
}

type Session struct {
	ID               string                 `json:"id"`
	MentorID         string                 `json:"mentor_id"`
	State            fsm.State              `json:"state"`
	Open             bool                   `json:"open"`
	Service          *model.ServiceOffering `json:"service,omitempty"`
	SelectedDateTime *DateTime              `json:"selected_date_time"`
	Details          Details                `json:"details"`
	LastError        string                 `json:"last_error,omitempty"`
	Success          SuccessModal           `json:"success"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// Start opens a wizard at service selection. A complete preselected date/time lets a live
// service skip straight to confirmation.
func Start(id, mentorID string, preselected *DateTime, now time.Time) *Session {
	s := &Session{
		ID:        id,
		MentorID:  mentorID,
		State:     fsm.New().State(),
		Open:      true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !preselected.empty() {
		dt := trimDateTime(*preselected)
		s.SelectedDateTime = &dt
	}
	return s
}

func (s *Session) facts() fsm.Facts {
	f := fsm.Facts{DateTimeComplete: s.SelectedDateTime.Complete()}
	if s.Service != nil {
		f.NeedsScheduling = s.Service.Type().NeedsScheduling()
	}
	return f
}

func (s *Session) fire(ev fsm.Event, f fsm.Facts) error {
	if !s.Open {
		return ErrClosed
	}
	m, err := fsm.Restore(s.State)
	if err != nil {
		return err
	}
	to, err := m.Fire(ev, f)
	if err != nil {
		return err
	}
	s.State = to
	s.LastError = ""
	return nil
}

// SelectService picks what to book. An unscheduled service drops any preselected date/time.
func (s *Session) SelectService(svc model.Service) error {
	if svc == nil {
		return ErrNoService
	}
	f := s.facts()
	f.NeedsScheduling = svc.Type().NeedsScheduling()

	if err := s.fire(fsm.SelectService, f); err != nil {
		return err
	}
	s.Service = &model.ServiceOffering{Service: svc}
	if !f.NeedsScheduling {
		s.SelectedDateTime = nil
	}
	return nil
}

// SelectDateTime records the selection even when partial; only a complete one advances.
func (s *Session) SelectDateTime(dt DateTime) error {
	dt = trimDateTime(dt)
	f := s.facts()
	f.DateTimeComplete = dt.Complete()

	if err := s.fire(fsm.SelectDateTime, f); err != nil {
		return err
	}
	s.SelectedDateTime = &dt
	return nil
}

func (s *Session) ChangeDateTime() error {
	return s.fire(fsm.ChangeDateTime, s.facts())
}

func (s *Session) Back() error {
	return s.fire(fsm.Back, s.facts())
}

func (s *Session) SetDetails(d Details) error {
	if !s.Open {
		return ErrClosed
	}
	s.Details = Details{
		Name:    strings.TrimSpace(d.Name),
		Email:   strings.TrimSpace(d.Email),
		Phone:   strings.TrimSpace(d.Phone),
		Purpose: strings.TrimSpace(d.Purpose),
	}
	return nil
}

// CanSubmit gates the submit button: open, confirming, and name, email and purpose present.
func (s *Session) CanSubmit() bool {
	return s.Open &&
		s.State == fsm.Confirming &&
		s.Service != nil &&
		strings.TrimSpace(s.Details.Name) != "" &&
		strings.TrimSpace(s.Details.Email) != "" &&
		strings.TrimSpace(s.Details.Purpose) != ""
}

// Draft builds the booking request. Unscheduled kinds get today and a 00:00 placeholder.
func (s *Session) Draft(today string) (*model.BookingDraft, error) {
	if s.Service == nil {
		return nil, ErrNoService
	}

	draft := &model.BookingDraft{
		ExpertID:    s.MentorID,
		UserName:    s.Details.Name,
		UserEmail:   s.Details.Email,
		UserPhone:   s.Details.Phone,
		SessionType: s.Service.Type(),
		Duration:    s.Service.DurationMinutes(),
		Message:     s.Details.Purpose,
		TotalAmount: s.Service.Amount(),
	}

	if s.Service.Type().NeedsScheduling() {
		if !s.SelectedDateTime.Complete() {
			return nil, ErrNotReady
		}
		draft.ScheduledDate = s.SelectedDateTime.Date
		draft.ScheduledTime = s.SelectedDateTime.Time
		draft.Timezone = s.SelectedDateTime.Timezone
	} else {
		draft.ScheduledDate = today
		draft.ScheduledTime = "00:00"
	}
	return draft, nil
}

type CreateFunc func(ctx context.Context, draft *model.BookingDraft) (*model.Booking, error)

// Submit creates the booking. On success the wizard closes and the success modal opens; on
// failure the wizard stays at confirmation with everything kept and LastError set.
func (s *Session) Submit(ctx context.Context, today string, create CreateFunc) (*model.Booking, error) {
	if !s.CanSubmit() {
		return nil, ErrNotReady
	}
	draft, err := s.Draft(today)
	if err != nil {
		return nil, err
	}

	booking, err := create(ctx, draft)
	if err != nil {
		s.LastError = apperrors.AsAppError(err).Message
		return nil, err
	}

	s.Open = false
	s.LastError = ""
	s.Success = SuccessModal{Visible: true, BookingID: booking.ID}
	return booking, nil
}

func (s *Session) DismissSuccess() {
	s.Success.Visible = false
}

func trimDateTime(dt DateTime) DateTime {
	return DateTime{
		Date:     strings.TrimSpace(dt.Date),
		Time:     strings.TrimSpace(dt.Time),
		Timezone: strings.TrimSpace(dt.Timezone),
	}
}
