package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mentorhub/internal/availability/resolver"
	mentorserrors "mentorhub/internal/mentors/errors"
	wizarderrors "mentorhub/internal/wizard/errors"
	"mentorhub/internal/wizard/fsm"
	"mentorhub/internal/wizard/repository"
	"mentorhub/internal/wizard/session"
	"mentorhub/pkg/config"
	apperrors "mentorhub/pkg/errors"
	"mentorhub/pkg/model"
	"mentorhub/pkg/timeofday"
)

type MentorReader interface {
	FindByID(ctx context.Context, id string) (*model.MentorProfile, error)
}

type BookingCreator interface {
	Create(ctx context.Context, draft *model.BookingDraft) (*model.Booking, error)
}

type SlotResolver interface {
	Resolve(ctx context.Context, mentorID, date string, durationMin int) ([]model.TimeSlot, error)
}

type StartRequest struct {
	MentorID    string            `json:"mentor_id"`
	Preselected *session.DateTime `json:"preselected,omitempty"`
}

type WizardService interface {
	Start(ctx context.Context, req *StartRequest) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	SelectService(ctx context.Context, id string, kind model.SessionType) (*session.Session, error)
	SelectDateTime(ctx context.Context, id string, dt session.DateTime) (*session.Session, error)
	ChangeDateTime(ctx context.Context, id string) (*session.Session, error)
	Back(ctx context.Context, id string) (*session.Session, error)
	SetDetails(ctx context.Context, id string, details session.Details) (*session.Session, error)
	Submit(ctx context.Context, id string) (*session.Session, *model.Booking, error)
	DismissSuccess(ctx context.Context, id string) (*session.Session, error)
	Slots(ctx context.Context, id, date string) ([]model.TimeSlot, error)
}

type wizardService struct {
	repo     repository.SessionRepository
	mentors  MentorReader
	bookings BookingCreator
	slots    SlotResolver
	cfg      *config.Config
	now      func() time.Time
}

func NewWizardService(
	repo repository.SessionRepository,
	mentors MentorReader,
	bookings BookingCreator,
	slots SlotResolver,
	cfg *config.Config,
) WizardService {
	return &wizardService{
		repo:     repo,
		mentors:  mentors,
		bookings: bookings,
		slots:    slots,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *wizardService) Start(ctx context.Context, req *StartRequest) (*session.Session, error) {
	if _, err := s.mentor(ctx, req.MentorID); err != nil {
		return nil, err
	}
	if req.Preselected != nil {
		if err := checkDateTime(*req.Preselected); err != nil {
			return nil, err
		}
	}

	sess := session.Start(uuid.NewString(), req.MentorID, req.Preselected, s.now().UTC())
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Booking wizard started", "wizard_id", sess.ID, "mentor_id", sess.MentorID, "preselected", sess.SelectedDateTime != nil)
	return sess, nil
}

func (s *wizardService) Get(ctx context.Context, id string) (*session.Session, error) {
	return s.load(ctx, id)
}

func (s *wizardService) SelectService(ctx context.Context, id string, kind model.SessionType) (*session.Session, error) {
	if !kind.Valid() {
		return nil, apperrors.Validation("Please choose a session type.", map[string]any{"field": "type"})
	}

	return s.mutate(ctx, id, func(sess *session.Session) error {
		mentor, err := s.mentor(ctx, sess.MentorID)
		if err != nil {
			return err
		}
		offering, ok := mentor.Service(kind)
		if !ok {
			return apperrors.Validation(fmt.Sprintf("This mentor doesn't offer %s sessions.", kind), map[string]any{"field": "type"})
		}
		return sess.SelectService(offering)
	})
}

func (s *wizardService) SelectDateTime(ctx context.Context, id string, dt session.DateTime) (*session.Session, error) {
	if err := checkDateTime(dt); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(sess *session.Session) error {
		return sess.SelectDateTime(dt)
	})
}

func (s *wizardService) ChangeDateTime(ctx context.Context, id string) (*session.Session, error) {
	return s.mutate(ctx, id, (*session.Session).ChangeDateTime)
}

func (s *wizardService) Back(ctx context.Context, id string) (*session.Session, error) {
	return s.mutate(ctx, id, (*session.Session).Back)
}

func (s *wizardService) SetDetails(ctx context.Context, id string, details session.Details) (*session.Session, error) {
	return s.mutate(ctx, id, func(sess *session.Session) error {
		return sess.SetDetails(details)
	})
}

// Submit creates the booking from the session. The session is saved on failure too so the
// student sees the reason next to their untouched entries.
func (s *wizardService) Submit(ctx context.Context, id string) (*session.Session, *model.Booking, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !sess.Open {
		return nil, nil, sessionError(session.ErrClosed)
	}

	today := timeofday.Today(s.now(), s.cfg.Location())
	booking, submitErr := sess.Submit(ctx, today, s.bookings.Create)
	if errors.Is(submitErr, session.ErrNotReady) || errors.Is(submitErr, session.ErrNoService) {
		return nil, nil, sessionError(submitErr)
	}

	sess.UpdatedAt = s.now().UTC()
	if err := s.save(context.WithoutCancel(ctx), sess); err != nil {
		if submitErr == nil {
			s.cfg.Log.Warn("Booking created but wizard session not saved", "wizard_id", id, "booking_id", booking.ID, "error", err)
			return sess, booking, nil
		}
		return nil, nil, err
	}

	if submitErr != nil {
		s.cfg.Log.Info("Wizard submit failed", "wizard_id", id, "error", submitErr)
		return sess, nil, submitErr
	}

	s.cfg.Log.Info("Wizard submitted", "wizard_id", id, "booking_id", booking.ID)
	return sess, booking, nil
}

func (s *wizardService) DismissSuccess(ctx context.Context, id string) (*session.Session, error) {
	return s.mutate(ctx, id, func(sess *session.Session) error {
		sess.DismissSuccess()
		return nil
	})
}

// Slots lists pickable times for the selected service. It only makes sense while the
// student is choosing a date and time.
func (s *wizardService) Slots(ctx context.Context, id, date string) ([]model.TimeSlot, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.Open || sess.State != fsm.SelectingDateTime || sess.Service == nil {
		return nil, apperrors.Conflict("Times can only be listed while choosing a date and time.")
	}

	slots, err := s.slots.Resolve(ctx, sess.MentorID, date, sess.Service.DurationMinutes())
	if err != nil {
		return nil, resolver.TranslateError(err)
	}
	return slots, nil
}

func (s *wizardService) mutate(ctx context.Context, id string, fn func(*session.Session) error) (*session.Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, sessionError(err)
	}

	sess.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *wizardService) load(ctx context.Context, id string) (*session.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFoundWithID("Wizard session", id)
	}

	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, wizarderrors.ErrSessionNotFound):
			return nil, apperrors.NotFoundWithID("Wizard session", id)
		case errors.Is(err, context.Canceled):
			return nil, apperrors.Aborted(err)
		}
		s.cfg.Log.Error("Failed to load wizard session", "wizard_id", id, "error", err)
		return nil, apperrors.Unavailable("We couldn't load your booking progress. Please try again.", err)
	}
	return sess, nil
}

func (s *wizardService) save(ctx context.Context, sess *session.Session) error {
	if err := s.repo.Save(ctx, sess); err != nil {
		s.cfg.Log.Error("Failed to save wizard session", "wizard_id", sess.ID, "error", err)
		if errors.Is(err, context.Canceled) {
			return apperrors.Aborted(err)
		}
		return apperrors.Unavailable("We couldn't save your booking progress. Please try again.", err)
	}
	return nil
}

func (s *wizardService) mentor(ctx context.Context, id string) (*model.MentorProfile, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, apperrors.InvalidInput("Invalid mentor ID format")
	}

	mentor, err := s.mentors.FindByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, mentorserrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Mentor", id)
		case errors.Is(err, mentorserrors.ErrInvalidID):
			return nil, apperrors.InvalidInput("Invalid mentor ID format")
		case errors.Is(err, context.Canceled):
			return nil, apperrors.Aborted(err)
		}
		s.cfg.Log.Error("Failed to load mentor profile", "mentor_id", id, "error", err)
		return nil, apperrors.Unavailable("We couldn't load this mentor right now. Please try again.", err)
	}
	return mentor, nil
}

func checkDateTime(dt session.DateTime) error {
	if dt.Date != "" && !timeofday.IsValidDate(dt.Date) {
		return apperrors.InvalidInput("date must be YYYY-MM-DD")
	}
	if dt.Time != "" && !timeofday.IsValid(dt.Time) {
		return apperrors.InvalidInput("time must be HH:MM")
	}
	if dt.Timezone != "" {
		if _, err := time.LoadLocation(dt.Timezone); err != nil {
			return apperrors.InvalidInput("timezone must be an IANA zone such as Europe/London")
		}
	}
	return nil
}

func sessionError(err error) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, session.ErrClosed):
		return apperrors.Conflict("This booking is already submitted. Start a new booking to book again.")
	case errors.Is(err, fsm.ErrInvalidTransition):
		return apperrors.Conflict("That step isn't available right now.").WithCause(err)
	case errors.Is(err, session.ErrNoService):
		return apperrors.Validation("Please choose a service first.", map[string]any{"field": "service"})
	case errors.Is(err, session.ErrNotReady):
		return apperrors.Validation("Please fill in your name, email and what you'd like to cover.", map[string]any{"field": "details"})
	}
	return apperrors.Internal("Something went wrong with your booking. Please try again.", err)
}
