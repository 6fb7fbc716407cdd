package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mentorhub/internal/availability/resolver"
	bookingserrors "mentorhub/internal/bookings/errors"
	"mentorhub/internal/bookings/repository"
	"mentorhub/internal/bookings/validator"
	mentorserrors "mentorhub/internal/mentors/errors"
	"mentorhub/pkg/config"
	mongotx "mentorhub/pkg/db/mongo"
	apperrors "mentorhub/pkg/errors"
	"mentorhub/pkg/model"
	"mentorhub/pkg/retry"
	"mentorhub/pkg/sanitizer"
	"mentorhub/pkg/sealer"
	"mentorhub/pkg/timeofday"
	"mentorhub/pkg/validation"
)

const (
	notifyTimeout      = 15 * time.Second
	lockReleaseTimeout = 5 * time.Second

	slotBusyMessage  = "Someone else is booking this time slot right now. Please pick another time or try again in a moment."
	slotTakenMessage = "This time slot is no longer available. Please pick another time."
)

type MentorReader interface {
	FindByID(ctx context.Context, id string) (*model.MentorProfile, error)
}

type SlotChecker interface {
	IsSlotAvailable(ctx context.Context, mentorID, date, hhmm string, durationMin int) (bool, error)
}

// Notifier is told about new bookings and status changes after they are stored.
type Notifier interface {
	BookingCreated(ctx context.Context, booking *model.Booking, mentor *model.MentorProfile) error
	StatusChanged(ctx context.Context, booking *model.Booking, mentor *model.MentorProfile) error
}

type BookingService interface {
	Create(ctx context.Context, draft *model.BookingDraft) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetByReference(ctx context.Context, token string) (*model.Booking, error)
	ListForMentorAndDate(ctx context.Context, mentorID, date string) ([]*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error)
	Complete(ctx context.Context, id string) (*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	locker    repository.SlotLocker
	mentors   MentorReader
	slots     SlotChecker
	notifier  Notifier
	sealer    *sealer.Sealer
	validator *validator.BookingValidator
	cfg       *config.Config
	now       func() time.Time
	async     func(func())
}

func NewBookingService(
	repo repository.BookingRepository,
	locker repository.SlotLocker,
	mentors MentorReader,
	slots SlotChecker,
	notifier Notifier,
	sealer *sealer.Sealer,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		locker:    locker,
		mentors:   mentors,
		slots:     slots,
		notifier:  notifier,
		sealer:    sealer,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
		async:     func(fn func()) { go fn() },
	}
}

func (s *bookingService) Create(ctx context.Context, draft *model.BookingDraft) (*model.Booking, error) {
	if !primitive.IsValidObjectID(draft.ExpertID) {
		return nil, apperrors.InvalidInput("Invalid mentor ID format")
	}
	if !draft.SessionType.Valid() {
		return nil, apperrors.Validation("Please choose a session type.", map[string]any{"field": "session_type"})
	}

	mentor, err := s.loadMentor(ctx, draft.ExpertID)
	if err != nil {
		return nil, err
	}
	offering, ok := mentor.Service(draft.SessionType)
	if !ok {
		return nil, apperrors.Validation(
			fmt.Sprintf("This mentor doesn't offer %s sessions.", draft.SessionType),
			map[string]any{"field": "session_type"},
		)
	}

	booking, err := s.applyDefaults(draft, mentor, offering)
	if err != nil {
		return nil, err
	}
	s.sanitize(booking)

	if draft.UserPhone != "" && booking.UserPhone == "" {
		return nil, apperrors.Validation("Please enter a valid phone number, including the country code.",
			validation.Errors{{Field: "user_phone", Message: "user_phone must be a valid phone number"}}.Details())
	}
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "expert_id", booking.ExpertID, "error", err)
		return nil, validationError("Please check the highlighted booking fields and try again.", err)
	}

	if booking.SessionType.NeedsScheduling() {
		err = s.createScheduled(ctx, booking)
	} else {
		err = s.repo.Create(ctx, booking)
		if err != nil {
			s.cfg.Log.Error("Failed to create booking", "expert_id", booking.ExpertID, "error", err)
			err = writeError(err)
		}
	}
	if err != nil {
		return nil, err
	}

	s.seal(booking)
	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"expert_id", booking.ExpertID,
		"session_type", booking.SessionType,
		"date", booking.ScheduledDate,
		"time", booking.ScheduledTime,
	)

	snapshot := *booking
	s.notify(ctx, "booking_created", booking.ID, func(ctx context.Context) error {
		return s.notifier.BookingCreated(ctx, &snapshot, mentor)
	})
	return booking, nil
}

// createScheduled guards a live session against double booking: the slot lock serialises
// submissions for the same start, the transaction re-checks overlapping starts, and the
// unique slot_key index catches whatever slips past both.
func (s *bookingService) createScheduled(ctx context.Context, booking *model.Booking) error {
	start, err := booking.StartsAt()
	if err != nil {
		return apperrors.Validation("Please choose a valid date and time.", map[string]any{"error": err.Error()})
	}
	booking.StartAt = start.UTC()
	booking.EndAt = booking.StartAt.Add(time.Duration(booking.Duration) * time.Minute)
	booking.SlotKey = model.SlotKey(booking.ExpertID, booking.ScheduledDate, booking.ScheduledTime)

	owner := uuid.NewString()
	acquired, err := s.locker.Acquire(ctx, booking.SlotKey, owner, s.cfg.SlotLockTTL)
	if err != nil {
		s.cfg.Log.Error("Failed to acquire slot lock", "slot_key", booking.SlotKey, "error", err)
		return apperrors.Unavailable("We couldn't reserve this time slot right now. Please try again.", err)
	}
	if !acquired {
		s.cfg.Log.Info("Slot lock held by another request", "slot_key", booking.SlotKey)
		return slotConflict(booking, slotBusyMessage)
	}
	defer s.releaseLock(ctx, booking.SlotKey, owner)

	available, err := s.slots.IsSlotAvailable(ctx, booking.ExpertID, booking.ScheduledDate, booking.ScheduledTime, booking.Duration)
	if err != nil {
		return resolver.TranslateError(err)
	}
	if !available {
		s.cfg.Log.Info("Requested slot is not available", "slot_key", booking.SlotKey)
		return slotConflict(booking, slotTakenMessage)
	}

	err = s.repo.ExecuteTransaction(ctx, func(sc context.Context) error {
		if err := s.verifyNoOverlap(sc, booking); err != nil {
			return err
		}
		return s.repo.Create(sc, booking)
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, bookingserrors.ErrTimeConflict) || mongotx.IsDuplicateKey(err) {
		s.cfg.Log.Info("Booking lost the race for its slot", "slot_key", booking.SlotKey, "error", err)
		return slotConflict(booking, slotTakenMessage)
	}
	if apperrors.IsAppError(err) {
		return err
	}
	s.cfg.Log.Error("Failed to create booking", "slot_key", booking.SlotKey, "error", err)
	return writeError(err)
}

func slotConflict(booking *model.Booking, message string) error {
	return apperrors.Conflict(message).WithDetails(map[string]any{
		"date": booking.ScheduledDate,
		"time": booking.ScheduledTime,
	})
}

func (s *bookingService) verifyNoOverlap(ctx context.Context, booking *model.Booking) error {
	dates := []string{booking.ScheduledDate}
	for _, offset := range []int{-1, 1} {
		if d, err := timeofday.AddDays(booking.ScheduledDate, offset); err == nil {
			dates = append(dates, d)
		}
	}

	existing, err := s.repo.FindActiveByMentorAndDates(ctx, booking.ExpertID, dates)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if !other.Occupies() {
			continue
		}
		start, end, ok := span(other)
		if ok && start.Before(booking.EndAt) && booking.StartAt.Before(end) {
			return fmt.Errorf("%w: %s", bookingserrors.ErrTimeConflict, other.ID)
		}
	}
	return nil
}

func span(b *model.Booking) (time.Time, time.Time, bool) {
	if !b.StartAt.IsZero() && !b.EndAt.IsZero() {
		return b.StartAt, b.EndAt, true
	}
	start, err := b.StartsAt()
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, start.Add(time.Duration(b.Duration) * time.Minute), true
}

func (s *bookingService) releaseLock(ctx context.Context, key, owner string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
	defer cancel()

	if err := s.locker.Release(ctx, key, owner); err != nil {
		s.cfg.Log.Warn("Failed to release slot lock", "slot_key", key, "error", err)
	}
}

// applyDefaults builds the booking from the draft. The mentor's offering is authoritative for
// price and duration, and the stored date and time are in the mentor's timezone.
func (s *bookingService) applyDefaults(draft *model.BookingDraft, mentor *model.MentorProfile, offering model.Service) (*model.Booking, error) {
	loc := timeofday.LoadLocation(mentor.Timezone, s.cfg.Location())

	booking := &model.Booking{
		ExpertID:    draft.ExpertID,
		UserName:    draft.UserName,
		UserEmail:   draft.UserEmail,
		UserPhone:   draft.UserPhone,
		SessionType: draft.SessionType,
		Timezone:    loc.String(),
		Duration:    offering.DurationMinutes(),
		Message:     draft.Message,
		TotalAmount: offering.Amount(),
		Status:      model.BookingStatusPending,
	}

	if draft.SessionType.NeedsScheduling() {
		date, hhmm, err := inMentorZone(draft, loc)
		if err != nil {
			return nil, err
		}
		if date != draft.ScheduledDate || hhmm != draft.ScheduledTime {
			s.cfg.Log.Info("Converted requested time to the mentor's timezone",
				"expert_id", draft.ExpertID,
				"from", draft.ScheduledDate+" "+draft.ScheduledTime+" "+draft.Timezone,
				"to", date+" "+hhmm+" "+loc.String(),
			)
		}
		booking.ScheduledDate = date
		booking.ScheduledTime = hhmm
		if draft.Duration != 0 && draft.Duration != booking.Duration {
			s.cfg.Log.Warn("Draft duration differs from the mentor's offering",
				"expert_id", draft.ExpertID,
				"draft", draft.Duration,
				"offering", booking.Duration,
			)
		}
	} else {
		booking.ScheduledDate = timeofday.Today(s.now(), loc)
		booking.ScheduledTime = timeofday.PlaceholderTime
	}
	return booking, nil
}

// inMentorZone reads the draft's date and time in the draft's timezone and returns the same
// instant on the mentor's clock. Without a draft timezone the values are already the mentor's.
func inMentorZone(draft *model.BookingDraft, mentorLoc *time.Location) (string, string, error) {
	if draft.Timezone == "" || draft.Timezone == mentorLoc.String() {
		return draft.ScheduledDate, draft.ScheduledTime, nil
	}
	studentLoc, err := time.LoadLocation(draft.Timezone)
	if err != nil {
		return "", "", apperrors.Validation("Please choose a valid timezone, such as Europe/London.",
			validation.Errors{{Field: "timezone", Message: "timezone must be a valid IANA zone"}}.Details())
	}

	start, err := timeofday.StartOf(draft.ScheduledDate, draft.ScheduledTime, studentLoc)
	if err != nil {
		// Left as submitted so validation reports the malformed field.
		return draft.ScheduledDate, draft.ScheduledTime, nil
	}
	local := start.In(mentorLoc)
	return local.Format(timeofday.DateLayout), local.Format("15:04"), nil
}

func (s *bookingService) sanitize(booking *model.Booking) {
	booking.UserName = sanitizer.NormalizeName(booking.UserName)
	booking.UserEmail = sanitizer.NormalizeEmail(booking.UserEmail)
	booking.UserPhone = sanitizer.NormalizePhone(booking.UserPhone)
	booking.Message = sanitizer.NormalizeText(booking.Message)
	booking.ScheduledDate = sanitizer.TrimAndNormalize(booking.ScheduledDate)
	booking.ScheduledTime = sanitizer.TrimAndNormalize(booking.ScheduledTime)
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.readError(err, id)
	}
	s.seal(booking)
	return booking, nil
}

// GetByReference resolves a sealed reference. A token that does not open, or whose email no
// longer matches the booking, is reported as not found.
func (s *bookingService) GetByReference(ctx context.Context, token string) (*model.Booking, error) {
	if s.sealer == nil || token == "" {
		return nil, apperrors.NotFound("Booking")
	}

	id, email, err := s.sealer.Open(token)
	if err != nil {
		s.cfg.Log.Info("Booking reference rejected", "error", err)
		return nil, apperrors.NotFound("Booking")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.NotFound("Booking")
		}
		return nil, s.readError(err, id)
	}
	if booking.UserEmail != email {
		return nil, apperrors.NotFound("Booking")
	}

	booking.Reference = token
	return booking, nil
}

func (s *bookingService) ListForMentorAndDate(ctx context.Context, mentorID, date string) ([]*model.Booking, error) {
	if !primitive.IsValidObjectID(mentorID) {
		return nil, apperrors.InvalidInput("Invalid mentor ID format")
	}
	if !timeofday.IsValidDate(date) {
		return nil, apperrors.InvalidInput("date must be YYYY-MM-DD")
	}

	bookings, err := s.repo.FindByMentorAndDate(ctx, mentorID, date)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "mentor_id", mentorID, "date", date, "error", err)
		if errors.Is(err, context.Canceled) {
			return nil, apperrors.Aborted(err)
		}
		return nil, apperrors.Internal("We couldn't load the bookings right now. Please try again.", err)
	}
	return bookings, nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error) {
	rawLink := update.MeetingLink
	update.MeetingLink = sanitizer.NormalizeMeetingLink(rawLink)
	update.MeetingProvider = sanitizer.TrimAndNormalize(update.MeetingProvider)

	if rawLink != "" && update.MeetingLink == "" {
		return nil, apperrors.Validation("Please enter a valid meeting link.",
			validation.Errors{{Field: "meeting_link", Message: "meeting_link must be a valid URL"}}.Details())
	}
	if err := s.validator.ValidateStatusUpdate(update); err != nil {
		return nil, validationError("Please check the status update and try again.", err)
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.readError(err, id)
	}
	if !model.CanTransition(current.Status, update.Status) {
		return nil, apperrors.Conflict(fmt.Sprintf("This booking is already %s and can't be changed to %s.", current.Status, update.Status))
	}

	updated, err := s.repo.UpdateStatus(ctx, id, current.Status, update.Status, update.MeetingLink, update.MeetingProvider)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrStatusChanged) {
			return nil, apperrors.Conflict("This booking was just updated by someone else. Please refresh and try again.")
		}
		s.cfg.Log.Error("Failed to update booking status", "id", id, "status", update.Status, "error", err)
		return nil, writeError(err)
	}

	s.seal(updated)
	s.cfg.Log.Info("Booking status updated", "id", id, "from", current.Status, "to", updated.Status)

	snapshot := *updated
	s.notify(ctx, "status_changed", updated.ID, func(ctx context.Context) error {
		mentor, err := s.mentors.FindByID(ctx, snapshot.ExpertID)
		if err != nil {
			s.cfg.Log.Warn("Notifying without mentor profile", "booking_id", snapshot.ID, "error", err)
		}
		return s.notifier.StatusChanged(ctx, &snapshot, mentor)
	})
	return updated, nil
}

// Complete marks a confirmed booking completed once its session has ended.
func (s *bookingService) Complete(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.repo.UpdateStatus(ctx, id, model.BookingStatusConfirmed, model.BookingStatusCompleted, "", "")
	if err != nil {
		switch {
		case errors.Is(err, bookingserrors.ErrStatusChanged):
			return nil, apperrors.Conflict("Only confirmed bookings can be completed.")
		case errors.Is(err, bookingserrors.ErrInvalidID):
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, writeError(err)
	}

	s.cfg.Log.Info("Booking completed", "id", id)
	return booking, nil
}

func (s *bookingService) loadMentor(ctx context.Context, id string) (*model.MentorProfile, error) {
	policy := retry.Policy{
		Attempts:        s.cfg.ReadRetryAttempts,
		InitialInterval: s.cfg.ReadRetryInitialInterval,
		MaxInterval:     s.cfg.ReadRetryMaxInterval,
		OnRetry: func(err error, wait time.Duration) {
			s.cfg.Log.Warn("Retrying mentor profile read", "mentor_id", id, "wait", wait, "error", err)
		},
	}

	mentor, err := retry.Do(ctx, policy, func(ctx context.Context) (*model.MentorProfile, error) {
		m, err := s.mentors.FindByID(ctx, id)
		if errors.Is(err, mentorserrors.ErrNotFound) || errors.Is(err, mentorserrors.ErrInvalidID) {
			return nil, retry.Permanent(err)
		}
		return m, err
	})
	if err == nil {
		return mentor, nil
	}

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

func (s *bookingService) seal(booking *model.Booking) {
	if s.sealer == nil || booking.ID == "" {
		return
	}
	ref, err := s.sealer.Seal(booking.ID, booking.UserEmail)
	if err != nil {
		s.cfg.Log.Warn("Failed to seal booking reference", "id", booking.ID, "error", err)
		return
	}
	booking.Reference = ref
}

// notify runs send after the caller has returned. It never affects the caller's result.
func (s *bookingService) notify(ctx context.Context, kind, bookingID string, send func(context.Context) error) {
	if s.notifier == nil {
		return
	}
	detached := context.WithoutCancel(ctx)

	s.async(func() {
		ctx, cancel := context.WithTimeout(detached, notifyTimeout)
		defer cancel()

		if err := send(ctx); err != nil {
			s.cfg.Log.Warn("Failed to send booking notification", "kind", kind, "booking_id", bookingID, "error", err)
		}
	})
}

func (s *bookingService) readError(err error, id string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	case errors.Is(err, context.Canceled):
		return apperrors.Aborted(err)
	}
	s.cfg.Log.Error("Failed to load booking", "id", id, "error", err)
	return apperrors.Internal("We couldn't load this booking right now. Please try again.", err)
}

func writeError(err error) error {
	if errors.Is(err, context.Canceled) {
		return apperrors.Aborted(err)
	}
	return apperrors.Internal("We couldn't save your booking. Please try again.", err)
}

func validationError(message string, err error) error {
	var errs validation.Errors
	if errors.As(err, &errs) {
		return apperrors.Validation(message, errs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
