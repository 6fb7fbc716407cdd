package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	mentorserrors "mentorhub/internal/mentors/errors"
	wizarderrors "mentorhub/internal/wizard/errors"
	"mentorhub/internal/wizard/fsm"
	"mentorhub/internal/wizard/session"
	"mentorhub/pkg/config"
	apperrors "mentorhub/pkg/errors"
	"mentorhub/pkg/logger"
	"mentorhub/pkg/model"
)

const mentorID = "65f1a2b3c4d5e6f7a8b9c0d1"

// memoryRepository stores sessions as JSON, the way Redis does.
type memoryRepository struct {
	data map[string][]byte
}

func (r *memoryRepository) Save(_ context.Context, s *session.Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	r.data[s.ID] = b
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (*session.Session, error) {
	b, ok := r.data[id]
	if !ok {
		return nil, wizarderrors.ErrSessionNotFound
	}
	var s session.Session
	return &s, json.Unmarshal(b, &s)
}

type fakeMentors struct{}

func (fakeMentors) FindByID(_ context.Context, id string) (*model.MentorProfile, error) {
	if id != mentorID {
		return nil, mentorserrors.ErrNotFound
	}
	live, _ := model.NewService(model.SessionOneOnOne, 30, 50)
	chat, _ := model.NewService(model.SessionChatAdvice, 0, 10)
	return &model.MentorProfile{ID: mentorID, Name: "Dana", Timezone: "UTC",
		Services: []model.ServiceOffering{{Service: live}, {Service: chat}}}, nil
}

type fakeBookings struct {
	err    error
	drafts []*model.BookingDraft
}

func (b *fakeBookings) Create(_ context.Context, d *model.BookingDraft) (*model.Booking, error) {
	b.drafts = append(b.drafts, d)
	if b.err != nil {
		return nil, b.err
	}
	return &model.Booking{ID: "b1", Status: model.BookingStatusPending}, nil
}

type fakeSlots struct {
	duration int
}

func (s *fakeSlots) Resolve(_ context.Context, _, date string, durationMin int) ([]model.TimeSlot, error) {
	s.duration = durationMin
	return []model.TimeSlot{{Date: date, Time: "09:00", Available: true}}, nil
}

func newTestService(bookings *fakeBookings, slots *fakeSlots) *wizardService {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{Log: log, DefaultTimezone: "UTC"}
	svc := NewWizardService(&memoryRepository{data: map[string][]byte{}}, fakeMentors{}, bookings, slots, cfg).(*wizardService)
	svc.now = func() time.Time { return time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestWizard_LiveSessionFlow(t *testing.T) {
	ctx := context.Background()
	bookings := &fakeBookings{}
	slots := &fakeSlots{}
	svc := newTestService(bookings, slots)

	sess, err := svc.Start(ctx, &StartRequest{MentorID: mentorID})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := svc.Slots(ctx, sess.ID, "2030-01-07"); !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Errorf("slots before choosing a service should conflict, got %v", err)
	}

	if sess, err = svc.SelectService(ctx, sess.ID, model.SessionOneOnOne); err != nil || sess.State != fsm.SelectingDateTime {
		t.Fatalf("SelectService: %v (%v)", sess, err)
	}

	got, err := svc.Slots(ctx, sess.ID, "2030-01-07")
	if err != nil || len(got) != 1 || slots.duration != 30 {
		t.Fatalf("slots should use the service duration: %v %v %d", got, err, slots.duration)
	}

	if sess, err = svc.SelectDateTime(ctx, sess.ID, session.DateTime{Date: "2030-01-07", Time: "09:00", Timezone: "UTC"}); err != nil {
		t.Fatalf("SelectDateTime: %v", err)
	}
	if sess.State != fsm.Confirming {
		t.Fatalf("expected confirming, got %s", sess.State)
	}

	if _, err := svc.SetDetails(ctx, sess.ID, session.Details{Name: "Sam", Email: "sam@example.com", Purpose: "Interview prep"}); err != nil {
		t.Fatalf("SetDetails: %v", err)
	}

	sess, booking, err := svc.Submit(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if booking.ID != "b1" || sess.Open || !sess.Success.Visible {
		t.Errorf("unexpected result %+v / %+v", booking, sess)
	}
	if d := bookings.drafts[0]; d.ScheduledTime != "09:00" || d.Duration != 30 {
		t.Errorf("unexpected draft %+v", d)
	}

	if _, _, err := svc.Submit(ctx, sess.ID); !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Errorf("resubmitting should conflict, got %v", err)
	}
}

func TestWizard_SubmitFailurePersists(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&fakeBookings{err: apperrors.Conflict("This time slot is no longer available.")}, &fakeSlots{})

	sess, _ := svc.Start(ctx, &StartRequest{MentorID: mentorID})
	_, _ = svc.SelectService(ctx, sess.ID, model.SessionChatAdvice)
	_, _ = svc.SetDetails(ctx, sess.ID, session.Details{Name: "Sam", Email: "sam@example.com", Purpose: "Pricing"})

	_, _, err := svc.Submit(ctx, sess.ID)
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected the booking error, got %v", err)
	}

	stored, err := svc.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !stored.Open || stored.State != fsm.Confirming || stored.LastError != "This time slot is no longer available." {
		t.Errorf("failure should be saved with the session intact: %+v", stored)
	}
	if stored.Details.Purpose != "Pricing" {
		t.Error("details must be kept")
	}
}

func TestWizard_Errors(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&fakeBookings{}, &fakeSlots{})

	if _, err := svc.Start(ctx, &StartRequest{MentorID: "65f1a2b3c4d5e6f7a8b9c0d2"}); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("unknown mentor should be not found, got %v", err)
	}
	if _, err := svc.Start(ctx, &StartRequest{MentorID: mentorID, Preselected: &session.DateTime{Time: "9am"}}); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("bad preselected time should be rejected, got %v", err)
	}
	if _, err := svc.Get(ctx, uuid.NewString()); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expired session should be not found, got %v", err)
	}

	sess, _ := svc.Start(ctx, &StartRequest{MentorID: mentorID})
	if _, err := svc.Back(ctx, sess.ID); !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Errorf("back from the first step should conflict, got %v", err)
	}
	if _, err := svc.SelectService(ctx, sess.ID, model.SessionNotes); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("a service the mentor doesn't offer should be rejected, got %v", err)
	}
	if _, _, err := svc.Submit(ctx, sess.ID); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("submitting early should be a validation error, got %v", err)
	}
}
