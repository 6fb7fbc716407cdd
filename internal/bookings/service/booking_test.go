package service

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	availabilityerrors "mentorhub/internal/availability/errors"
	bookingserrors "mentorhub/internal/bookings/errors"
	"mentorhub/internal/bookings/validator"
	mentorserrors "mentorhub/internal/mentors/errors"
	"mentorhub/pkg/config"
	mongotx "mentorhub/pkg/db/mongo"
	apperrors "mentorhub/pkg/errors"
	"mentorhub/pkg/logger"
	"mentorhub/pkg/model"
	"mentorhub/pkg/sealer"
)

const (
	mentorID  = "65f1a2b3c4d5e6f7a8b9c0d1"
	bookingID = "665f1c2e9b1d4a0012345678"
)

type mockBookingRepository struct {
	createFunc       func(ctx context.Context, booking *model.Booking) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Booking, error)
	findActiveFunc   func(ctx context.Context, mentorID string, dates []string) ([]*model.Booking, error)
	updateStatusFunc func(ctx context.Context, id, from, to, link, provider string) (*model.Booking, error)
	transactions     int
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	booking.ID = bookingID
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindByMentorAndDate(ctx context.Context, mentorID, date string) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindActiveByMentorAndDates(ctx context.Context, mentorID string, dates []string) ([]*model.Booking, error) {
	if m.findActiveFunc != nil {
		return m.findActiveFunc(ctx, mentorID, dates)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, id, from, to, link, provider string) (*model.Booking, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, from, to, link, provider)
	}
	return nil, bookingserrors.ErrStatusChanged
}

func (m *mockBookingRepository) FindDueForReminder(ctx context.Context, flag string, now, horizon time.Time, limit int) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) MarkReminderSent(ctx context.Context, id, flag string) (bool, error) {
	return false, nil
}

func (m *mockBookingRepository) FindEnded(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.transactions++
	return fn(ctx)
}

type mockLocker struct {
	acquireFunc func(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	released    []string
}

func (m *mockLocker) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, key, owner, ttl)
	}
	return true, nil
}

func (m *mockLocker) Release(ctx context.Context, key, owner string) error {
	m.released = append(m.released, key)
	return nil
}

type mockMentors struct {
	profile *model.MentorProfile
	err     error
	calls   int
}

func (m *mockMentors) FindByID(ctx context.Context, id string) (*model.MentorProfile, error) {
	m.calls++
	return m.profile, m.err
}

type mockSlots struct {
	available bool
	err       error
	calls     int
}

func (m *mockSlots) IsSlotAvailable(ctx context.Context, mentorID, date, hhmm string, durationMin int) (bool, error) {
	m.calls++
	return m.available, m.err
}

type recordingNotifier struct {
	mu      sync.Mutex
	created []*model.Booking
	changed []*model.Booking
	err     error
}

func (n *recordingNotifier) BookingCreated(ctx context.Context, booking *model.Booking, mentor *model.MentorProfile) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, booking)
	return n.err
}

func (n *recordingNotifier) StatusChanged(ctx context.Context, booking *model.Booking, mentor *model.MentorProfile) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, booking)
	return n.err
}

type fixture struct {
	repo     *mockBookingRepository
	locker   *mockLocker
	mentors  *mockMentors
	slots    *mockSlots
	notifier *recordingNotifier
}

func newFixture() *fixture {
	return &fixture{
		repo:     &mockBookingRepository{},
		locker:   &mockLocker{},
		mentors:  &mockMentors{profile: testMentor()},
		slots:    &mockSlots{available: true},
		notifier: &recordingNotifier{},
	}
}

func (f *fixture) service(t *testing.T) *bookingService {
	t.Helper()
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	seal, err := sealer.New(base64.StdEncoding.EncodeToString(make([]byte, 32)))
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}
	cfg := &config.Config{
		Log:               log,
		DefaultTimezone:   "UTC",
		SlotLockTTL:       10 * time.Second,
		ReadRetryAttempts: 2,

		ReadRetryInitialInterval: time.Millisecond,
	}

	svc := NewBookingService(f.repo, f.locker, f.mentors, f.slots, f.notifier, seal, validator.NewBookingValidator(log), cfg).(*bookingService)
	svc.now = func() time.Time { return time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC) }
	svc.async = func(fn func()) { fn() }
	return svc
}

func testMentor() *model.MentorProfile {
	live, _ := model.NewService(model.SessionOneOnOne, 60, 120)
	notes, _ := model.NewService(model.SessionNotes, 0, 15)
	return &model.MentorProfile{
		ID:       mentorID,
		Name:     "Dana Mentor",
		Email:    "dana@example.com",
		Timezone: "Asia/Jerusalem",
		Services: []model.ServiceOffering{{Service: live}, {Service: notes}},
	}
}

func liveDraft() *model.BookingDraft {
	return &model.BookingDraft{
		ExpertID:      mentorID,
		UserName:      "  Sam   Student ",
		UserEmail:     " Sam@Example.COM ",
		UserPhone:     "+972 50 234 5678",
		SessionType:   model.SessionOneOnOne,
		ScheduledDate: "2030-01-07",
		ScheduledTime: "10:00",
		Timezone:      "Asia/Jerusalem",
		Duration:      30,
		Message:       "Career advice  \n\n\n\nthanks",
		TotalAmount:   1,
	}
}

func TestCreate_OneOnOne(t *testing.T) {
	f := newFixture()
	svc := f.service(t)

	booking, err := svc.Create(context.Background(), liveDraft())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.ID != bookingID || booking.Status != model.BookingStatusPending {
		t.Errorf("unexpected id/status %s/%s", booking.ID, booking.Status)
	}
	if booking.UserName != "Sam Student" || booking.UserEmail != "sam@example.com" || booking.UserPhone != "+972502345678" {
		t.Errorf("fields not sanitized: %+v", booking)
	}
	if booking.Message != "Career advice\n\nthanks" {
		t.Errorf("message not normalized: %q", booking.Message)
	}
	if booking.Duration != 60 || booking.TotalAmount != 120 {
		t.Errorf("offering should set duration and price, got %d / %v", booking.Duration, booking.TotalAmount)
	}
	if booking.Timezone != "Asia/Jerusalem" {
		t.Errorf("slot should be in the mentor's timezone, got %s", booking.Timezone)
	}
	wantStart := time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC)
	if !booking.StartAt.Equal(wantStart) || !booking.EndAt.Equal(wantStart.Add(time.Hour)) {
		t.Errorf("unexpected window %s - %s", booking.StartAt, booking.EndAt)
	}
	if booking.SlotKey != mentorID+"|2030-01-07|10:00" {
		t.Errorf("unexpected slot key %q", booking.SlotKey)
	}
	if booking.Reference == "" {
		t.Error("expected a sealed reference")
	}
	if f.repo.transactions != 1 || f.slots.calls != 1 {
		t.Errorf("expected one availability check and one transaction, got %d/%d", f.slots.calls, f.repo.transactions)
	}
	if len(f.locker.released) != 1 {
		t.Errorf("slot lock should be released, got %v", f.locker.released)
	}
	if len(f.notifier.created) != 1 || f.notifier.created[0].ID != bookingID {
		t.Errorf("expected one created notification, got %v", f.notifier.created)
	}
}

func TestCreate_ReadsTimeInDraftTimezone(t *testing.T) {
	tests := []struct {
		name      string
		date, at  string
		timezone  string
		wantDate  string
		wantTime  string
		wantStart time.Time
	}{
		{
			name: "no timezone means the mentor's clock", date: "2030-01-07", at: "10:00",
			wantDate: "2030-01-07", wantTime: "10:00", wantStart: time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "student timezone is converted", date: "2030-01-07", at: "10:00", timezone: "America/New_York",
			wantDate: "2030-01-07", wantTime: "17:00", wantStart: time.Date(2030, 1, 7, 15, 0, 0, 0, time.UTC),
		},
		{
			name: "conversion can move the date", date: "2030-01-07", at: "20:00", timezone: "America/New_York",
			wantDate: "2030-01-08", wantTime: "03:00", wantStart: time.Date(2030, 1, 8, 1, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			draft := liveDraft()
			draft.ScheduledDate, draft.ScheduledTime, draft.Timezone = tt.date, tt.at, tt.timezone

			booking, err := f.service(t).Create(context.Background(), draft)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if booking.ScheduledDate != tt.wantDate || booking.ScheduledTime != tt.wantTime {
				t.Errorf("stored %s %s, want %s %s", booking.ScheduledDate, booking.ScheduledTime, tt.wantDate, tt.wantTime)
			}
			if booking.Timezone != "Asia/Jerusalem" || !booking.StartAt.Equal(tt.wantStart) {
				t.Errorf("unexpected instant %s in %s", booking.StartAt, booking.Timezone)
			}
		})
	}

	t.Run("unknown timezone", func(t *testing.T) {
		f := newFixture()
		draft := liveDraft()
		draft.Timezone = "Mars/Olympus"

		_, err := f.service(t).Create(context.Background(), draft)
		if !apperrors.HasCode(err, apperrors.CodeValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if f.slots.calls != 0 {
			t.Error("slot check should not run for an invalid timezone")
		}
	})
}

func TestCreate_Unscheduled(t *testing.T) {
	f := newFixture()
	svc := f.service(t)

	draft := liveDraft()
	draft.SessionType = model.SessionNotes
	draft.ScheduledDate = ""
	draft.ScheduledTime = ""
	draft.Duration = 0

	booking, err := svc.Create(context.Background(), draft)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.ScheduledDate != "2024-06-03" || booking.ScheduledTime != "00:00" || booking.Duration != 0 {
		t.Errorf("unexpected placeholder schedule %s %s %d", booking.ScheduledDate, booking.ScheduledTime, booking.Duration)
	}
	if booking.SlotKey != "" {
		t.Errorf("unscheduled bookings must not take a slot key")
	}
	if f.repo.transactions != 0 || f.slots.calls != 0 {
		t.Error("unscheduled bookings skip the slot checks")
	}
}

func TestCreate_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(f *fixture, d *model.BookingDraft)
		wantStatus int
	}{
		{
			name:       "invalid mentor id",
			modify:     func(_ *fixture, d *model.BookingDraft) { d.ExpertID = "nope" },
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown mentor",
			modify:     func(f *fixture, _ *model.BookingDraft) { f.mentors.profile, f.mentors.err = nil, mentorserrors.ErrNotFound },
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "service not offered",
			modify:     func(_ *fixture, d *model.BookingDraft) { d.SessionType = model.SessionChatAdvice },
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "missing purpose",
			modify:     func(_ *fixture, d *model.BookingDraft) { d.Message = "   " },
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "bad phone",
			modify:     func(_ *fixture, d *model.BookingDraft) { d.UserPhone = "call me" },
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "bad time",
			modify:     func(_ *fixture, d *model.BookingDraft) { d.ScheduledTime = "25:00" },
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "lock held",
			modify: func(f *fixture, _ *model.BookingDraft) {
				f.locker.acquireFunc = func(context.Context, string, string, time.Duration) (bool, error) { return false, nil }
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "slot no longer offered",
			modify:     func(f *fixture, _ *model.BookingDraft) { f.slots.available = false },
			wantStatus: http.StatusConflict,
		},
		{
			name:       "availability store down",
			modify:     func(f *fixture, _ *model.BookingDraft) { f.slots.err = availabilityerrors.ErrResolutionFailed },
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name: "overlapping booking found in transaction",
			modify: func(f *fixture, _ *model.BookingDraft) {
				f.repo.findActiveFunc = func(context.Context, string, []string) ([]*model.Booking, error) {
					return []*model.Booking{{
						ID:            "other",
						SessionType:   model.SessionOneOnOne,
						Status:        model.BookingStatusConfirmed,
						Duration:      60,
						ScheduledDate: "2030-01-07",
						ScheduledTime: "09:30",
						StartAt:       time.Date(2030, 1, 7, 7, 30, 0, 0, time.UTC),
						EndAt:         time.Date(2030, 1, 7, 8, 30, 0, 0, time.UTC),
					}}, nil
				}
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "duplicate slot key",
			modify: func(f *fixture, _ *model.BookingDraft) {
				f.repo.createFunc = func(context.Context, *model.Booking) error {
					return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
				}
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "write failure",
			modify: func(f *fixture, _ *model.BookingDraft) {
				f.repo.createFunc = func(context.Context, *model.Booking) error { return errors.New("socket closed") }
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			draft := liveDraft()
			tt.modify(f, draft)
			svc := f.service(t)

			_, err := svc.Create(context.Background(), draft)
			appErr := apperrors.AsAppError(err)
			if appErr == nil {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.StatusCode() != tt.wantStatus {
				t.Errorf("expected status %d, got %d (%v)", tt.wantStatus, appErr.StatusCode(), err)
			}
			if len(f.notifier.created) != 0 {
				t.Error("a failed create must not notify")
			}
		})
	}
}

func TestCreate_SlotConflictNamesSlot(t *testing.T) {
	f := newFixture()
	f.slots.available = false

	_, err := f.service(t).Create(context.Background(), liveDraft())

	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if appErr.Details["date"] != "2030-01-07" || appErr.Details["time"] != "10:00" {
		t.Errorf("conflict should name the slot, got %v", appErr.Details)
	}
}

func TestCreate_NotificationFailureDoesNotFail(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("broker down")
	svc := f.service(t)

	if _, err := svc.Create(context.Background(), liveDraft()); err != nil {
		t.Fatalf("notification failure leaked into result: %v", err)
	}
}

func TestCreate_MentorReadRetried(t *testing.T) {
	f := newFixture()
	f.mentors.err = errors.New("timeout")
	f.mentors.profile = nil
	svc := f.service(t)

	_, err := svc.Create(context.Background(), liveDraft())
	if !apperrors.HasCode(err, apperrors.CodeUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if f.mentors.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", f.mentors.calls)
	}
}

func TestUpdateStatus(t *testing.T) {
	pending := func() *model.Booking {
		return &model.Booking{ID: bookingID, ExpertID: mentorID, UserEmail: "sam@example.com", Status: model.BookingStatusPending}
	}

	t.Run("confirm with meeting link", func(t *testing.T) {
		f := newFixture()
		f.repo.findByIDFunc = func(context.Context, string) (*model.Booking, error) { return pending(), nil }
		var gotLink, gotFrom string
		f.repo.updateStatusFunc = func(_ context.Context, id, from, to, link, provider string) (*model.Booking, error) {
			gotFrom, gotLink = from, link
			b := pending()
			b.Status, b.MeetingLink, b.MeetingProvider = to, link, provider
			return b, nil
		}
		svc := f.service(t)

		updated, err := svc.UpdateStatus(context.Background(), bookingID, &model.BookingStatusUpdate{
			Status:          model.BookingStatusConfirmed,
			MeetingLink:     "meet.example.com/abc?utm_source=mail",
			MeetingProvider: " Meet ",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotFrom != model.BookingStatusPending || gotLink != "https://meet.example.com/abc" {
			t.Errorf("unexpected update from=%s link=%s", gotFrom, gotLink)
		}
		if updated.MeetingProvider != "Meet" {
			t.Errorf("provider not trimmed: %q", updated.MeetingProvider)
		}
		if len(f.notifier.changed) != 1 {
			t.Errorf("student should be notified once, got %d", len(f.notifier.changed))
		}
	})

	t.Run("already confirmed", func(t *testing.T) {
		f := newFixture()
		f.repo.findByIDFunc = func(context.Context, string) (*model.Booking, error) {
			b := pending()
			b.Status = model.BookingStatusConfirmed
			return b, nil
		}
		svc := f.service(t)

		_, err := svc.UpdateStatus(context.Background(), bookingID, &model.BookingStatusUpdate{Status: model.BookingStatusCancelled})
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("lost race", func(t *testing.T) {
		f := newFixture()
		f.repo.findByIDFunc = func(context.Context, string) (*model.Booking, error) { return pending(), nil }
		svc := f.service(t)

		_, err := svc.UpdateStatus(context.Background(), bookingID, &model.BookingStatusUpdate{Status: model.BookingStatusCancelled})
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
		if len(f.notifier.changed) != 0 {
			t.Error("no notification for a failed update")
		}
	})

	t.Run("completed is not a mentor transition", func(t *testing.T) {
		svc := newFixture().service(t)
		_, err := svc.UpdateStatus(context.Background(), bookingID, &model.BookingStatusUpdate{Status: model.BookingStatusCompleted})
		if !apperrors.HasCode(err, apperrors.CodeValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestGetByReference(t *testing.T) {
	f := newFixture()
	f.repo.findByIDFunc = func(_ context.Context, id string) (*model.Booking, error) {
		if id != bookingID {
			return nil, bookingserrors.ErrNotFound
		}
		return &model.Booking{ID: bookingID, UserEmail: "sam@example.com", Status: model.BookingStatusPending}, nil
	}
	svc := f.service(t)

	token, _ := svc.sealer.Seal(bookingID, "sam@example.com")
	booking, err := svc.GetByReference(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Reference != token {
		t.Errorf("reference should echo the token")
	}

	stale, _ := svc.sealer.Seal(bookingID, "someone@else.com")
	for name, tok := range map[string]string{"garbage": "abc", "email mismatch": stale, "empty": ""} {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.GetByReference(context.Background(), tok); !apperrors.HasCode(err, apperrors.CodeNotFound) {
				t.Errorf("expected not found, got %v", err)
			}
		})
	}
}

func TestComplete(t *testing.T) {
	f := newFixture()
	var from, to string
	f.repo.updateStatusFunc = func(_ context.Context, id, fromStatus, toStatus, _, _ string) (*model.Booking, error) {
		from, to = fromStatus, toStatus
		return &model.Booking{ID: id, Status: toStatus}, nil
	}
	svc := f.service(t)

	if _, err := svc.Complete(context.Background(), bookingID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from != model.BookingStatusConfirmed || to != model.BookingStatusCompleted {
		t.Errorf("unexpected transition %s -> %s", from, to)
	}

	f.repo.updateStatusFunc = nil
	if _, err := svc.Complete(context.Background(), bookingID); !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Errorf("expected conflict for a booking that is not confirmed, got %v", err)
	}
}

func TestListForMentorAndDate_ValidatesInput(t *testing.T) {
	svc := newFixture().service(t)

	if _, err := svc.ListForMentorAndDate(context.Background(), "bad", "2030-01-07"); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected invalid input for mentor id, got %v", err)
	}
	if _, err := svc.ListForMentorAndDate(context.Background(), mentorID, "07/01/2030"); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected invalid input for date, got %v", err)
	}
}
