// Package reminders sends 24h and 1h session reminders and completes sessions that have ended.
package reminders

import (
	"context"
	"errors"
	"time"

	"mentorhub/internal/bookings/repository"
	"mentorhub/pkg/logger"
	"mentorhub/pkg/model"
)

const batchSize = 200

type Notifier interface {
	Reminder(ctx context.Context, booking *model.Booking, mentor *model.MentorProfile, window time.Duration) error
}

type MentorReader interface {
	FindByID(ctx context.Context, id string) (*model.MentorProfile, error)
}

type Completer interface {
	Complete(ctx context.Context, id string) (*model.Booking, error)
}

type window struct {
	flag             string
	span             time.Duration
	// supersededWithin claims the flag without sending when the session starts this soon,
	// leaving it to the shorter window.
	supersededWithin time.Duration
}

var windows = []window{
	{flag: repository.Reminder24h, span: 24 * time.Hour, supersededWithin: time.Hour},
	{flag: repository.Reminder1h, span: time.Hour},
}

// Report counts what one pass did.
type Report struct {
	Reminded24h int
	Reminded1h  int
	Completed   int
	Failed      int
}

type Job struct {
	bookings  repository.BookingRepository
	mentors   MentorReader
	completer Completer
	notifier  Notifier
	interval  time.Duration
	log       *logger.Logger
	now       func() time.Time
}

func NewJob(
	bookings repository.BookingRepository,
	mentors MentorReader,
	completer Completer,
	notifier Notifier,
	interval time.Duration,
	log *logger.Logger,
) *Job {
	return &Job{
		bookings:  bookings,
		mentors:   mentors,
		completer: completer,
		notifier:  notifier,
		interval:  interval,
		log:       log,
		now:       time.Now,
	}
}

// Run does a pass immediately and then once per interval until ctx ends.
func (j *Job) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		report, err := j.RunOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			j.log.Error("Reminder pass failed", "error", err)
		} else {
			j.log.Info("Reminder pass finished",
				"reminded_24h", report.Reminded24h,
				"reminded_1h", report.Reminded1h,
				"completed", report.Completed,
				"failed", report.Failed,
			)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce runs the three scans. A failing scan does not stop the others.
func (j *Job) RunOnce(ctx context.Context) (Report, error) {
	var report Report
	var errs []error
	now := j.now().UTC()

	for _, w := range windows {
		sent, failed, err := j.remind(ctx, w, now)
		if err != nil {
			errs = append(errs, err)
		}
		report.Failed += failed
		if w.flag == repository.Reminder24h {
			report.Reminded24h = sent
		} else {
			report.Reminded1h = sent
		}
	}

	completed, failed, err := j.completeEnded(ctx, now)
	if err != nil {
		errs = append(errs, err)
	}
	report.Completed = completed
	report.Failed += failed

	return report, errors.Join(errs...)
}

// remind claims each due booking by setting its flag before dispatching, so two job
// instances never both send; a crash between the two loses that reminder.
func (j *Job) remind(ctx context.Context, w window, now time.Time) (int, int, error) {
	due, err := j.bookings.FindDueForReminder(ctx, w.flag, now, now.Add(w.span), batchSize)
	if err != nil {
		return 0, 0, err
	}

	sent, failed := 0, 0
	for _, b := range due {
		if ctx.Err() != nil {
			return sent, failed, ctx.Err()
		}

		claimed, err := j.bookings.MarkReminderSent(ctx, b.ID, w.flag)
		if err != nil {
			j.log.Error("Failed to mark reminder", "booking_id", b.ID, "flag", w.flag, "error", err)
			failed++
			continue
		}
		if !claimed {
			continue
		}
		if w.supersededWithin > 0 && !b.StartAt.After(now.Add(w.supersededWithin)) {
			j.log.Debug("Skipping reminder superseded by a shorter window", "booking_id", b.ID, "flag", w.flag)
			continue
		}

		mentor, err := j.mentors.FindByID(ctx, b.ExpertID)
		if err != nil {
			j.log.Warn("Reminding without mentor profile", "booking_id", b.ID, "error", err)
			mentor = nil
		}
		if err := j.notifier.Reminder(ctx, b, mentor, w.span); err != nil {
			j.log.Error("Failed to send reminder", "booking_id", b.ID, "flag", w.flag, "error", err)
			failed++
			continue
		}
		sent++
	}
	return sent, failed, nil
}

func (j *Job) completeEnded(ctx context.Context, now time.Time) (int, int, error) {
	ended, err := j.bookings.FindEnded(ctx, now, batchSize)
	if err != nil {
		return 0, 0, err
	}

	completed, failed := 0, 0
	for _, b := range ended {
		if ctx.Err() != nil {
			return completed, failed, ctx.Err()
		}
		if _, err := j.completer.Complete(ctx, b.ID); err != nil {
			j.log.Warn("Failed to complete booking", "booking_id", b.ID, "error", err)
			failed++
			continue
		}
		completed++
	}
	return completed, failed, nil
}
