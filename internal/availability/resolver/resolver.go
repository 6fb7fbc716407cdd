// Package resolver turns a mentor's availability rules, blocked dates and active bookings
// into the bookable start times for one calendar day.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	availabilityerrors "mentorhub/internal/availability/errors"
	mentorserrors "mentorhub/internal/mentors/errors"
	"mentorhub/pkg/config"
	apperrors "mentorhub/pkg/errors"
	"mentorhub/pkg/logger"
	"mentorhub/pkg/model"
	"mentorhub/pkg/retry"
	"mentorhub/pkg/timeofday"
)

const MaxDurationMinutes = 480

type ProfileReader interface {
	FindByID(ctx context.Context, id string) (*model.MentorProfile, error)
}

type RuleReader interface {
	FindForDate(ctx context.Context, mentorID, date string, weekday int) ([]*model.AvailabilityRule, error)
}

type BlockedDateReader interface {
	IsBlocked(ctx context.Context, mentorID, date string) (bool, error)
}

type BookingReader interface {
	FindActiveByMentorAndDates(ctx context.Context, mentorID string, dates []string) ([]*model.Booking, error)
}

type Options struct {
	// Granularity is the distance between candidate starts; zero uses the requested duration.
	Granularity     int
	MergePolicy     string
	DefaultLocation *time.Location
	Retry           retry.Policy
	Now             func() time.Time
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Granularity:     cfg.SlotGranularityMin,
		MergePolicy:     cfg.AvailabilityMergePolicy,
		DefaultLocation: cfg.Location(),
		Retry: retry.Policy{
			Attempts:        cfg.ReadRetryAttempts,
			InitialInterval: cfg.ReadRetryInitialInterval,
			MaxInterval:     cfg.ReadRetryMaxInterval,
		},
	}
}

type Resolver struct {
	profiles ProfileReader
	rules    RuleReader
	blocked  BlockedDateReader
	bookings BookingReader
	opts     Options
	log      *logger.Logger
}

func New(profiles ProfileReader, rules RuleReader, blocked BlockedDateReader, bookings BookingReader, opts Options, log *logger.Logger) *Resolver {
	if opts.DefaultLocation == nil {
		opts.DefaultLocation = time.UTC
	}
	if opts.MergePolicy == "" {
		opts.MergePolicy = config.MergePolicyUnion
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Retry.Attempts == 0 {
		opts.Retry = retry.DefaultPolicy()
	}
	return &Resolver{
		profiles: profiles,
		rules:    rules,
		blocked:  blocked,
		bookings: bookings,
		opts:     opts,
		log:      log,
	}
}

// candidate is a slot start in minutes from midnight of the resolved date; values at or past
// 1440 start on the following day.
type candidate struct {
	start     int
	available bool
}

// Resolve returns the slots of durationMin minutes that the mentor's rules open on date,
// ordered by start. A past or blocked date yields an empty slice and no error.
func (r *Resolver) Resolve(ctx context.Context, mentorID, date string, durationMin int) ([]model.TimeSlot, error) {
	if err := checkRequest(mentorID, date, durationMin); err != nil {
		return nil, err
	}

	loc, err := r.Location(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	now := r.opts.Now()

	if date < timeofday.Today(now, loc) {
		return []model.TimeSlot{}, nil
	}
	return r.resolveDay(ctx, mentorID, date, durationMin, loc, now)
}

// IsSlotAvailable reports whether a slot starting at date/hhmm is open, including slots
// contributed by a rule of the previous day that runs past midnight.
func (r *Resolver) IsSlotAvailable(ctx context.Context, mentorID, date, hhmm string, durationMin int) (bool, error) {
	if err := checkRequest(mentorID, date, durationMin); err != nil {
		return false, err
	}
	if !timeofday.IsValid(hhmm) {
		return false, fmt.Errorf("%w: time must be HH:MM", availabilityerrors.ErrInvalidRequest)
	}

	loc, err := r.Location(ctx, mentorID)
	if err != nil {
		return false, err
	}
	now := r.opts.Now()
	if date < timeofday.Today(now, loc) {
		return false, nil
	}

	// A blocked day also closes the next-day tail of yesterday's rules.
	blocked, err := read(ctx, r, "blocked dates", func(ctx context.Context) (bool, error) {
		return r.blocked.IsBlocked(ctx, mentorID, date)
	})
	if err != nil || blocked {
		return false, err
	}

	prev, _ := timeofday.AddDays(date, -1)
	for _, day := range []string{date, prev} {
		slots, err := r.resolveDay(ctx, mentorID, day, durationMin, loc, now)
		if err != nil {
			return false, err
		}
		for _, s := range slots {
			if s.Date == date && s.Time == hhmm {
				return s.Available, nil
			}
		}
	}

	return false, nil
}

// Location is the mentor's timezone, or the configured default when the mentor has no profile.
func (r *Resolver) Location(ctx context.Context, mentorID string) (*time.Location, error) {
	profile, err := read(ctx, r, "profile", func(ctx context.Context) (*model.MentorProfile, error) {
		p, err := r.profiles.FindByID(ctx, mentorID)
		if errors.Is(err, mentorserrors.ErrNotFound) {
			return nil, nil
		}
		if errors.Is(err, mentorserrors.ErrInvalidID) {
			return nil, retry.Permanent(err)
		}
		return p, err
	})
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return r.opts.DefaultLocation, nil
	}
	return timeofday.LoadLocation(profile.Timezone, r.opts.DefaultLocation), nil
}

func (r *Resolver) resolveDay(ctx context.Context, mentorID, date string, durationMin int, loc *time.Location, now time.Time) ([]model.TimeSlot, error) {
	blocked, err := read(ctx, r, "blocked dates", func(ctx context.Context) (bool, error) {
		return r.blocked.IsBlocked(ctx, mentorID, date)
	})
	if err != nil {
		return nil, err
	}
	if blocked {
		return []model.TimeSlot{}, nil
	}

	weekday, _ := timeofday.Weekday(date)
	rules, err := read(ctx, r, "rules", func(ctx context.Context) ([]*model.AvailabilityRule, error) {
		return r.rules.FindForDate(ctx, mentorID, date, weekday)
	})
	if err != nil {
		return nil, err
	}

	candidates := r.candidates(merge(rules, date, weekday, r.opts.MergePolicy), durationMin)
	if len(candidates) == 0 {
		return []model.TimeSlot{}, nil
	}

	prev, _ := timeofday.AddDays(date, -1)
	next, _ := timeofday.AddDays(date, 1)
	if candidates, err = r.dropBlockedTail(ctx, mentorID, next, candidates); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []model.TimeSlot{}, nil
	}

	bookings, err := read(ctx, r, "bookings", func(ctx context.Context) ([]*model.Booking, error) {
		return r.bookings.FindActiveByMentorAndDates(ctx, mentorID, []string{prev, date, next})
	})
	if err != nil {
		return nil, err
	}

	busy := occupied(bookings, map[string]int{prev: -timeofday.MinutesPerDay, date: 0, next: timeofday.MinutesPerDay})

	slots := make([]model.TimeSlot, 0, len(candidates))
	for _, c := range candidates {
		window := timeofday.Interval{Start: c.start, End: c.start + durationMin}
		for _, b := range busy {
			if window.Overlaps(b) {
				c.available = false
				break
			}
		}
		if at, err := timeofday.At(date, c.start, loc); err == nil && !at.After(now) {
			c.available = false
		}

		slot := model.TimeSlot{Date: date, Time: timeofday.Format(c.start), Available: c.available}
		if c.start >= timeofday.MinutesPerDay {
			slot.Date = next
		}
		slots = append(slots, slot)
	}

	return slots, nil
}

// dropBlockedTail removes the after-midnight candidates when the next day is blocked.
func (r *Resolver) dropBlockedTail(ctx context.Context, mentorID, next string, candidates []candidate) ([]candidate, error) {
	if candidates[len(candidates)-1].start < timeofday.MinutesPerDay {
		return candidates, nil
	}

	blocked, err := read(ctx, r, "blocked dates", func(ctx context.Context) (bool, error) {
		return r.blocked.IsBlocked(ctx, mentorID, next)
	})
	if err != nil || !blocked {
		return candidates, err
	}

	kept := candidates[:0]
	for _, c := range candidates {
		if c.start < timeofday.MinutesPerDay {
			kept = append(kept, c)
		}
	}
	return kept, nil
}

// merge picks the rules that open time on date. Under the override policy one-off rules for
// the date replace the weekly rules.
func merge(rules []*model.AvailabilityRule, date string, weekday int, policy string) []*model.AvailabilityRule {
	var weekly, specific []*model.AvailabilityRule
	for _, rule := range rules {
		switch {
		case rule.IsRecurring && rule.Weekday() == weekday:
			weekly = append(weekly, rule)
		case !rule.IsRecurring && rule.SpecificDate == date:
			specific = append(specific, rule)
		}
	}

	if policy == config.MergePolicyOverride && len(specific) > 0 {
		return specific
	}
	return append(weekly, specific...)
}

func (r *Resolver) candidates(rules []*model.AvailabilityRule, durationMin int) []candidate {
	step := r.opts.Granularity
	if step <= 0 {
		step = durationMin
	}

	seen := make(map[int]bool)
	out := make([]candidate, 0)
	for _, rule := range rules {
		iv, err := timeofday.ParseInterval(rule.StartTime, rule.EndTime)
		if err != nil {
			r.log.Warn("Skipping malformed availability rule", "rule_id", rule.ID, "error", err)
			continue
		}
		for t := iv.Start; t+durationMin <= iv.End; t += step {
			if !seen[t] {
				seen[t] = true
				out = append(out, candidate{start: t, available: true})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

// occupied maps every booking that holds calendar time onto the resolved date's minute line.
func occupied(bookings []*model.Booking, offsets map[string]int) []timeofday.Interval {
	out := make([]timeofday.Interval, 0, len(bookings))
	for _, b := range bookings {
		offset, ok := offsets[b.ScheduledDate]
		if !ok || !b.Occupies() {
			continue
		}
		w, err := b.Window()
		if err != nil {
			continue
		}
		out = append(out, w.Shift(offset))
	}
	return out
}

func checkRequest(mentorID, date string, durationMin int) error {
	switch {
	case mentorID == "":
		return fmt.Errorf("%w: mentor id is required", availabilityerrors.ErrInvalidRequest)
	case !timeofday.IsValidDate(date):
		return fmt.Errorf("%w: date must be YYYY-MM-DD", availabilityerrors.ErrInvalidRequest)
	case durationMin <= 0 || durationMin > MaxDurationMinutes:
		return fmt.Errorf("%w: duration must be between 1 and %d minutes", availabilityerrors.ErrInvalidRequest, MaxDurationMinutes)
	}
	return nil
}

// read runs a store call with the read retry policy and classifies what is left.
func read[T any](ctx context.Context, r *Resolver, what string, op func(context.Context) (T, error)) (T, error) {
	policy := r.opts.Retry
	policy.OnRetry = func(err error, wait time.Duration) {
		r.log.Warn("Retrying availability read", "source", what, "wait", wait, "error", err)
	}

	v, err := retry.Do(ctx, policy, op)
	if err == nil {
		return v, nil
	}

	var zero T
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return zero, fmt.Errorf("%w: %w", availabilityerrors.ErrAborted, err)
	}
	if errors.Is(err, mentorserrors.ErrInvalidID) {
		return zero, fmt.Errorf("%w: %w", availabilityerrors.ErrInvalidRequest, err)
	}
	r.log.Error("Availability read failed", "source", what, "error", err)
	return zero, fmt.Errorf("%w: reading %s: %w", availabilityerrors.ErrResolutionFailed, what, err)
}

// TranslateError maps resolver errors onto API errors with user-facing messages.
func TranslateError(err error) error {
	switch {
	case err == nil:
		return nil
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, availabilityerrors.ErrInvalidRequest):
		return apperrors.InvalidInput(strings.TrimPrefix(err.Error(), availabilityerrors.ErrInvalidRequest.Error()+": "))
	case errors.Is(err, availabilityerrors.ErrAborted):
		return apperrors.Aborted(err)
	default:
		return apperrors.Unavailable("We couldn't load availability right now. Please try again.", err)
	}
}
