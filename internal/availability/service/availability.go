package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	availabilityerrors "mentorhub/internal/availability/errors"
	"mentorhub/internal/availability/repository"
	"mentorhub/internal/availability/resolver"
	"mentorhub/internal/availability/validator"
	"mentorhub/pkg/config"
	apperrors "mentorhub/pkg/errors"
	"mentorhub/pkg/model"
	"mentorhub/pkg/sanitizer"
	"mentorhub/pkg/timeofday"
	"mentorhub/pkg/validation"
)

type SlotResolver interface {
	Resolve(ctx context.Context, mentorID, date string, durationMin int) ([]model.TimeSlot, error)
	Location(ctx context.Context, mentorID string) (*time.Location, error)
}

type BlockResult struct {
	Dates   []string `json:"dates"`
	Created int64    `json:"created"`
}

type AvailabilityService interface {
	ListRules(ctx context.Context, mentorID string) ([]*model.AvailabilityRule, error)
	AddRules(ctx context.Context, mentorID string, rules []*model.AvailabilityRule) ([]*model.AvailabilityRule, error)
	DeleteRule(ctx context.Context, mentorID, id string) error
	ListBlockedDates(ctx context.Context, mentorID string) ([]*model.BlockedDate, error)
	BlockDates(ctx context.Context, mentorID string, req *model.BlockDatesRequest) (*BlockResult, error)
	UnblockDate(ctx context.Context, mentorID, date string) error
	Slots(ctx context.Context, mentorID, date string, durationMin int) ([]model.TimeSlot, error)
}

type availabilityService struct {
	rules     repository.RuleRepository
	blocked   repository.BlockedDateRepository
	resolver  SlotResolver
	validator *validator.RuleValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewAvailabilityService(
	rules repository.RuleRepository,
	blocked repository.BlockedDateRepository,
	resolver SlotResolver,
	validator *validator.RuleValidator,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		rules:     rules,
		blocked:   blocked,
		resolver:  resolver,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *availabilityService) ListRules(ctx context.Context, mentorID string) ([]*model.AvailabilityRule, error) {
	if err := checkMentorID(mentorID); err != nil {
		return nil, err
	}

	rules, err := s.rules.FindByMentor(ctx, mentorID)
	if err != nil {
		s.cfg.Log.Error("Failed to list availability rules", "mentor_id", mentorID, "error", err)
		return nil, storeError("We couldn't load your availability right now. Please try again.", err)
	}
	return rules, nil
}

// AddRules validates the batch against itself and the saved rules, then stores it in one insert.
func (s *availabilityService) AddRules(ctx context.Context, mentorID string, rules []*model.AvailabilityRule) ([]*model.AvailabilityRule, error) {
	if err := checkMentorID(mentorID); err != nil {
		return nil, err
	}
	if limit := s.cfg.MaxRulesPerBatch; limit > 0 && len(rules) > limit {
		return nil, apperrors.Validation(
			fmt.Sprintf("You can add up to %d availability entries at once.", limit),
			map[string]any{"count": len(rules), "max": limit},
		)
	}

	for _, rule := range rules {
		if rule == nil {
			continue
		}
		rule.ID = ""
		rule.MentorID = mentorID
		rule.StartTime = sanitizer.TrimAndNormalize(rule.StartTime)
		rule.EndTime = sanitizer.TrimAndNormalize(rule.EndTime)
		rule.SpecificDate = sanitizer.TrimAndNormalize(rule.SpecificDate)
	}

	loc, err := s.resolver.Location(ctx, mentorID)
	if err != nil {
		return nil, resolver.TranslateError(err)
	}

	existing, err := s.rules.FindByMentor(ctx, mentorID)
	if err != nil {
		s.cfg.Log.Error("Failed to load existing availability rules", "mentor_id", mentorID, "error", err)
		return nil, storeError("We couldn't check your existing availability. Please try again.", err)
	}

	if err := s.validator.ValidateNew(rules, existing, s.now(), loc); err != nil {
		s.cfg.Log.Warn("Availability rules rejected", "mentor_id", mentorID, "error", err)
		return nil, ruleError(err)
	}

	if err := s.rules.InsertMany(ctx, rules); err != nil {
		s.cfg.Log.Error("Failed to save availability rules", "mentor_id", mentorID, "count", len(rules), "error", err)
		return nil, storeError("We couldn't save your availability. Nothing was added, please try again.", err)
	}

	s.cfg.Log.Info("Availability rules added", "mentor_id", mentorID, "count", len(rules))
	return rules, nil
}

func (s *availabilityService) DeleteRule(ctx context.Context, mentorID, id string) error {
	if err := checkMentorID(mentorID); err != nil {
		return err
	}

	if err := s.rules.Delete(ctx, mentorID, id); err != nil {
		switch {
		case errors.Is(err, availabilityerrors.ErrRuleNotFound):
			return apperrors.NotFoundWithID("Availability rule", id)
		case errors.Is(err, availabilityerrors.ErrInvalidID):
			return apperrors.InvalidInput("Invalid availability rule ID format")
		}
		s.cfg.Log.Error("Failed to delete availability rule", "mentor_id", mentorID, "id", id, "error", err)
		return storeError("We couldn't remove that availability. Please try again.", err)
	}

	s.cfg.Log.Info("Availability rule deleted", "mentor_id", mentorID, "id", id)
	return nil
}

func (s *availabilityService) ListBlockedDates(ctx context.Context, mentorID string) ([]*model.BlockedDate, error) {
	if err := checkMentorID(mentorID); err != nil {
		return nil, err
	}

	dates, err := s.blocked.FindByMentor(ctx, mentorID)
	if err != nil {
		s.cfg.Log.Error("Failed to list blocked dates", "mentor_id", mentorID, "error", err)
		return nil, storeError("We couldn't load your blocked dates right now. Please try again.", err)
	}
	return dates, nil
}

// BlockDates blocks a list of dates or an inclusive range. Dates that are already blocked
// are left as they are.
func (s *availabilityService) BlockDates(ctx context.Context, mentorID string, req *model.BlockDatesRequest) (*BlockResult, error) {
	if err := checkMentorID(mentorID); err != nil {
		return nil, err
	}
	req.Reason = sanitizer.NormalizeText(req.Reason)

	dates, err := s.validator.ValidateBlockDates(req, s.cfg.MaxBlockedRangeDays)
	if err != nil {
		return nil, ruleError(err)
	}

	docs := make([]*model.BlockedDate, len(dates))
	for i, d := range dates {
		docs[i] = &model.BlockedDate{MentorID: mentorID, Date: d, Reason: req.Reason}
	}

	created, err := s.blocked.InsertMany(ctx, docs)
	if err != nil {
		s.cfg.Log.Error("Failed to block dates", "mentor_id", mentorID, "count", len(dates), "error", err)
		return nil, storeError("We couldn't block those dates. Please try again.", err)
	}

	s.cfg.Log.Info("Dates blocked", "mentor_id", mentorID, "requested", len(dates), "created", created)
	return &BlockResult{Dates: dates, Created: created}, nil
}

func (s *availabilityService) UnblockDate(ctx context.Context, mentorID, date string) error {
	if err := checkMentorID(mentorID); err != nil {
		return err
	}
	if !timeofday.IsValidDate(date) {
		return apperrors.InvalidInput("date must be YYYY-MM-DD")
	}

	if err := s.blocked.Delete(ctx, mentorID, date); err != nil {
		if errors.Is(err, availabilityerrors.ErrBlockedDateNotFound) {
			return apperrors.NotFoundWithID("Blocked date", date)
		}
		s.cfg.Log.Error("Failed to unblock date", "mentor_id", mentorID, "date", date, "error", err)
		return storeError("We couldn't unblock that date. Please try again.", err)
	}

	s.cfg.Log.Info("Date unblocked", "mentor_id", mentorID, "date", date)
	return nil
}

func (s *availabilityService) Slots(ctx context.Context, mentorID, date string, durationMin int) ([]model.TimeSlot, error) {
	if err := checkMentorID(mentorID); err != nil {
		return nil, err
	}

	slots, err := s.resolver.Resolve(ctx, mentorID, date, durationMin)
	if err != nil {
		return nil, resolver.TranslateError(err)
	}
	return slots, nil
}

func checkMentorID(id string) error {
	if !primitive.IsValidObjectID(id) {
		return apperrors.InvalidInput("Invalid mentor ID format")
	}
	return nil
}

func ruleError(err error) error {
	var conflict *validator.ConflictError
	if errors.As(err, &conflict) {
		return apperrors.Validation(conflict.Error()+". Please adjust one of them.", conflict.Details())
	}
	var errs validation.Errors
	if errors.As(err, &errs) {
		return apperrors.Validation("Please fix the highlighted availability entries.", errs.Details())
	}
	return apperrors.Validation("Please check your availability entries.", map[string]any{"error": err.Error()})
}

func storeError(message string, err error) error {
	if errors.Is(err, context.Canceled) {
		return apperrors.Aborted(err)
	}
	return apperrors.Internal(message, err)
}
