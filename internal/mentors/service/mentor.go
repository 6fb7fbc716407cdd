package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	mentorserrors "mentorhub/internal/mentors/errors"
	"mentorhub/internal/mentors/repository"
	"mentorhub/pkg/config"
	apperrors "mentorhub/pkg/errors"
	"mentorhub/pkg/model"
	"mentorhub/pkg/sanitizer"
	"mentorhub/pkg/validation"
)

type MentorService interface {
	Get(ctx context.Context, id string) (*model.MentorProfile, error)
	Put(ctx context.Context, id string, profile *model.MentorProfile) error
	List(ctx context.Context, limit int, offset int64) ([]*model.MentorProfile, int64, error)
}

type mentorService struct {
	repo     repository.MentorRepository
	validate *validator.Validate
	cfg      *config.Config
}

func NewMentorService(repo repository.MentorRepository, cfg *config.Config) MentorService {
	return &mentorService{
		repo:     repo,
		validate: validation.New(),
		cfg:      cfg,
	}
}

func (s *mentorService) Get(ctx context.Context, id string) (*model.MentorProfile, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Mentor ID cannot be empty")
	}

	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, id)
	}
	return profile, nil
}

func (s *mentorService) Put(ctx context.Context, id string, profile *model.MentorProfile) error {
	profile.ID = id
	profile.Name = sanitizer.NormalizeName(profile.Name)
	profile.Email = sanitizer.NormalizeEmail(profile.Email)

	if err := validation.Struct(s.validate, profile); err != nil {
		s.cfg.Log.Warn("Mentor profile validation failed", "id", id, "error", err)
		return validationError("Please check the highlighted profile fields and try again.", err)
	}

	seen := make(map[model.SessionType]bool, len(profile.Services))
	for i, svc := range profile.Services {
		if svc.Service == nil {
			return apperrors.Validation("Each service needs a type and price.", map[string]any{"index": i})
		}
		if seen[svc.Type()] {
			return apperrors.Validation(
				fmt.Sprintf("You can only offer one %s service.", svc.Type()),
				map[string]any{"index": i, "type": svc.Type()},
			)
		}
		seen[svc.Type()] = true
	}

	if err := s.repo.Upsert(ctx, profile); err != nil {
		s.cfg.Log.Error("Failed to save mentor profile", "id", id, "error", err)
		return translateRepoError(err, id)
	}

	s.cfg.Log.Info("Mentor profile saved", "id", id, "services", len(profile.Services))
	return nil
}

// List returns one page of profiles with the total count. Count and page are read concurrently.
func (s *mentorService) List(ctx context.Context, limit int, offset int64) ([]*model.MentorProfile, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var (
		count             int64
		profiles          []*model.MentorProfile
		errCount, errFind error
		wg                sync.WaitGroup
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(sharedCtx)
	}()

	go func() {
		defer wg.Done()
		profiles, errFind = s.repo.FindAll(sharedCtx, limit, offset)
	}()

	wg.Wait()

	if err := errors.Join(errCount, errFind); err != nil {
		s.cfg.Log.Error("Failed to list mentor profiles", "limit", limit, "offset", offset, "error", err)
		if errors.Is(err, context.Canceled) {
			return nil, 0, apperrors.Aborted(err)
		}
		return nil, 0, apperrors.Internal("We couldn't load mentors right now. Please try again.", err)
	}
	return profiles, count, nil
}

func translateRepoError(err error, id string) error {
	switch {
	case errors.Is(err, mentorserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Mentor", id)
	case errors.Is(err, mentorserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid mentor ID format")
	case errors.Is(err, context.Canceled):
		return apperrors.Aborted(err)
	default:
		return apperrors.Internal("We couldn't load the mentor profile right now. Please try again.", err)
	}
}

func validationError(message string, err error) error {
	var errs validation.Errors
	if errors.As(err, &errs) {
		return apperrors.Validation(message, errs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
