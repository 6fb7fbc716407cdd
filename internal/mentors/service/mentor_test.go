package service

import (
	"context"
	"errors"
	"testing"
	"time"

	mentorserrors "mentorhub/internal/mentors/errors"
	"mentorhub/pkg/config"
	apperrors "mentorhub/pkg/errors"
	"mentorhub/pkg/logger"
	"mentorhub/pkg/model"
)

type mockMentorRepository struct {
	findByIDFunc func(ctx context.Context, id string) (*model.MentorProfile, error)
	upsertFunc   func(ctx context.Context, profile *model.MentorProfile) error
	findAllFunc  func(ctx context.Context, limit int, offset int64) ([]*model.MentorProfile, error)
	countFunc    func(ctx context.Context) (int64, error)
}

func (m *mockMentorRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.MentorProfile, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockMentorRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockMentorRepository) FindByID(ctx context.Context, id string) (*model.MentorProfile, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, mentorserrors.ErrNotFound
}

func (m *mockMentorRepository) Upsert(ctx context.Context, profile *model.MentorProfile) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, profile)
	}
	return nil
}

const mentorID = "65f1a2b3c4d5e6f7a8b9c0d1"

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:     "info",
			Format:    logger.JSON,
			AddSource: false,
			Service:   "test",
		}),
	}
}

func offering(t *testing.T, kind model.SessionType, duration int, price float64) model.ServiceOffering {
	t.Helper()
	svc, err := model.NewService(kind, duration, price)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return model.ServiceOffering{Service: svc}
}

func TestPut_SanitizesAndSaves(t *testing.T) {
	var saved *model.MentorProfile
	svc := NewMentorService(&mockMentorRepository{
		upsertFunc: func(_ context.Context, p *model.MentorProfile) error {
			saved = p
			return nil
		},
	}, testConfig())

	profile := &model.MentorProfile{
		Name:     "  Ada   Lovelace ",
		Email:    " Ada@Example.COM ",
		Timezone: "Europe/London",
		Services: []model.ServiceOffering{offering(t, model.SessionOneOnOne, 45, 80)},
	}
	if err := svc.Put(context.Background(), mentorID, profile); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved == nil || saved.ID != mentorID {
		t.Fatalf("profile should be saved under the path id")
	}
	if saved.Email != "ada@example.com" {
		t.Errorf("email should be normalised, got %q", saved.Email)
	}
}

func TestPut_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		profile func(t *testing.T) *model.MentorProfile
	}{
		{
			name: "bad timezone",
			profile: func(t *testing.T) *model.MentorProfile {
				return &model.MentorProfile{Name: "Ada", Email: "ada@example.com", Timezone: "Mars/Olympus"}
			},
		},
		{
			name: "missing email",
			profile: func(t *testing.T) *model.MentorProfile {
				return &model.MentorProfile{Name: "Ada", Timezone: "UTC"}
			},
		},
		{
			name: "duplicate service kind",
			profile: func(t *testing.T) *model.MentorProfile {
				return &model.MentorProfile{
					Name: "Ada", Email: "ada@example.com", Timezone: "UTC",
					Services: []model.ServiceOffering{
						offering(t, model.SessionNotes, 0, 10),
						offering(t, model.SessionNotes, 0, 12),
					},
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewMentorService(&mockMentorRepository{
				upsertFunc: func(context.Context, *model.MentorProfile) error {
					t.Fatal("invalid profile must not be saved")
					return nil
				},
			}, testConfig())

			err := svc.Put(context.Background(), mentorID, tt.profile(t))
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestGet_TranslatesErrors(t *testing.T) {
	svc := NewMentorService(&mockMentorRepository{}, testConfig())

	_, err := svc.Get(context.Background(), mentorID)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	svc = NewMentorService(&mockMentorRepository{
		findByIDFunc: func(context.Context, string) (*model.MentorProfile, error) {
			return nil, mentorserrors.ErrInvalidID
		},
	}, testConfig())
	_, err = svc.Get(context.Background(), "nope")
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestList(t *testing.T) {
	cfg := testConfig()
	cfg.ReadTimeout = time.Second

	var gotLimit int
	var gotOffset int64
	svc := NewMentorService(&mockMentorRepository{
		findAllFunc: func(_ context.Context, limit int, offset int64) ([]*model.MentorProfile, error) {
			gotLimit, gotOffset = limit, offset
			return []*model.MentorProfile{{ID: mentorID, Name: "Ada"}}, nil
		},
		countFunc: func(context.Context) (int64, error) { return 7, nil },
	}, cfg)

	profiles, total, err := svc.List(context.Background(), 0, -3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != 10 || gotOffset != 0 {
		t.Errorf("pagination not normalised: limit=%d offset=%d", gotLimit, gotOffset)
	}
	if total != 7 || len(profiles) != 1 {
		t.Errorf("unexpected page: total=%d len=%d", total, len(profiles))
	}

	svc = NewMentorService(&mockMentorRepository{
		countFunc: func(context.Context) (int64, error) { return 0, errors.New("mongo down") },
	}, cfg)
	if _, _, err := svc.List(context.Background(), 5, 0); !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Errorf("expected internal error, got %v", err)
	}
}
