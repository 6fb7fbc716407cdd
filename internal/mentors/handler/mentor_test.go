package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"

	apperrors "mentorhub/pkg/errors"
	"mentorhub/pkg/logger"
	"mentorhub/pkg/model"
)

type mockMentorService struct {
	getFunc  func(ctx context.Context, id string) (*model.MentorProfile, error)
	putFunc  func(ctx context.Context, id string, profile *model.MentorProfile) error
	listFunc func(ctx context.Context, limit int, offset int64) ([]*model.MentorProfile, int64, error)
}

func (m *mockMentorService) Get(ctx context.Context, id string) (*model.MentorProfile, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, apperrors.NotFoundWithID("Mentor", id)
}

func (m *mockMentorService) Put(ctx context.Context, id string, profile *model.MentorProfile) error {
	if m.putFunc != nil {
		return m.putFunc(ctx, id, profile)
	}
	return nil
}

func (m *mockMentorService) List(ctx context.Context, limit int, offset int64) ([]*model.MentorProfile, int64, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return nil, 0, nil
}

func newRouter(svc *mockMentorService) *httprouter.Router {
	h := NewMentorHandler(svc, logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	}))
	router := httprouter.New()
	h.RegisterRoutes(router)
	return router
}

func TestList(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
		wantOffset int64
	}{
		{"defaults", "", http.StatusOK, 10, 0},
		{"explicit page", "?limit=5&offset=10", http.StatusOK, 5, 10},
		{"bad limit", "?limit=abc", http.StatusBadRequest, 0, 0},
		{"bad offset", "?offset=x", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit int
			var gotOffset int64
			svc := &mockMentorService{
				listFunc: func(_ context.Context, limit int, offset int64) ([]*model.MentorProfile, int64, error) {
					gotLimit, gotOffset = limit, offset
					return []*model.MentorProfile{{ID: "m1", Name: "Ada"}}, 12, nil
				},
			}

			rec := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/mentors"+tt.query, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if gotLimit != tt.wantLimit || gotOffset != tt.wantOffset {
				t.Errorf("expected limit=%d offset=%d, got %d/%d", tt.wantLimit, tt.wantOffset, gotLimit, gotOffset)
			}

			var body struct {
				TotalCount int64 `json:"total_count"`
				Limit      int   `json:"limit"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.TotalCount != 12 || body.Limit != tt.wantLimit {
				t.Errorf("unexpected envelope %+v", body)
			}
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&mockMentorService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/mentors/m1", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestPut_UsesPathID(t *testing.T) {
	var gotID string
	svc := &mockMentorService{
		putFunc: func(_ context.Context, id string, _ *model.MentorProfile) error {
			gotID = id
			return nil
		},
	}

	body := `{"name":"Ada","email":"ada@example.com","timezone":"UTC","services":[{"type":"notes","price":10}]}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/mentors/m42", strings.NewReader(body))
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotID != "m42" {
		t.Errorf("expected path id m42, got %q", gotID)
	}
}
