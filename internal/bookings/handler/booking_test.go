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

type mockBookingService struct {
	createFunc       func(ctx context.Context, draft *model.BookingDraft) (*model.Booking, error)
	listFunc         func(ctx context.Context, mentorID, date string) ([]*model.Booking, error)
	updateStatusFunc func(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error)
}

func (m *mockBookingService) Create(ctx context.Context, draft *model.BookingDraft) (*model.Booking, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, draft)
	}
	return &model.Booking{ID: "b1"}, nil
}

func (m *mockBookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return nil, apperrors.NotFoundWithID("Booking", id)
}

func (m *mockBookingService) GetByReference(ctx context.Context, token string) (*model.Booking, error) {
	return &model.Booking{ID: "b1", Reference: token}, nil
}

func (m *mockBookingService) ListForMentorAndDate(ctx context.Context, mentorID, date string) ([]*model.Booking, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, mentorID, date)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingService) UpdateStatus(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, update)
	}
	return &model.Booking{ID: id, Status: update.Status}, nil
}

func (m *mockBookingService) Complete(ctx context.Context, id string) (*model.Booking, error) {
	return nil, nil
}

func newRouter(svc *mockBookingService) *httprouter.Router {
	h := NewBookingHandler(svc, logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	}))
	router := httprouter.New()
	h.RegisterRoutes(router)
	return router
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
	}{
		{name: "created", body: `{"expert_id":"m1","session_type":"oneOnOne"}`, wantStatus: http.StatusCreated},
		{name: "empty body", body: ``, wantStatus: http.StatusBadRequest},
		{name: "malformed", body: `{"expert_id":`, wantStatus: http.StatusBadRequest},
		{name: "slot taken", body: `{"expert_id":"m1"}`, svcErr: apperrors.Conflict("taken"), wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *model.BookingDraft
			router := newRouter(&mockBookingService{
				createFunc: func(_ context.Context, d *model.BookingDraft) (*model.Booking, error) {
					got = d
					if tt.svcErr != nil {
						return nil, tt.svcErr
					}
					return &model.Booking{ID: "b1", ExpertID: d.ExpertID}, nil
				},
			})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus == http.StatusCreated && got.SessionType != model.SessionOneOnOne {
				t.Errorf("draft not decoded: %+v", got)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	var gotMentor, gotDate string
	router := newRouter(&mockBookingService{
		listFunc: func(_ context.Context, mentorID, date string) ([]*model.Booking, error) {
			gotMentor, gotDate = mentorID, date
			return []*model.Booking{{ID: "b1"}, {ID: "b2"}}, nil
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/bookings/search?mentor_id=m1&date=2030-01-07", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotMentor != "m1" || gotDate != "2030-01-07" {
		t.Errorf("query not forwarded: %s %s", gotMentor, gotDate)
	}

	var body struct {
		Data []model.Booking `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 2 {
		t.Errorf("expected 2 bookings, got %d", len(body.Data))
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/bookings/search?mentor_id=m1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing date should be 400, got %d", rec.Code)
	}
}

func TestRoutes(t *testing.T) {
	router := newRouter(&mockBookingService{})

	tests := []struct {
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{http.MethodGet, "/api/v1/bookings/id/b1", "", http.StatusNotFound},
		{http.MethodGet, "/api/v1/bookings/ref/tok", "", http.StatusOK},
		{http.MethodPatch, "/api/v1/bookings/id/b1/status", `{"status":"confirmed"}`, http.StatusOK},
		{http.MethodDelete, "/api/v1/bookings/id/b1", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}
