package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"mentorhub/internal/availability/service"
	httputil "mentorhub/pkg/http"
	"mentorhub/pkg/logger"
	"mentorhub/pkg/model"
	"mentorhub/pkg/timeofday"
)

type AvailabilityHandler struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

type addRulesRequest struct {
	Rules []*model.AvailabilityRule `json:"rules"`
}

// SlotView is a TimeSlot labelled with the part of day it starts in.
type SlotView struct {
	model.TimeSlot
	Period string `json:"period"`
}

func Period(hhmm string) string {
	m, err := timeofday.Parse(hhmm)
	switch {
	case err != nil:
		return ""
	case m < 12*60:
		return "morning"
	case m < 17*60:
		return "afternoon"
	default:
		return "evening"
	}
}

func SlotViews(slots []model.TimeSlot) []SlotView {
	out := make([]SlotView, len(slots))
	for i, s := range slots {
		out[i] = SlotView{TimeSlot: s, Period: Period(s.Time)}
	}
	return out
}

func (h *AvailabilityHandler) ListRules(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	rules, err := h.service.ListRules(r.Context(), ps.ByName("mentor_id"))
	if err != nil {
		h.writeError(w, "ListRules", err)
		return
	}
	h.writeSuccess(w, "ListRules", rules)
}

func (h *AvailabilityHandler) AddRules(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req addRulesRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "AddRules", err)
		return
	}

	rules, err := h.service.AddRules(r.Context(), ps.ByName("mentor_id"), req.Rules)
	if err != nil {
		h.writeError(w, "AddRules", err)
		return
	}

	if err := httputil.WriteCreated(w, rules); err != nil {
		h.log.Error("failed to write created response", "handler", "AddRules", "error", err)
	}
}

func (h *AvailabilityHandler) DeleteRule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.DeleteRule(r.Context(), ps.ByName("mentor_id"), ps.ByName("id")); err != nil {
		h.writeError(w, "DeleteRule", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *AvailabilityHandler) ListBlockedDates(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	dates, err := h.service.ListBlockedDates(r.Context(), ps.ByName("mentor_id"))
	if err != nil {
		h.writeError(w, "ListBlockedDates", err)
		return
	}
	h.writeSuccess(w, "ListBlockedDates", dates)
}

func (h *AvailabilityHandler) BlockDates(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.BlockDatesRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "BlockDates", err)
		return
	}

	result, err := h.service.BlockDates(r.Context(), ps.ByName("mentor_id"), &req)
	if err != nil {
		h.writeError(w, "BlockDates", err)
		return
	}

	if err := httputil.WriteCreated(w, result); err != nil {
		h.log.Error("failed to write created response", "handler", "BlockDates", "error", err)
	}
}

func (h *AvailabilityHandler) UnblockDate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.UnblockDate(r.Context(), ps.ByName("mentor_id"), ps.ByName("date")); err != nil {
		h.writeError(w, "UnblockDate", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date, err := httputil.RequiredQuery(r, "date")
	if err != nil {
		h.writeError(w, "Slots", err)
		return
	}
	duration, err := httputil.QueryInt(r, "duration", 0)
	if err != nil {
		h.writeError(w, "Slots", err)
		return
	}

	slots, err := h.service.Slots(r.Context(), ps.ByName("mentor_id"), date, duration)
	if err != nil {
		h.writeError(w, "Slots", err)
		return
	}
	h.writeSuccess(w, "Slots", SlotViews(slots))
}

func (h *AvailabilityHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "error", err)
	}
}

func (h *AvailabilityHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "error", writeErr)
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/mentors/:mentor_id/availability/rules", h.ListRules)
	router.POST("/api/v1/mentors/:mentor_id/availability/rules", h.AddRules)
	router.DELETE("/api/v1/mentors/:mentor_id/availability/rules/:id", h.DeleteRule)
	router.GET("/api/v1/mentors/:mentor_id/availability/blocked-dates", h.ListBlockedDates)
	router.POST("/api/v1/mentors/:mentor_id/availability/blocked-dates", h.BlockDates)
	router.DELETE("/api/v1/mentors/:mentor_id/availability/blocked-dates/:date", h.UnblockDate)
	router.GET("/api/v1/mentors/:mentor_id/slots", h.Slots)
}
