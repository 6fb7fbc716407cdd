package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	availabilityhandler "mentorhub/internal/availability/handler"
	"mentorhub/internal/wizard/service"
	"mentorhub/internal/wizard/session"
	httputil "mentorhub/pkg/http"
	"mentorhub/pkg/logger"
	"mentorhub/pkg/model"
)

// SessionView adds what the client needs to render the current step.
type SessionView struct {
	*session.Session
	StateName string `json:"state_name"`
	CanSubmit bool   `json:"can_submit"`
}

func view(s *session.Session) SessionView {
	return SessionView{Session: s, StateName: s.State.String(), CanSubmit: s.CanSubmit()}
}

type submitResponse struct {
	Session SessionView    `json:"session"`
	Booking *model.Booking `json:"booking"`
}

type selectServiceRequest struct {
	Type model.SessionType `json:"type"`
}

type WizardHandler struct {
	service service.WizardService
	log     *logger.Logger
}

func NewWizardHandler(service service.WizardService, log *logger.Logger) *WizardHandler {
	return &WizardHandler{
		service: service,
		log:     log,
	}
}

func (h *WizardHandler) Start(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req service.StartRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Start", err)
		return
	}

	sess, err := h.service.Start(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Start", err)
		return
	}

	if err := httputil.WriteCreated(w, view(sess)); err != nil {
		h.log.Error("failed to write created response", "handler", "Start", "error", err)
	}
}

func (h *WizardHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sess, err := h.service.Get(r.Context(), ps.ByName("id"))
	h.respond(w, "Get", sess, err)
}

func (h *WizardHandler) SelectService(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req selectServiceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SelectService", err)
		return
	}
	sess, err := h.service.SelectService(r.Context(), ps.ByName("id"), req.Type)
	h.respond(w, "SelectService", sess, err)
}

func (h *WizardHandler) SelectDateTime(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req session.DateTime
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SelectDateTime", err)
		return
	}
	sess, err := h.service.SelectDateTime(r.Context(), ps.ByName("id"), req)
	h.respond(w, "SelectDateTime", sess, err)
}

func (h *WizardHandler) ChangeDateTime(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sess, err := h.service.ChangeDateTime(r.Context(), ps.ByName("id"))
	h.respond(w, "ChangeDateTime", sess, err)
}

func (h *WizardHandler) Back(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sess, err := h.service.Back(r.Context(), ps.ByName("id"))
	h.respond(w, "Back", sess, err)
}

func (h *WizardHandler) SetDetails(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req session.Details
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SetDetails", err)
		return
	}
	sess, err := h.service.SetDetails(r.Context(), ps.ByName("id"), req)
	h.respond(w, "SetDetails", sess, err)
}

func (h *WizardHandler) Submit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sess, booking, err := h.service.Submit(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Submit", err)
		return
	}

	if err := httputil.WriteCreated(w, submitResponse{Session: view(sess), Booking: booking}); err != nil {
		h.log.Error("failed to write created response", "handler", "Submit", "error", err)
	}
}

func (h *WizardHandler) DismissSuccess(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sess, err := h.service.DismissSuccess(r.Context(), ps.ByName("id"))
	h.respond(w, "DismissSuccess", sess, err)
}

func (h *WizardHandler) Slots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date, err := httputil.RequiredQuery(r, "date")
	if err != nil {
		h.writeError(w, "Slots", err)
		return
	}

	slots, err := h.service.Slots(r.Context(), ps.ByName("id"), date)
	if err != nil {
		h.writeError(w, "Slots", err)
		return
	}

	if err := httputil.WriteSuccess(w, availabilityhandler.SlotViews(slots)); err != nil {
		h.log.Error("failed to write success response", "handler", "Slots", "error", err)
	}
}

func (h *WizardHandler) respond(w http.ResponseWriter, handler string, sess *session.Session, err error) {
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	if err := httputil.WriteSuccess(w, view(sess)); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "error", err)
	}
}

func (h *WizardHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "error", writeErr)
	}
}

func (h *WizardHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/wizards", h.Start)
	router.GET("/api/v1/wizards/:id", h.Get)
	router.POST("/api/v1/wizards/:id/service", h.SelectService)
	router.POST("/api/v1/wizards/:id/datetime", h.SelectDateTime)
	router.POST("/api/v1/wizards/:id/change-datetime", h.ChangeDateTime)
	router.POST("/api/v1/wizards/:id/back", h.Back)
	router.PUT("/api/v1/wizards/:id/details", h.SetDetails)
	router.POST("/api/v1/wizards/:id/submit", h.Submit)
	router.POST("/api/v1/wizards/:id/dismiss-success", h.DismissSuccess)
	router.GET("/api/v1/wizards/:id/slots", h.Slots)
}
