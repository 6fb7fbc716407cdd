package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"mentorhub/internal/mentors/service"
	httputil "mentorhub/pkg/http"
	"mentorhub/pkg/logger"
	"mentorhub/pkg/model"
)

type MentorHandler struct {
	service service.MentorService
	log     *logger.Logger
}

func NewMentorHandler(service service.MentorService, log *logger.Logger) *MentorHandler {
	return &MentorHandler{
		service: service,
		log:     log,
	}
}

func (h *MentorHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	profile, err := h.service.Get(r.Context(), ps.ByName("mentor_id"))
	if err != nil {
		h.writeError(w, "Get", err)
		return
	}

	if err := httputil.WriteSuccess(w, profile); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "error", err)
	}
}

func (h *MentorHandler) Put(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var profile model.MentorProfile
	if err := httputil.DecodeJSON(r, &profile); err != nil {
		h.writeError(w, "Put", err)
		return
	}

	if err := h.service.Put(r.Context(), ps.ByName("mentor_id"), &profile); err != nil {
		h.writeError(w, "Put", err)
		return
	}

	if err := httputil.WriteSuccess(w, profile); err != nil {
		h.log.Error("failed to write success response", "handler", "Put", "error", err)
	}
}

func (h *MentorHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	profiles, total, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, profiles, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "error", err)
	}
}

func (h *MentorHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "error", writeErr)
	}
}

func (h *MentorHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/mentors", h.List)
	router.GET("/api/v1/mentors/:mentor_id", h.Get)
	router.PUT("/api/v1/mentors/:mentor_id", h.Put)
}
