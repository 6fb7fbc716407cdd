package app

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	httputil "mentorhub/pkg/http"
	"mentorhub/pkg/logger"
)

const readinessTimeout = 2 * time.Second

type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// HealthHandler serves liveness and readiness. Either client may be nil when the
// service does not use that backend.
type HealthHandler struct {
	service string
	mongo   *mongo.Client
	redis   *redis.Client
	log     *logger.Logger
}

func NewHealthHandler(service string, mongoClient *mongo.Client, redisClient *redis.Client, log *logger.Logger) *HealthHandler {
	return &HealthHandler{service: service, mongo: mongoClient, redis: redisClient, log: log}
}

func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Service: h.service}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]string)
	ready := true

	if h.mongo != nil {
		checks["mongo"] = "ok"
		if err := h.mongo.Ping(ctx, nil); err != nil {
			h.log.Error("Mongo readiness check failed", "error", err)
			checks["mongo"] = "error"
			ready = false
		}
	}
	if h.redis != nil {
		checks["redis"] = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			h.log.Error("Redis readiness check failed", "error", err)
			checks["redis"] = "error"
			ready = false
		}
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	if err := httputil.WriteJSON(w, code, HealthResponse{Status: status, Service: h.service, Checks: checks}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
