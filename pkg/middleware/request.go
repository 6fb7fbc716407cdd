package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	apperrors "mentorhub/pkg/errors"
	httputil "mentorhub/pkg/http"
	"mentorhub/pkg/logger"
)

type contextKey string

const (
	RequestIDKey    contextKey = "request_id"
	RequestIDHeader            = "X-Request-ID"
)

func requestID(r *http.Request) string {
	return RequestIDFrom(r.Context())
}

// RequestIDFrom returns the id RequestLogging stored on ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the socket address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func reject(w http.ResponseWriter, log *logger.Logger, r *http.Request, err *apperrors.AppError, msg string, args ...any) {
	args = append([]any{
		"request_id", requestID(r),
		"method", r.Method,
		"path", r.URL.Path,
	}, args...)
	log.Warn(msg, args...)

	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		log.Error("failed to write middleware rejection", "request_id", requestID(r), "error", writeErr)
	}
}
