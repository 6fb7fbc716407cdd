package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "mentorhub/pkg/errors"
	httputil "mentorhub/pkg/http"
	"mentorhub/pkg/logger"
)

func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("Panic recovered",
						"request_id", requestID(r),
						"error", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)

					appErr := apperrors.Internal("Something went wrong on our side. Please try again later.", fmt.Errorf("panic: %v", rec))
					_ = httputil.WriteError(w, appErr)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
