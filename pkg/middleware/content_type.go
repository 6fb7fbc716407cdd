package middleware

import (
	"mime"
	"net/http"

	apperrors "mentorhub/pkg/errors"
	"mentorhub/pkg/logger"
)

// ContentTypeValidation rejects bodies on POST/PUT/PATCH that are not application/json.
// Body-less action requests such as POST .../back pass through.
func ContentTypeValidation(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requiresContentType(r.Method) && r.ContentLength != 0 {
				mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
				if mediaType != "application/json" {
					appErr := apperrors.New(apperrors.CodeInvalidInput, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
					reject(w, log, r, appErr, "Invalid Content-Type header", "content_type", mediaType)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requiresContentType(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}
