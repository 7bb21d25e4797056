package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

// RequireUUIDParams rejects the request with 422 when any named URL parameter is not a UUIDv7.
func RequireUUIDParams(keys ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var errs validator.ValidationErrors
			for _, key := range keys {
				if !validator.IsValidUUID(chi.URLParam(r, key)) {
					errs.Add(key, key+" must be a valid id")
				}
			}
			if len(errs) > 0 {
				response.HandleError(w, errs)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
