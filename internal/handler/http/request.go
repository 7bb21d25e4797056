package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

// decodeJSON reads the request body into dst and answers 400 on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		slog.Error("Failed to decode request body", "path", r.URL.Path, "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

func queryString(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

// queryDate parses a YYYY-MM-DD query parameter into errs when it is malformed.
func queryDate(r *http.Request, key string, errs *validator.ValidationErrors) *time.Time {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	date, ok := validator.IsValidDate(v)
	if !ok {
		errs.Add(key, key+" must be in YYYY-MM-DD format")
		return nil
	}
	return &date
}

// queryDuration parses a Go duration such as "48h", falling back to def when absent.
func queryDuration(r *http.Request, key string, def time.Duration) (time.Duration, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, validator.ValidationErrors{{Field: key, Message: key + " must be a non-negative duration such as 48h"}}
	}
	return d, nil
}
