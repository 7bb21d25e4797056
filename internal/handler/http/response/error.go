package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusUnprocessableEntity
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict, apperror.KindAnomaly:
		return http.StatusConflict
	case apperror.KindFatal:
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var batchErr *payroll.BatchError
	if errors.As(err, &batchErr) {
		handleBatchError(w, batchErr)
		return
	}

	var ae *apperror.Error
	if !errors.As(err, &ae) {
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
		return
	}
	if ae.Kind == apperror.KindInternal {
		slog.Error("Internal error", "code", ae.Code, "error", err)
	}
	DomainError(w, StatusOf(ae.Kind), ae.Code, ae.Message, ae.Fields)
}

// handleBatchError answers 409 when any line conflicts with stored state, 422 otherwise.
func handleBatchError(w http.ResponseWriter, batchErr *payroll.BatchError) {
	status := http.StatusUnprocessableEntity
	failures := make([]FailureDetail, 0, len(batchErr.Failures))
	for _, f := range batchErr.Failures {
		kind := apperror.KindOf(f.Err)
		if kind == apperror.KindConflict {
			status = http.StatusConflict
		}
		detail := FailureDetail{
			EmployeeID:  f.EmployeeID,
			PeriodStart: f.PeriodStart,
			PeriodEnd:   f.PeriodEnd,
			Code:        apperror.CodeOf(f.Err),
			Message:     f.Err.Error(),
			Details:     apperror.FieldsOf(f.Err),
		}
		if detail.Code == "" {
			detail.Code = "INTERNAL"
		}
		failures = append(failures, detail)
	}
	BatchRejected(w, status, batchErr.Error(), failures)
}
