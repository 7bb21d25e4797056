package http

import (
	"net/http"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

const defaultActionRequiredAge = 48 * time.Hour

type OvertimeHandler interface {
	File(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	ManualComplete(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	ActionRequired(w http.ResponseWriter, r *http.Request)
}

type overtimeHandlerImpl struct {
	overtimeService overtime.OvertimeService
}

func NewOvertimeHandler(overtimeService overtime.OvertimeService) OvertimeHandler {
	return &overtimeHandlerImpl{
		overtimeService: overtimeService,
	}
}

// File implements OvertimeHandler.
func (h *overtimeHandlerImpl) File(w http.ResponseWriter, r *http.Request) {
	var req overtime.FileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.overtimeService.File(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Overtime request filed", result)
}

// Approve implements OvertimeHandler.
func (h *overtimeHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, true)
}

// Reject implements OvertimeHandler.
func (h *overtimeHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, false)
}

func (h *overtimeHandlerImpl) review(w http.ResponseWriter, r *http.Request, approve bool) {
	var req overtime.ReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	var (
		result overtime.OvertimeResponse
		err    error
	)
	if approve {
		result, err = h.overtimeService.Approve(r.Context(), req)
	} else {
		result, err = h.overtimeService.Reject(r.Context(), req)
	}
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if approve {
		response.SuccessWithMessage(w, "Overtime request approved", result)
		return
	}
	response.SuccessWithMessage(w, "Overtime request rejected", result)
}

// Cancel implements OvertimeHandler.
func (h *overtimeHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	var req overtime.CancelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.overtimeService.Cancel(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Overtime request cancelled", result)
}

// ManualComplete implements OvertimeHandler.
func (h *overtimeHandlerImpl) ManualComplete(w http.ResponseWriter, r *http.Request) {
	var req overtime.ManualCompleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.overtimeService.ManualComplete(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Overtime settled", result)
}

// Get implements OvertimeHandler.
func (h *overtimeHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.overtimeService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements OvertimeHandler.
func (h *overtimeHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	var errs validator.ValidationErrors
	filter := overtime.OvertimeFilter{
		EmployeeID: queryString(r, "employee_id"),
		StartDate:  queryDate(r, "start_date", &errs),
		EndDate:    queryDate(r, "end_date", &errs),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := overtime.Status(status)
		filter.Status = &s
	}
	if err := errs.Err(); err != nil {
		response.HandleError(w, err)
		return
	}

	results, err := h.overtimeService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, results, &response.Meta{TotalItems: int64(len(results))})
}

// ActionRequired implements OvertimeHandler.
func (h *overtimeHandlerImpl) ActionRequired(w http.ResponseWriter, r *http.Request) {
	olderThan, err := queryDuration(r, "older_than", defaultActionRequiredAge)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	results, err := h.overtimeService.ListActionRequired(r.Context(), olderThan)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, results, &response.Meta{TotalItems: int64(len(results))})
}
