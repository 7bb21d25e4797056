package http

import (
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashadvance"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type CashAdvanceHandler interface {
	File(w http.ResponseWriter, r *http.Request)
	ManagerReview(w http.ResponseWriter, r *http.Request)
	AdminReview(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	Disburse(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
}

type cashAdvanceHandlerImpl struct {
	cashAdvanceService cashadvance.CashAdvanceService
}

func NewCashAdvanceHandler(cashAdvanceService cashadvance.CashAdvanceService) CashAdvanceHandler {
	return &cashAdvanceHandlerImpl{
		cashAdvanceService: cashAdvanceService,
	}
}

// File implements CashAdvanceHandler.
func (h *cashAdvanceHandlerImpl) File(w http.ResponseWriter, r *http.Request) {
	var req cashadvance.FileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.cashAdvanceService.File(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Cash advance request filed", result)
}

// ManagerReview implements CashAdvanceHandler.
func (h *cashAdvanceHandlerImpl) ManagerReview(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, cashadvance.GateManager)
}

// AdminReview implements CashAdvanceHandler.
func (h *cashAdvanceHandlerImpl) AdminReview(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, cashadvance.GateAdmin)
}

func (h *cashAdvanceHandlerImpl) review(w http.ResponseWriter, r *http.Request, gate cashadvance.Gate) {
	var req cashadvance.ReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.Gate = gate
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.cashAdvanceService.Review(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Review recorded", result)
}

// Cancel implements CashAdvanceHandler.
func (h *cashAdvanceHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	result, err := h.cashAdvanceService.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Cash advance request cancelled", result)
}

// Disburse implements CashAdvanceHandler.
func (h *cashAdvanceHandlerImpl) Disburse(w http.ResponseWriter, r *http.Request) {
	var req cashadvance.DisburseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.cashAdvanceService.Disburse(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Cash advance disbursed", result)
}

// Get implements CashAdvanceHandler.
func (h *cashAdvanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.cashAdvanceService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements CashAdvanceHandler.
func (h *cashAdvanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := cashadvance.CashAdvanceFilter{
		EmployeeID: queryString(r, "employee_id"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := cashadvance.Status(status)
		filter.Status = &s
	}

	results, err := h.cashAdvanceService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, results, &response.Meta{TotalItems: int64(len(results))})
}
