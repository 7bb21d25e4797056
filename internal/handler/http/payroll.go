package http

import (
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	Compute(w http.ResponseWriter, r *http.Request)
	RunDraft(w http.ResponseWriter, r *http.Request)
	Finalize(w http.ResponseWriter, r *http.Request)
	GetLine(w http.ResponseWriter, r *http.Request)
	ListLines(w http.ResponseWriter, r *http.Request)
	DeleteDraft(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{
		payrollService: payrollService,
	}
}

type finalizeResponse struct {
	BatchID    string                        `json:"batch_id"`
	PayoutDate string                        `json:"payout_date"`
	Lines      []payroll.PayrollLineResponse `json:"lines"`
}

// Compute implements PayrollHandler. The line is previewed from the supplied inputs and never stored.
func (h *payrollHandlerImpl) Compute(w http.ResponseWriter, r *http.Request) {
	var req payroll.ComputeLineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}
	period, err := req.Parse()
	if err != nil {
		response.HandleError(w, err)
		return
	}

	line, err := h.payrollService.ComputeLine(r.Context(), req.EmployeeID, period, req.Inputs())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payroll.ToResponse(line))
}

// RunDraft implements PayrollHandler.
func (h *payrollHandlerImpl) RunDraft(w http.ResponseWriter, r *http.Request) {
	var req payroll.RunDraftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	period, err := req.Parse()
	if err != nil {
		response.HandleError(w, err)
		return
	}

	register, err := h.payrollService.RunDraft(r.Context(), period, req.EmployeeIDs)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if !req.Save || len(register.Lines) == 0 {
		response.Success(w, payroll.ToRegisterResponse(register))
		return
	}

	saved, err := h.payrollService.SaveDraft(r.Context(), register.Lines)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	register.Lines = saved

	response.Created(w, "Draft register saved", payroll.ToRegisterResponse(register))
}

// Finalize implements PayrollHandler.
func (h *payrollHandlerImpl) Finalize(w http.ResponseWriter, r *http.Request) {
	var req payroll.FinalizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.FinalizeDrafts(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	lines := make([]payroll.PayrollLineResponse, 0, len(result.Lines))
	for _, l := range result.Lines {
		lines = append(lines, payroll.ToResponse(l))
	}
	response.SuccessWithMessage(w, "Payroll finalized", finalizeResponse{
		BatchID:    result.BatchID,
		PayoutDate: result.PayoutDate.Format("2006-01-02"),
		Lines:      lines,
	})
}

// GetLine implements PayrollHandler.
func (h *payrollHandlerImpl) GetLine(w http.ResponseWriter, r *http.Request) {
	line, err := h.payrollService.GetLine(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payroll.ToResponse(line))
}

// ListLines implements PayrollHandler.
func (h *payrollHandlerImpl) ListLines(w http.ResponseWriter, r *http.Request) {
	var errs validator.ValidationErrors
	filter := payroll.PayrollFilter{
		EmployeeID:  queryString(r, "employee_id"),
		BatchID:     queryString(r, "batch_id"),
		PeriodStart: queryDate(r, "period_start", &errs),
		PeriodEnd:   queryDate(r, "period_end", &errs),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := payroll.PayrollStatus(status)
		filter.Status = &s
	}
	if err := errs.Err(); err != nil {
		response.HandleError(w, err)
		return
	}

	lines, err := h.payrollService.ListLines(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	results := make([]payroll.PayrollLineResponse, 0, len(lines))
	for _, l := range lines {
		results = append(results, payroll.ToResponse(l))
	}
	response.SuccessWithMeta(w, results, &response.Meta{TotalItems: int64(len(results))})
}

// DeleteDraft implements PayrollHandler.
func (h *payrollHandlerImpl) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.payrollService.DeleteDraft(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Draft deleted", nil)
}
