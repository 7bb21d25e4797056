package cashadvance

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type FileRequest struct {
	EmployeeID    string          `json:"employee_id" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	Reason        string          `json:"reason" validate:"required,max=1000"`
	RepaymentPlan string          `json:"repayment_plan" validate:"required,max=255"`
}

func (r *FileRequest) Validate() error {
	return validator.Struct(r)
}

type ReviewRequest struct {
	ID         string `json:"-"`
	Gate       Gate   `json:"-"`
	ReviewerID string `json:"reviewer_id" validate:"required"`
	Approve    bool   `json:"approve"`
	Notes      string `json:"notes"`
}

func (r *ReviewRequest) Validate() error {
	return validator.Struct(r)
}

type DisburseRequest struct {
	ID          string    `json:"-"`
	DisbursedAt time.Time `json:"disbursed_at" validate:"required"`
}

func (r *DisburseRequest) Validate() error {
	return validator.Struct(r)
}

type CashAdvanceFilter struct {
	EmployeeID *string
	Status     *Status
}

type CashAdvanceResponse struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	Amount          decimal.Decimal `json:"amount"`
	Reason          string          `json:"reason"`
	RepaymentPlan   string          `json:"repayment_plan"`
	Status          string          `json:"status"`
	ManagerApproval string          `json:"manager_approval"`
	AdminApproval   string          `json:"admin_approval"`
	IsDisbursed     bool            `json:"is_disbursed"`
	DisbursedAt     *time.Time      `json:"disbursed_at,omitempty"`
}

func ToResponse(r Request) CashAdvanceResponse {
	return CashAdvanceResponse{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		Amount:          r.Amount,
		Reason:          r.Reason,
		RepaymentPlan:   r.RepaymentPlan,
		Status:          string(r.Status),
		ManagerApproval: string(r.ManagerApproval),
		AdminApproval:   string(r.AdminApproval),
		IsDisbursed:     r.IsDisbursed,
		DisbursedAt:     r.DisbursedAt,
	}
}
