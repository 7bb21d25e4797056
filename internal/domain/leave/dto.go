package leave

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

type FileRequest struct {
	EmployeeID string  `json:"employee_id" validate:"required"`
	LeaveType  string  `json:"leave_type" validate:"required,oneof=vacation sick emergency maternity paternity bereavement unpaid other"`
	StartDate  string  `json:"start_date" validate:"required"`
	EndDate    *string `json:"end_date,omitempty"`
	Reason     string  `json:"reason" validate:"required,max=1000"`
}

func (r *FileRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	var errs validator.ValidationErrors
	start, ok := validator.IsValidDate(r.StartDate)
	if !ok {
		errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
	}
	if r.EndDate != nil {
		end, ok := validator.IsValidDate(*r.EndDate)
		switch {
		case !ok:
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		case end.Before(start):
			errs.Add("end_date", "end_date must not be before start_date")
		}
	}
	return errs.Err()
}

type ReviewRequest struct {
	ID         string `json:"-"`
	ReviewerID string `json:"reviewer_id" validate:"required"`
	Notes      string `json:"notes"`
}

func (r *ReviewRequest) Validate() error {
	return validator.Struct(r)
}

type CancelRequest struct {
	ID         string `json:"-"`
	EmployeeID string `json:"employee_id" validate:"required"`
}

func (r *CancelRequest) Validate() error {
	return validator.Struct(r)
}

type ManualCompleteRequest struct {
	ID          string `json:"-"`
	EndDate     string `json:"end_date" validate:"required"`
	CompletedBy string `json:"completed_by" validate:"required"`
}

func (r *ManualCompleteRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	if _, ok := validator.IsValidDate(r.EndDate); !ok {
		return validator.ValidationErrors{{Field: "end_date", Message: "end_date must be in YYYY-MM-DD format"}}
	}
	return nil
}

type AdjustCreditRequest struct {
	EmployeeID string `json:"-"`
	LeaveType  string `json:"leave_type" validate:"required,oneof=vacation sick emergency maternity paternity bereavement unpaid other"`
	Days       int    `json:"days" validate:"gte=0"`
	Reason     string `json:"reason" validate:"required,max=500"`
	AdjustedBy string `json:"adjusted_by" validate:"required"`
}

func (r *AdjustCreditRequest) Validate() error {
	return validator.Struct(r)
}

type LeaveRequestFilter struct {
	EmployeeID *string
	Status     *Status
	LeaveType  *Type
}

type LeaveRequestResponse struct {
	ID          string  `json:"id"`
	EmployeeID  string  `json:"employee_id"`
	LeaveType   string  `json:"leave_type"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date,omitempty"`
	TotalDays   *int    `json:"total_days,omitempty"`
	Reason      string  `json:"reason"`
	Status      string  `json:"status"`
	IsActive    bool    `json:"is_active"`
	NeedsReview bool    `json:"needs_review"`
	ReviewFlag  *string `json:"review_flag,omitempty"`
	ReviewedBy  *string `json:"reviewed_by,omitempty"`
	ReviewNotes *string `json:"review_notes,omitempty"`
	CompletedBy *string `json:"completed_by,omitempty"`
}

func ToResponse(r Request) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:          r.ID,
		EmployeeID:  r.EmployeeID,
		LeaveType:   string(r.LeaveType),
		StartDate:   r.StartDate.Format("2006-01-02"),
		TotalDays:   r.TotalDays,
		Reason:      r.Reason,
		Status:      string(r.Status),
		IsActive:    r.IsActive,
		NeedsReview: r.NeedsReview,
		ReviewFlag:  r.ReviewFlag,
		ReviewedBy:  r.ReviewedBy,
		ReviewNotes: r.ReviewNotes,
		CompletedBy: r.CompletedBy,
	}
	if r.EndDate != nil {
		end := r.EndDate.Format("2006-01-02")
		resp.EndDate = &end
	}
	return resp
}

type BalanceResponse struct {
	LeaveType   string     `json:"leave_type"`
	Entitlement int        `json:"entitlement"`
	Used        int        `json:"used"`
	Remaining   int        `json:"remaining"`
	Overridden  bool       `json:"overridden"`
	Reason      *string    `json:"reason,omitempty"`
	AdjustedBy  *string    `json:"adjusted_by,omitempty"`
	AdjustedAt  *time.Time `json:"adjusted_at,omitempty"`
}
