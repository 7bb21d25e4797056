package overtime

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type FileRequest struct {
	EmployeeID string    `json:"employee_id" validate:"required"`
	Date       string    `json:"date" validate:"required"`
	StartTime  time.Time `json:"start_time" validate:"required"`
	Reason     string    `json:"reason" validate:"required,max=1000"`
}

func (r *FileRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	if _, ok := validator.IsValidDate(r.Date); !ok {
		return validator.ValidationErrors{{Field: "date", Message: "date must be in YYYY-MM-DD format"}}
	}
	return nil
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
	ID          string    `json:"-"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	CompletedBy string    `json:"completed_by" validate:"required"`
}

func (r *ManualCompleteRequest) Validate() error {
	return validator.Struct(r)
}

type OvertimeFilter struct {
	EmployeeID *string
	Status     *Status
	StartDate  *time.Time
	EndDate    *time.Time
}

type OvertimeResponse struct {
	ID             string           `json:"id"`
	EmployeeID     string           `json:"employee_id"`
	Date           string           `json:"date"`
	StartTime      time.Time        `json:"start_time"`
	EndTime        *time.Time       `json:"end_time,omitempty"`
	TotalHours     *decimal.Decimal `json:"total_hours,omitempty"`
	DayType        string           `json:"day_type"`
	RateMultiplier decimal.Decimal  `json:"rate_multiplier"`
	OvertimePay    *decimal.Decimal `json:"overtime_pay,omitempty"`
	Reason         string           `json:"reason"`
	Status         string           `json:"status"`
	IsActive       bool             `json:"is_active"`
	Completed      bool             `json:"completed"`
	NeedsReview    bool             `json:"needs_review"`
	ReviewFlag     *string          `json:"review_flag,omitempty"`
	ReviewedBy     *string          `json:"reviewed_by,omitempty"`
	ReviewNotes    *string          `json:"review_notes,omitempty"`
	CompletedBy    *string          `json:"completed_by,omitempty"`
}

func ToResponse(r Request) OvertimeResponse {
	return OvertimeResponse{
		ID:             r.ID,
		EmployeeID:     r.EmployeeID,
		Date:           r.Date.Format("2006-01-02"),
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		TotalHours:     r.TotalHours,
		DayType:        string(r.DayType),
		RateMultiplier: r.RateMultiplier,
		OvertimePay:    r.OvertimePay,
		Reason:         r.Reason,
		Status:         string(r.Status),
		IsActive:       r.IsActive,
		Completed:      r.IsCompleted(),
		NeedsReview:    r.NeedsReview,
		ReviewFlag:     r.ReviewFlag,
		ReviewedBy:     r.ReviewedBy,
		ReviewNotes:    r.ReviewNotes,
		CompletedBy:    r.CompletedBy,
	}
}
