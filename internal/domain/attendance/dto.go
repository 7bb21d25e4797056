package attendance

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type ClockRequest struct {
	EmployeeID string    `json:"employee_id" validate:"required"`
	Timestamp  time.Time `json:"timestamp" validate:"required"`
}

func (r *ClockRequest) Validate() error {
	return validator.Struct(r)
}

type MarkAbsentRequest struct {
	Date        string   `json:"date" validate:"required"`
	EmployeeIDs []string `json:"employee_ids" validate:"required,min=1"`
}

func (r *MarkAbsentRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	if _, ok := validator.IsValidDate(r.Date); !ok {
		return validator.ValidationErrors{{Field: "date", Message: "date must be in YYYY-MM-DD format"}}
	}
	return nil
}

type AttendanceFilter struct {
	EmployeeID *string
	StartDate  *time.Time
	EndDate    *time.Time
	Status     *Status
	// OpenOnly keeps records with a clock-in and no clock-out.
	OpenOnly bool
}

type AttendanceResponse struct {
	ID            string           `json:"id"`
	EmployeeID    string           `json:"employee_id"`
	Date          string           `json:"date"`
	TimeIn        *time.Time       `json:"time_in,omitempty"`
	TimeOut       *time.Time       `json:"time_out,omitempty"`
	HoursWorked   *decimal.Decimal `json:"hours_worked,omitempty"`
	Status        string           `json:"status"`
	LateMinutes   int              `json:"late_minutes"`
	CrossBoundary bool             `json:"cross_boundary"`
}

func ToResponse(r Record) AttendanceResponse {
	return AttendanceResponse{
		ID:            r.ID,
		EmployeeID:    r.EmployeeID,
		Date:          r.Date.Format("2006-01-02"),
		TimeIn:        r.TimeIn,
		TimeOut:       r.TimeOut,
		HoursWorked:   r.HoursWorked,
		Status:        string(r.Status),
		LateMinutes:   r.LateMinutes,
		CrossBoundary: r.CrossBoundary,
	}
}
