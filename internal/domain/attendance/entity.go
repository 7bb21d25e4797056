package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent    Status = "present"
	StatusLate       Status = "late"
	StatusAbsent     Status = "absent"
	StatusIncomplete Status = "incomplete"
)

// Record is the single attendance entry of an employee for one calendar day.
// Date is the local calendar day represented as midnight UTC.
type Record struct {
	ID          string
	EmployeeID  string
	Date        time.Time
	TimeIn      *time.Time
	TimeOut     *time.Time
	HoursWorked *decimal.Decimal
	Status      Status
	LateMinutes int
	// CrossBoundary marks a clock-out recorded before the clock-in; HoursWorked stays nil.
	CrossBoundary bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsOpen reports whether the record is waiting for a clock-out.
func (r Record) IsOpen() bool {
	return r.TimeIn != nil && r.TimeOut == nil
}

// Summary aggregates an employee's attendance over a pay period.
type Summary struct {
	EmployeeID  string          `json:"employee_id"`
	DaysPresent int             `json:"days_present"`
	DaysLate    int             `json:"days_late"`
	DaysAbsent  int             `json:"days_absent"`
	LateMinutes int             `json:"late_minutes"`
	HoursWorked decimal.Decimal `json:"hours_worked"`
}
