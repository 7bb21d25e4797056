package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID               string
	EmployeeCode     string
	FullName         string
	Department       string
	HireDate         time.Time
	BasicSalary      decimal.Decimal
	HourlyRate       *decimal.Decimal
	EmploymentStatus EmploymentStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

// Rate returns the hourly rate: the explicit override when set, else basicSalary / standardMonthlyHours.
func (e Employee) Rate(standardMonthlyHours decimal.Decimal) decimal.Decimal {
	if e.HourlyRate != nil {
		return *e.HourlyRate
	}
	if !standardMonthlyHours.IsPositive() {
		return decimal.Zero
	}
	return e.BasicSalary.Div(standardMonthlyHours)
}

func (e Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive
}
