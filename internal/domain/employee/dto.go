package employee

import (
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateEmployeeRequest struct {
	EmployeeCode string           `json:"employee_code" validate:"required,max=32"`
	FullName     string           `json:"full_name" validate:"required,max=255"`
	Department   string           `json:"department" validate:"max=100"`
	HireDate     string           `json:"hire_date" validate:"required"`
	BasicSalary  decimal.Decimal  `json:"basic_salary" validate:"gte=0"`
	HourlyRate   *decimal.Decimal `json:"hourly_rate,omitempty"`
}

func (r *CreateEmployeeRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	var errs validator.ValidationErrors
	if _, ok := validator.IsValidDate(r.HireDate); !ok {
		errs.Add("hire_date", "hire_date must be in YYYY-MM-DD format")
	}
	if r.HourlyRate != nil && r.HourlyRate.IsNegative() {
		errs.Add("hourly_rate", "hourly_rate must not be negative")
	}
	return errs.Err()
}

type UpdateSalaryRequest struct {
	ID          string           `json:"-"`
	BasicSalary decimal.Decimal  `json:"basic_salary" validate:"gte=0"`
	HourlyRate  *decimal.Decimal `json:"hourly_rate,omitempty"`
}

func (r *UpdateSalaryRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	if r.HourlyRate != nil && r.HourlyRate.IsNegative() {
		return validator.ValidationErrors{{Field: "hourly_rate", Message: "hourly_rate must not be negative"}}
	}
	return nil
}

type InactivateEmployeeRequest struct {
	ID     string `json:"-"`
	Status string `json:"status" validate:"required,oneof=resigned terminated"`
}

func (r *InactivateEmployeeRequest) Validate() error {
	return validator.Struct(r)
}

type EmployeeFilter struct {
	Department *string
	Status     *EmploymentStatus
}

type EmployeeResponse struct {
	ID               string           `json:"id"`
	EmployeeCode     string           `json:"employee_code"`
	FullName         string           `json:"full_name"`
	Department       string           `json:"department"`
	HireDate         string           `json:"hire_date"`
	BasicSalary      decimal.Decimal  `json:"basic_salary"`
	HourlyRate       *decimal.Decimal `json:"hourly_rate,omitempty"`
	EmploymentStatus string           `json:"employment_status"`
}

func ToResponse(e Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:               e.ID,
		EmployeeCode:     e.EmployeeCode,
		FullName:         e.FullName,
		Department:       e.Department,
		HireDate:         e.HireDate.Format("2006-01-02"),
		BasicSalary:      e.BasicSalary,
		HourlyRate:       e.HourlyRate,
		EmploymentStatus: string(e.EmploymentStatus),
	}
}
