package employee

import (
	"context"
)

// EmployeeService is the employee directory consulted by the ledger and payroll.
type EmployeeService interface {
	GetEmployee(ctx context.Context, id string) (EmployeeResponse, error)
	CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	UpdateSalary(ctx context.Context, req UpdateSalaryRequest) (EmployeeResponse, error)
	InactivateEmployee(ctx context.Context, id string, status EmploymentStatus) (EmployeeResponse, error)
	ListEmployees(ctx context.Context, filter EmployeeFilter) ([]EmployeeResponse, error)
}
