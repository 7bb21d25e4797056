package employee

import (
	"context"

	"github.com/shopspring/decimal"
)

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	Create(ctx context.Context, newEmployee Employee) (Employee, error)
	UpdateSalary(ctx context.Context, id string, basicSalary decimal.Decimal, hourlyRate *decimal.Decimal) error
	UpdateStatus(ctx context.Context, id string, status EmploymentStatus) error
	List(ctx context.Context, filter EmployeeFilter) ([]Employee, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
}
