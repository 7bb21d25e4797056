package employee

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

type EmployeeServiceImpl struct {
	employeeRepo employee.EmployeeRepository
}

func NewEmployeeService(employeeRepo employee.EmployeeRepository) employee.EmployeeService {
	return &EmployeeServiceImpl{employeeRepo: employeeRepo}
}

func (s *EmployeeServiceImpl) GetEmployee(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, apperror.WithFields(err, "employee_id", id)
	}
	return employee.ToResponse(emp), nil
}

func (s *EmployeeServiceImpl) CreateEmployee(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}
	hireDate, _ := time.Parse("2006-01-02", req.HireDate)

	created, err := s.employeeRepo.Create(ctx, employee.Employee{
		EmployeeCode:     req.EmployeeCode,
		FullName:         req.FullName,
		Department:       req.Department,
		HireDate:         hireDate,
		BasicSalary:      req.BasicSalary,
		HourlyRate:       req.HourlyRate,
		EmploymentStatus: employee.EmploymentStatusActive,
	})
	if err != nil {
		return employee.EmployeeResponse{}, apperror.WithFields(err, "employee_code", req.EmployeeCode)
	}
	slog.Info("Employee created", "employee_id", created.ID, "employee_code", created.EmployeeCode)
	return employee.ToResponse(created), nil
}

// UpdateSalary changes the salary used by future payroll runs. Finalized lines keep the salary they were computed with.
func (s *EmployeeServiceImpl) UpdateSalary(ctx context.Context, req employee.UpdateSalaryRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := s.employeeRepo.UpdateSalary(ctx, req.ID, req.BasicSalary, req.HourlyRate); err != nil {
		return employee.EmployeeResponse{}, apperror.WithFields(err, "employee_id", req.ID)
	}
	return s.GetEmployee(ctx, req.ID)
}

func (s *EmployeeServiceImpl) InactivateEmployee(ctx context.Context, id string, status employee.EmploymentStatus) (employee.EmployeeResponse, error) {
	if status != employee.EmploymentStatusResigned && status != employee.EmploymentStatusTerminated {
		return employee.EmployeeResponse{}, validator.ValidationErrors{{Field: "employment_status", Message: "employment_status must be one of: resigned terminated"}}
	}
	if err := s.employeeRepo.UpdateStatus(ctx, id, status); err != nil {
		return employee.EmployeeResponse{}, apperror.WithFields(err, "employee_id", id)
	}
	return s.GetEmployee(ctx, id)
}

func (s *EmployeeServiceImpl) ListEmployees(ctx context.Context, filter employee.EmployeeFilter) ([]employee.EmployeeResponse, error) {
	employees, err := s.employeeRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	out := make([]employee.EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, employee.ToResponse(e))
	}
	return out, nil
}
