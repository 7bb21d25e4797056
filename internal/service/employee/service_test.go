package employee

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() employee.EmployeeService {
	return NewEmployeeService(memory.NewEmployeeRepository(memory.NewStore()))
}

func TestEmployeeService_CreateAndGet(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.CreateEmployee(ctx, employee.CreateEmployeeRequest{
		EmployeeCode: "E-001",
		FullName:     "Ana Cruz",
		Department:   "Finance",
		HireDate:     "2023-01-09",
		BasicSalary:  decimal.NewFromInt(20000),
	})
	require.NoError(t, err)
	assert.Equal(t, "active", created.EmploymentStatus)
	assert.Equal(t, "2023-01-09", created.HireDate)

	got, err := svc.GetEmployee(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Cruz", got.FullName)
}

func TestEmployeeService_CreateValidation(t *testing.T) {
	svc := newService()

	_, err := svc.CreateEmployee(context.Background(), employee.CreateEmployeeRequest{
		EmployeeCode: "E-001",
		HireDate:     "09/01/2023",
		BasicSalary:  decimal.NewFromInt(-5),
	})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := verrs.ToMap()
	assert.Contains(t, fields, "full_name")
	assert.Contains(t, fields, "basic_salary")
}

func TestEmployeeService_DuplicateCode(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	req := employee.CreateEmployeeRequest{EmployeeCode: "E-001", FullName: "A", HireDate: "2023-01-09", BasicSalary: decimal.NewFromInt(1)}

	_, err := svc.CreateEmployee(ctx, req)
	require.NoError(t, err)
	_, err = svc.CreateEmployee(ctx, req)
	assert.ErrorIs(t, err, employee.ErrEmployeeCodeExists)
}

func TestEmployeeService_UpdateSalaryAndInactivate(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.CreateEmployee(ctx, employee.CreateEmployeeRequest{EmployeeCode: "E-001", FullName: "A", HireDate: "2023-01-09", BasicSalary: decimal.NewFromInt(20000)})
	require.NoError(t, err)

	updated, err := svc.UpdateSalary(ctx, employee.UpdateSalaryRequest{ID: created.ID, BasicSalary: decimal.NewFromInt(24000)})
	require.NoError(t, err)
	assert.True(t, updated.BasicSalary.Equal(decimal.NewFromInt(24000)))

	_, err = svc.InactivateEmployee(ctx, created.ID, employee.EmploymentStatusActive)
	assert.Error(t, err)

	resigned, err := svc.InactivateEmployee(ctx, created.ID, employee.EmploymentStatusResigned)
	require.NoError(t, err)
	assert.Equal(t, "resigned", resigned.EmploymentStatus)

	_, err = svc.GetEmployee(ctx, "missing")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}
