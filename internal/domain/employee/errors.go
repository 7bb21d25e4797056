package employee

import "github.com/cmlabs-hris/payroll-engine/internal/pkg/apperror"

var (
	ErrEmployeeNotFound   = apperror.New(apperror.KindNotFound, "EMPLOYEE_NOT_FOUND", "employee not found")
	ErrEmployeeCodeExists = apperror.New(apperror.KindConflict, "EMPLOYEE_CODE_EXISTS", "employee code already exists")
	ErrEmployeeInactive   = apperror.New(apperror.KindValidation, "EMPLOYEE_INACTIVE", "employee is not active")
)
