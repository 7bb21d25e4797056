package payroll

import (
	"fmt"
	"strings"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/apperror"
)

var (
	ErrPayrollLineNotFound = apperror.New(apperror.KindNotFound, "PAYROLL_LINE_NOT_FOUND", "payroll line not found")
	ErrDuplicatePeriod     = apperror.New(apperror.KindConflict, "DUPLICATE_PERIOD", "a finalized payroll line already exists for this employee and period")
	ErrFinalizedImmutable  = apperror.New(apperror.KindFatal, "FINALIZED_IMMUTABLE", "finalized payroll lines cannot be modified")
	ErrInvalidPeriod       = apperror.New(apperror.KindValidation, "INVALID_PERIOD", "invalid payroll period")
	ErrNegativeInput       = apperror.New(apperror.KindValidation, "NEGATIVE_INPUT", "payroll inputs must not be negative")
	ErrInvariantViolated   = apperror.New(apperror.KindValidation, "NET_PAY_MISMATCH", "net pay does not equal gross pay minus deductions")
	ErrNotDraft            = apperror.New(apperror.KindValidation, "NOT_DRAFT", "only draft lines can be finalized")
	ErrEmptyBatch          = apperror.New(apperror.KindValidation, "EMPTY_BATCH", "batch contains no lines")
)

// LineFailure is one employee's failure within a batch.
type LineFailure struct {
	EmployeeID  string
	PeriodStart string
	PeriodEnd   string
	Err         error
}

// BatchError reports every failing line of a batch. Nothing in the batch was committed.
type BatchError struct {
	Failures []LineFailure
}

func (e *BatchError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s [%s..%s]: %v", f.EmployeeID, f.PeriodStart, f.PeriodEnd, f.Err))
	}
	return fmt.Sprintf("payroll batch rejected, %d failing line(s): %s", len(e.Failures), strings.Join(parts, "; "))
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}
