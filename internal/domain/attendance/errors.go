package attendance

import "github.com/cmlabs-hris/payroll-engine/internal/pkg/apperror"

var (
	ErrDuplicateClockIn  = apperror.New(apperror.KindConflict, "DUPLICATE_CLOCK_IN", "employee has already clocked in for this day")
	ErrNoOpenRecord      = apperror.New(apperror.KindConflict, "NO_OPEN_RECORD", "no open attendance record for this day")
	ErrRecordNotFound    = apperror.New(apperror.KindNotFound, "ATTENDANCE_NOT_FOUND", "attendance record not found")
	ErrEventNotFound     = apperror.New(apperror.KindNotFound, "ATTENDANCE_EVENT_NOT_FOUND", "attendance event not found")
	ErrInvalidDateFilter = apperror.New(apperror.KindValidation, "INVALID_DATE_RANGE", "end date must not be before start date")
)
