package overtime

import "github.com/cmlabs-hris/payroll-engine/internal/pkg/apperror"

var (
	ErrRequestNotFound        = apperror.New(apperror.KindNotFound, "OVERTIME_NOT_FOUND", "overtime request not found")
	ErrDuplicateActiveRequest = apperror.New(apperror.KindConflict, "DUPLICATE_ACTIVE_OVERTIME", "another overtime request is already active for this employee and day")
	ErrAlreadySettled         = apperror.New(apperror.KindConflict, "OVERTIME_ALREADY_SETTLED", "overtime request is already settled")
	ErrNotPending             = apperror.New(apperror.KindConflict, "OVERTIME_NOT_PENDING", "overtime request is not pending")
	ErrNotApproved            = apperror.New(apperror.KindConflict, "OVERTIME_NOT_APPROVED", "overtime request is not approved")
	ErrNotesRequired          = apperror.New(apperror.KindValidation, "REVIEW_NOTES_REQUIRED", "notes are required when rejecting")
	ErrNonPositiveDuration    = apperror.New(apperror.KindAnomaly, "NON_POSITIVE_OVERTIME", "end time must be after the overtime start")
	ErrDurationExceedsLimit   = apperror.New(apperror.KindValidation, "OVERTIME_TOO_LONG", "overtime cannot exceed 24 hours")
	ErrNotOwner               = apperror.New(apperror.KindValidation, "OVERTIME_NOT_OWNER", "only the filing employee can cancel the request")
)
