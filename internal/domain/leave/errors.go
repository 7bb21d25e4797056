package leave

import "github.com/cmlabs-hris/payroll-engine/internal/pkg/apperror"

var (
	ErrLeaveRequestNotFound   = apperror.New(apperror.KindNotFound, "LEAVE_NOT_FOUND", "leave request not found")
	ErrDuplicateActiveRequest = apperror.New(apperror.KindConflict, "DUPLICATE_ACTIVE_LEAVE", "another leave is already active for this employee")
	ErrAlreadySettled         = apperror.New(apperror.KindConflict, "LEAVE_ALREADY_SETTLED", "leave request is already settled")
	ErrNotPending             = apperror.New(apperror.KindConflict, "LEAVE_NOT_PENDING", "leave request is not pending")
	ErrNotApproved            = apperror.New(apperror.KindConflict, "LEAVE_NOT_APPROVED", "leave request is not approved")
	ErrNotesRequired          = apperror.New(apperror.KindValidation, "REVIEW_NOTES_REQUIRED", "notes are required when rejecting")
	ErrNotOwner               = apperror.New(apperror.KindValidation, "LEAVE_NOT_OWNER", "only the filing employee can cancel the request")
	ErrEndBeforeStart         = apperror.New(apperror.KindAnomaly, "LEAVE_END_BEFORE_START", "leave would end before it starts")
	ErrCreditNotFound         = apperror.New(apperror.KindNotFound, "LEAVE_CREDIT_NOT_FOUND", "leave credit override not found")
)
