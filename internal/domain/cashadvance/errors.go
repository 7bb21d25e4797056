package cashadvance

import "github.com/cmlabs-hris/payroll-engine/internal/pkg/apperror"

var (
	ErrRequestNotFound  = apperror.New(apperror.KindNotFound, "CASH_ADVANCE_NOT_FOUND", "cash advance request not found")
	ErrNotPending       = apperror.New(apperror.KindConflict, "CASH_ADVANCE_NOT_PENDING", "cash advance request is not pending")
	ErrGateReviewed     = apperror.New(apperror.KindConflict, "CASH_ADVANCE_GATE_REVIEWED", "this approval gate has already been reviewed")
	ErrNotApproved      = apperror.New(apperror.KindConflict, "CASH_ADVANCE_NOT_APPROVED", "cash advance request is not fully approved")
	ErrAlreadyDisbursed = apperror.New(apperror.KindConflict, "CASH_ADVANCE_DISBURSED", "cash advance has already been disbursed")
	ErrNotesRequired    = apperror.New(apperror.KindValidation, "REVIEW_NOTES_REQUIRED", "notes are required when rejecting")
)
