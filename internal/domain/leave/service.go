package leave

import (
	"context"
	"time"
)

type LeaveService interface {
	// Request
	File(ctx context.Context, req FileRequest) (LeaveRequestResponse, error)
	Approve(ctx context.Context, req ReviewRequest) (LeaveRequestResponse, error)
	Reject(ctx context.Context, req ReviewRequest) (LeaveRequestResponse, error)
	Cancel(ctx context.Context, req CancelRequest) (LeaveRequestResponse, error)
	ManualComplete(ctx context.Context, req ManualCompleteRequest) (LeaveRequestResponse, error)
	Get(ctx context.Context, id string) (LeaveRequestResponse, error)
	List(ctx context.Context, filter LeaveRequestFilter) ([]LeaveRequestResponse, error)
	ListActionRequired(ctx context.Context, olderThan time.Duration) ([]LeaveRequestResponse, error)

	// OnClockIn settles the employee's active open leave. Repeated calls are no-ops.
	OnClockIn(ctx context.Context, employeeID string, ts time.Time) (Outcome, error)

	// Credit
	Credits(ctx context.Context, employeeID string) ([]Entitlement, error)
	AdjustCredit(ctx context.Context, req AdjustCreditRequest) (Entitlement, error)
	ResetCredits(ctx context.Context, employeeID string) (int, error)
	Balance(ctx context.Context, employeeID string, year int) ([]BalanceResponse, error)
}
