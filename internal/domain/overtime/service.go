package overtime

import (
	"context"
	"time"
)

type OvertimeService interface {
	File(ctx context.Context, req FileRequest) (OvertimeResponse, error)
	Approve(ctx context.Context, req ReviewRequest) (OvertimeResponse, error)
	Reject(ctx context.Context, req ReviewRequest) (OvertimeResponse, error)
	Cancel(ctx context.Context, req CancelRequest) (OvertimeResponse, error)
	ManualComplete(ctx context.Context, req ManualCompleteRequest) (OvertimeResponse, error)
	Get(ctx context.Context, id string) (OvertimeResponse, error)
	List(ctx context.Context, filter OvertimeFilter) ([]OvertimeResponse, error)
	ListActionRequired(ctx context.Context, olderThan time.Duration) ([]OvertimeResponse, error)

	// OnClockOut settles the active request for the employee's day. Repeated calls are no-ops.
	OnClockOut(ctx context.Context, employeeID string, ts time.Time) (Outcome, error)
}
