package leave

import (
	"context"
	"time"
)

// LeaveRequestRepository stores leave requests. At most one request per employee may be active;
// writes that would break this fail with ErrDuplicateActiveRequest.
type LeaveRequestRepository interface {
	Create(ctx context.Context, request Request) (Request, error)
	GetByID(ctx context.Context, id string) (Request, error)
	GetActive(ctx context.Context, employeeID string) (Request, error)
	HasSettledOn(ctx context.Context, employeeID string, endDate time.Time) (bool, error)
	UpdateReview(ctx context.Context, request Request) error
	// Complete stores settlement fields only while the request is active and open, otherwise ErrAlreadySettled.
	Complete(ctx context.Context, request Request) error
	Flag(ctx context.Context, id string, flag string) error
	List(ctx context.Context, filter LeaveRequestFilter) ([]Request, error)
	ListActionRequired(ctx context.Context, startedBefore time.Time) ([]Request, error)
	SettledDays(ctx context.Context, employeeID string, start, end time.Time) (map[Type]int, error)
}

// LeaveCreditRepository stores per-employee entitlement overrides.
type LeaveCreditRepository interface {
	ListByEmployee(ctx context.Context, employeeID string) ([]Credit, error)
	Upsert(ctx context.Context, credit Credit) (Credit, error)
	DeleteByEmployee(ctx context.Context, employeeID string) (int, error)
}
