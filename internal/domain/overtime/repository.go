package overtime

import (
	"context"
	"time"
)

// OvertimeRepository stores overtime requests. At most one request per (employee, date) may be active;
// writes that would break this fail with ErrDuplicateActiveRequest.
type OvertimeRepository interface {
	Create(ctx context.Context, req Request) (Request, error)
	GetByID(ctx context.Context, id string) (Request, error)
	GetActive(ctx context.Context, employeeID string, date time.Time) (Request, error)
	HasCompleted(ctx context.Context, employeeID string, date time.Time) (bool, error)
	// UpdateReview stores a status transition made while the request was still pending.
	UpdateReview(ctx context.Context, req Request) error
	// Complete stores settlement fields only while the request is active and unsettled, otherwise ErrAlreadySettled.
	Complete(ctx context.Context, req Request) error
	Flag(ctx context.Context, id string, flag string) error
	List(ctx context.Context, filter OvertimeFilter) ([]Request, error)
	ListActionRequired(ctx context.Context, approvedBefore time.Time) ([]Request, error)
	SettledTotals(ctx context.Context, employeeID string, start, end time.Time) (Totals, error)
}
