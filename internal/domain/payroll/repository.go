package payroll

import (
	"context"
	"time"
)

// PayrollRepository stores payroll lines. At most one draft and one finalized line may exist per
// (employee, periodStart, periodEnd); InsertFinalized fails with ErrDuplicatePeriod otherwise.
type PayrollRepository interface {
	// SaveDraft replaces any draft occupying the same slot.
	SaveDraft(ctx context.Context, line PayrollLine) (PayrollLine, error)
	InsertFinalized(ctx context.Context, line PayrollLine) (PayrollLine, error)
	DeleteDrafts(ctx context.Context, employeeID string, start, end time.Time) error
	ExistsFinalized(ctx context.Context, employeeID string, start, end time.Time) (bool, error)
	GetByID(ctx context.Context, id string) (PayrollLine, error)
	List(ctx context.Context, filter PayrollFilter) ([]PayrollLine, error)
	// DeleteDraft removes a draft line; finalized lines fail with ErrFinalizedImmutable.
	DeleteDraft(ctx context.Context, id string) error
}
