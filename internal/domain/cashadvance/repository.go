package cashadvance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type CashAdvanceRepository interface {
	Create(ctx context.Context, req Request) (Request, error)
	GetByID(ctx context.Context, id string) (Request, error)
	Update(ctx context.Context, req Request) error
	List(ctx context.Context, filter CashAdvanceFilter) ([]Request, error)
	// EligibleTotal sums approved advances disbursed within [start, end].
	EligibleTotal(ctx context.Context, employeeID string, start, end time.Time) (decimal.Decimal, error)
}
