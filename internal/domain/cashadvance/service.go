package cashadvance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type CashAdvanceService interface {
	File(ctx context.Context, req FileRequest) (CashAdvanceResponse, error)
	Review(ctx context.Context, req ReviewRequest) (CashAdvanceResponse, error)
	Cancel(ctx context.Context, id string) (CashAdvanceResponse, error)
	Disburse(ctx context.Context, req DisburseRequest) (CashAdvanceResponse, error)
	Get(ctx context.Context, id string) (CashAdvanceResponse, error)
	List(ctx context.Context, filter CashAdvanceFilter) ([]CashAdvanceResponse, error)
	EligibleTotal(ctx context.Context, employeeID string, start, end time.Time) (decimal.Decimal, error)
}
