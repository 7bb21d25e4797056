package payroll

import (
	"context"
	"time"
)

// PayrollService computes, drafts and finalizes payroll lines.
type PayrollService interface {
	ComputeLine(ctx context.Context, employeeID string, period Period, inputs Inputs) (PayrollLine, error)
	RunDraft(ctx context.Context, period Period, employeeIDs []string) (DraftRegister, error)
	SaveDraft(ctx context.Context, lines []PayrollLine) ([]PayrollLine, error)
	// Finalize commits every line as finalized in one transaction, or none of them.
	Finalize(ctx context.Context, lines []PayrollLine, payoutDate time.Time, finalizedBy string) (FinalizeResult, error)
	FinalizeDrafts(ctx context.Context, req FinalizeRequest) (FinalizeResult, error)
	GetLine(ctx context.Context, id string) (PayrollLine, error)
	ListLines(ctx context.Context, filter PayrollFilter) ([]PayrollLine, error)
	DeleteDraft(ctx context.Context, id string) error
}
